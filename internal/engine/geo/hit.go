package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Contains reports whether p falls inside the feature's polygon (orb points are [lng, lat]).
func (f Feature) Contains(p orb.Point) bool {
	if !f.Bound.Contains(p) {
		return false
	}
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	}
	return false
}

// FeaturesAt returns the features containing p that satisfy match, in dataset order.
func FeaturesAt(features []Feature, p orb.Point, match func(Feature) bool) []Feature {
	var hits []Feature
	for _, f := range features {
		if match != nil && !match(f) {
			continue
		}
		if f.Contains(p) {
			hits = append(hits, f)
		}
	}
	return hits
}
