package model

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Bounds is a [west, south, east, north] bounding box in degrees.
type Bounds [4]float64

func (b Bounds) West() float64  { return b[0] }
func (b Bounds) South() float64 { return b[1] }
func (b Bounds) East() float64  { return b[2] }
func (b Bounds) North() float64 { return b[3] }

// Bound converts to an orb.Bound (orb points are [lng, lat]).
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West(), b.South()},
		Max: orb.Point{b.East(), b.North()},
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%.4f, %.4f, %.4f, %.4f]", b[0], b[1], b[2], b[3])
}

// CountryConfig is one entry of countries_config.json.
type CountryConfig struct {
	ID            string `json:"-"`
	DisplayName   string `json:"display_name"`
	Bounds        Bounds `json:"bounds"`
	FeatureClass  string `json:"feature_class"`
	MaxAdminLevel int    `json:"max_admin_level"`
	FeatureCount  int    `json:"feature_count"`
}

// Catalog maps country identifiers to their configuration. Never mutated after load.
type Catalog map[string]CountryConfig

// Lookup returns the entry for id.
func (c Catalog) Lookup(id string) (CountryConfig, bool) {
	cfg, ok := c[id]
	return cfg, ok
}

// Session is the explorer state owned by the application controller.
type Session struct {
	Country *CountryConfig
	Level   int
}

// HasCountry reports whether a country is currently selected.
func (s Session) HasCountry() bool {
	return s.Country != nil
}

// Attributes is the flat attribute set of one clicked admin feature.
type Attributes map[string]string

// Get returns the value for key, or "" when absent.
func (a Attributes) Get(key string) string {
	return a[key]
}
