package geo

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/rendis/geobounds/internal/model"
)

// DefaultSourceLayer is the layer name used when a collection does not name one.
const DefaultSourceLayer = "admin_boundaries"

// Feature is one boundary polygon with its attribute properties.
type Feature struct {
	Index      int
	Layer      string
	Geometry   orb.Geometry
	Bound      orb.Bound
	Properties map[string]any
}

// Attributes flattens the properties to strings. Null values are dropped.
func (f Feature) Attributes() model.Attributes {
	out := make(model.Attributes, len(f.Properties))
	for k, v := range f.Properties {
		switch x := v.(type) {
		case nil:
			continue
		case string:
			out[k] = x
		case float64:
			out[k] = strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(x)
		default:
			out[k] = fmt.Sprint(x)
		}
	}
	return out
}

// Dataset holds the features of one source, grouped by source layer.
type Dataset struct {
	URL    string
	layers map[string][]Feature
}

// ParseGeoJSON reads a FeatureCollection. The collection's "name" member,
// when present, becomes the source layer name.
func ParseGeoJSON(url string, data []byte) (*Dataset, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing geojson %s: %w", url, err)
	}

	layer := DefaultSourceLayer
	if name, ok := fc.ExtraMembers["name"].(string); ok && name != "" {
		layer = name
	}

	ds := &Dataset{URL: url, layers: make(map[string][]Feature)}
	for i, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			continue
		}
		props := map[string]any(f.Properties)
		if props == nil {
			props = map[string]any{}
		}
		ds.layers[layer] = append(ds.layers[layer], Feature{
			Index:      i,
			Layer:      layer,
			Geometry:   f.Geometry,
			Bound:      f.Geometry.Bound(),
			Properties: props,
		})
	}
	return ds, nil
}

// NewDataset builds a dataset from features already in memory.
func NewDataset(url string, features []Feature) *Dataset {
	ds := &Dataset{URL: url, layers: make(map[string][]Feature)}
	for i, f := range features {
		if f.Layer == "" {
			f.Layer = DefaultSourceLayer
		}
		f.Index = i
		if f.Bound.IsZero() && f.Geometry != nil {
			f.Bound = f.Geometry.Bound()
		}
		ds.layers[f.Layer] = append(ds.layers[f.Layer], f)
	}
	return ds
}

// Layer returns the features of one source layer.
func (d *Dataset) Layer(name string) []Feature {
	if d == nil {
		return nil
	}
	return d.layers[name]
}

// LayerNames lists the source layers, sorted.
func (d *Dataset) LayerNames() []string {
	names := make([]string, 0, len(d.layers))
	for n := range d.layers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len counts features across all layers.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, fs := range d.layers {
		n += len(fs)
	}
	return n
}
