package style

import "maps"

type SourceType string

const (
	SourceVector SourceType = "vector"
	SourceRaster SourceType = "raster"
)

type LayerType string

const (
	LayerFill   LayerType = "fill"
	LayerLine   LayerType = "line"
	LayerRaster LayerType = "raster"
)

// Source describes where a layer's data comes from.
type Source struct {
	Type        SourceType `json:"type"`
	URL         string     `json:"url,omitempty"`
	Tiles       []string   `json:"tiles,omitempty"`
	TileSize    int        `json:"tileSize,omitempty"`
	Attribution string     `json:"attribution,omitempty"`
}

// Paint maps paint property names (e.g. "line-width") to a literal or an Expr.
type Paint map[string]any

// Number evaluates a numeric paint property at zoom, falling back to def.
func (p Paint) Number(key string, zoom, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	r, err := evalValue(v, Context{Zoom: zoom})
	if err != nil {
		return def
	}
	if f, ok := toFloat(r); ok {
		return f
	}
	return def
}

// Color evaluates a colour paint property at zoom, falling back to def.
func (p Paint) Color(key string, zoom float64, def Color) Color {
	v, ok := p[key]
	if !ok {
		return def
	}
	r, err := evalValue(v, Context{Zoom: zoom})
	if err != nil {
		return def
	}
	switch c := r.(type) {
	case Color:
		return c
	case string:
		parsed, err := ParseColor(c)
		if err != nil {
			return def
		}
		return parsed
	}
	return def
}

// At returns a copy with every expression evaluated at zoom. Properties
// that fail to evaluate are dropped so readers fall back to their defaults.
func (p Paint) At(zoom float64) Paint {
	out := make(Paint, len(p))
	for k, v := range p {
		r, err := evalValue(v, Context{Zoom: zoom})
		if err != nil {
			continue
		}
		out[k] = r
	}
	return out
}

// Layer is one entry of the style's layer stack.
type Layer struct {
	ID          string    `json:"id"`
	Type        LayerType `json:"type"`
	Source      string    `json:"source,omitempty"`
	SourceLayer string    `json:"source-layer,omitempty"`
	MinZoom     *float64  `json:"minzoom,omitempty"`
	MaxZoom     *float64  `json:"maxzoom,omitempty"`
	Filter      Expr      `json:"filter,omitempty"`
	Paint       Paint     `json:"paint,omitempty"`
}

// Clone returns a copy whose paint map can be mutated independently.
func (l Layer) Clone() Layer {
	out := l
	out.Paint = maps.Clone(l.Paint)
	return out
}

// VisibleAt reports whether zoom falls inside the layer's zoom range.
func (l Layer) VisibleAt(zoom float64) bool {
	if l.MinZoom != nil && zoom < *l.MinZoom {
		return false
	}
	if l.MaxZoom != nil && zoom >= *l.MaxZoom {
		return false
	}
	return true
}

// ZoomLevel returns a pointer for the optional minzoom/maxzoom fields.
func ZoomLevel(z float64) *float64 { return &z }

// Document is a complete style (style-spec version 8).
type Document struct {
	Version int               `json:"version"`
	Center  [2]float64        `json:"center"`
	Zoom    float64           `json:"zoom"`
	MaxZoom float64           `json:"maxZoom,omitempty"`
	Sources map[string]Source `json:"sources"`
	Layers  []Layer           `json:"layers"`
}
