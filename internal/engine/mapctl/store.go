// Package mapctl owns the map viewport: the LayerStore capability the map
// controller mutates, the in-process Engine implementing it, and the
// Controller translating "show level 2 of France" into style records.
package mapctl

import (
	"errors"
	"time"

	"github.com/paulmach/orb"

	"github.com/rendis/geobounds/internal/engine/style"
)

var (
	ErrSourceExists   = errors.New("source already exists")
	ErrSourceNotFound = errors.New("source not found")
	ErrSourceInUse    = errors.New("source is used by a layer")
	ErrLayerExists    = errors.New("layer already exists")
	ErrLayerNotFound  = errors.New("layer not found")
)

// Control is a viewport widget.
type Control string

const (
	ControlNavigation Control = "navigation"
	ControlScale      Control = "scale"
)

// Position anchors a control to a viewport corner.
type Position string

const (
	TopRight   Position = "top-right"
	BottomLeft Position = "bottom-left"
)

// Cursor is the pointer affordance over the map.
type Cursor string

const (
	CursorDefault Cursor = ""
	CursorPointer Cursor = "pointer"
)

// FitOptions controls a FitBounds transition.
type FitOptions struct {
	Padding  float64 // CSS pixels on every side
	Duration time.Duration
}

// LayerStore is the source/layer registry of a map viewport.
// Removing an id that does not exist is an error; callers check Has* first.
type LayerStore interface {
	AddSource(id string, src style.Source) error
	RemoveSource(id string) error
	HasSource(id string) bool

	AddLayer(layer style.Layer) error
	RemoveLayer(id string) error
	HasLayer(id string) bool

	SetFilter(layerID string, filter style.Expr) error
	SetPaintProperty(layerID, name string, value any) error

	FitBounds(b orb.Bound, opts FitOptions)
	AddControl(c Control, pos Position)

	// Ready is closed once the viewport accepts source and layer mutations.
	Ready() <-chan struct{}
}
