package mapctl

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rendis/geobounds/internal/engine/geo"
	"github.com/rendis/geobounds/internal/engine/style"
	"github.com/rendis/geobounds/internal/model"
)

// Source and layer ids owned by the controller.
const (
	BasemapSourceID   = "osm"
	BasemapLayerID    = "osm-tiles"
	OutlineSourceID   = "country-outlines"
	HighlightLayerID  = "country-highlight"
	AdminSourceID     = "admin-boundaries"
	AdminFillLayerID  = "admin-boundaries-fill"
	AdminLineLayerID  = "admin-boundaries-line"
	featureClassToken = "{feature_class}"
)

const (
	fitPadding  = 50
	fitDuration = time.Second
)

// Options locate the datasets the controller points sources at.
type Options struct {
	BasemapTiles       []string
	BasemapAttribution string
	OutlineURL         string
	// CountryURLTemplate contains {feature_class}.
	CountryURLTemplate string
	SourceLayer        string
	Logger             logrus.FieldLogger
}

// Controller is the sole owner of the viewport's layer stack.
type Controller struct {
	store LayerStore
	opts  Options
	log   logrus.FieldLogger
}

func NewController(store LayerStore, opts Options) *Controller {
	if opts.SourceLayer == "" {
		opts.SourceLayer = geo.DefaultSourceLayer
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	return &Controller{store: store, opts: opts, log: opts.Logger}
}

// Initialize sets up the basemap and controls, waits for the viewport to be
// ready, then adds the hidden country outline layer.
func (c *Controller) Initialize(ctx context.Context) (LayerStore, error) {
	if err := c.store.AddSource(BasemapSourceID, style.Source{
		Type:        style.SourceRaster,
		Tiles:       c.opts.BasemapTiles,
		TileSize:    256,
		Attribution: c.opts.BasemapAttribution,
	}); err != nil {
		return nil, fmt.Errorf("adding basemap source: %w", err)
	}
	if err := c.store.AddLayer(style.Layer{
		ID:      BasemapLayerID,
		Type:    style.LayerRaster,
		Source:  BasemapSourceID,
		MinZoom: style.ZoomLevel(0),
		MaxZoom: style.ZoomLevel(19),
	}); err != nil {
		return nil, fmt.Errorf("adding basemap layer: %w", err)
	}
	c.store.AddControl(ControlNavigation, TopRight)
	c.store.AddControl(ControlScale, BottomLeft)

	select {
	case <-c.store.Ready():
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for map: %w", ctx.Err())
	}

	if err := c.store.AddSource(OutlineSourceID, style.Source{
		Type: style.SourceVector,
		URL:  c.opts.OutlineURL,
	}); err != nil {
		return nil, fmt.Errorf("adding outline source: %w", err)
	}
	if err := c.store.AddLayer(style.Layer{
		ID:          HighlightLayerID,
		Type:        style.LayerLine,
		Source:      OutlineSourceID,
		SourceLayer: c.opts.SourceLayer,
		Paint: style.Paint{
			"line-color":   "#FFD700",
			"line-width":   4.0,
			"line-opacity": 0.0,
		},
	}); err != nil {
		return nil, fmt.Errorf("adding highlight layer: %w", err)
	}

	c.log.Info("map initialized")
	return c.store, nil
}

// ZoomToCountry starts a transition to bounds. It does not wait for it.
func (c *Controller) ZoomToCountry(b model.Bounds) {
	c.store.FitBounds(b.Bound(), FitOptions{Padding: fitPadding, Duration: fitDuration})
}

// SetHighlight shows the outline of the country named displayName.
func (c *Controller) SetHighlight(displayName string) error {
	if err := c.store.SetPaintProperty(HighlightLayerID, "line-opacity", 1.0); err != nil {
		return err
	}
	return c.store.SetFilter(HighlightLayerID, style.Eq(style.Get("NAME_0"), displayName))
}

// LoadAdminLevel replaces the displayed admin layer pair with the one for
// featureClass at level.
func (c *Controller) LoadAdminLevel(featureClass string, level int) error {
	if err := c.removeAdminLayers(); err != nil {
		return err
	}

	url := c.SourceURL(featureClass)
	if err := c.store.AddSource(AdminSourceID, style.Source{Type: style.SourceVector, URL: url}); err != nil {
		return fmt.Errorf("adding admin source: %w", err)
	}

	filter := LevelFilter(level)
	fill := style.Layer{
		ID:          AdminFillLayerID,
		Type:        style.LayerFill,
		Source:      AdminSourceID,
		SourceLayer: c.opts.SourceLayer,
		Filter:      filter,
		Paint: style.Paint{
			"fill-color": style.InterpolateLinear(style.Zoom(),
				style.Stop{Zoom: 3, Value: "rgba(66, 135, 245, 0.2)"},
				style.Stop{Zoom: 10, Value: "rgba(66, 135, 245, 0.4)"},
			),
			"fill-opacity": 0.6,
		},
	}
	line := style.Layer{
		ID:          AdminLineLayerID,
		Type:        style.LayerLine,
		Source:      AdminSourceID,
		SourceLayer: c.opts.SourceLayer,
		Filter:      filter,
		Paint: style.Paint{
			"line-color": "#2563eb",
			"line-width": style.InterpolateLinear(style.Zoom(),
				style.Stop{Zoom: 3, Value: 0.5},
				style.Stop{Zoom: 10, Value: 2.0},
			),
		},
	}
	if err := c.store.AddLayer(fill); err != nil {
		return fmt.Errorf("adding fill layer: %w", err)
	}
	if err := c.store.AddLayer(line); err != nil {
		return fmt.Errorf("adding line layer: %w", err)
	}

	c.log.WithFields(logrus.Fields{"feature_class": featureClass, "level": level}).Info("admin level loaded")
	return nil
}

// ClearAdminLevels removes the admin layer pair, if any, and hides the
// country outline.
func (c *Controller) ClearAdminLevels() error {
	if err := c.removeAdminLayers(); err != nil {
		return err
	}
	if !c.store.HasLayer(HighlightLayerID) {
		return nil
	}
	return c.store.SetPaintProperty(HighlightLayerID, "line-opacity", 0.0)
}

func (c *Controller) removeAdminLayers() error {
	for _, id := range []string{AdminFillLayerID, AdminLineLayerID} {
		if !c.store.HasLayer(id) {
			continue
		}
		if err := c.store.RemoveLayer(id); err != nil {
			return fmt.Errorf("removing %s: %w", id, err)
		}
	}
	if c.store.HasSource(AdminSourceID) {
		if err := c.store.RemoveSource(AdminSourceID); err != nil {
			return fmt.Errorf("removing %s: %w", AdminSourceID, err)
		}
	}
	return nil
}

// SourceURL expands the country dataset template for featureClass.
func (c *Controller) SourceURL(featureClass string) string {
	return strings.ReplaceAll(c.opts.CountryURLTemplate, featureClassToken, featureClass)
}

// LevelFilter keeps the features that carry data at level: every feature
// with a country code at level 0, and features with a non-empty GID_n
// otherwise.
func LevelFilter(level int) style.Expr {
	if level <= 0 {
		return style.Has("GID_0")
	}
	field := fmt.Sprintf("GID_%d", level)
	return style.All(
		style.Has(field),
		style.Neq(style.Get(field), ""),
		style.Neq(style.Get(field), nil),
	)
}

var _ LayerStore = (*Engine)(nil)

