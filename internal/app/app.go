// Package app wires user events to the map and UI controllers and owns the
// explorer session.
package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/rendis/geobounds/internal/engine/mapctl"
	"github.com/rendis/geobounds/internal/model"
)

var ErrUnknownCountry = errors.New("unknown country")

// MapController is the subset of mapctl.Controller the explorer drives.
type MapController interface {
	ZoomToCountry(b model.Bounds)
	SetHighlight(displayName string) error
	LoadAdminLevel(featureClass string, level int) error
	ClearAdminLevels() error
}

// Viewport answers pointer queries.
type Viewport interface {
	QueryRenderedFeatures(p orb.Point, layerIDs ...string) []mapctl.RenderedFeature
	SetCursor(c mapctl.Cursor)
}

// View is the widget surface; *ui.Surface implements it.
type View interface {
	PopulateCountrySelector(cat model.Catalog)
	RenderLevelButtons(maxLevel int, onClick func(level int))
	SetActiveLevel(level int)
	ShowCountryInfo(cfg model.CountryConfig)
	HideLevelButtons()
	ShowFeaturePanel(attrs model.Attributes, level int)
	HideFeaturePanel()
}

type Controller struct {
	catalog  model.Catalog
	maps     MapController
	viewport Viewport
	view     View
	log      logrus.FieldLogger

	session  model.Session
	hovering bool
}

func NewController(cat model.Catalog, maps MapController, vp Viewport, view View, log logrus.FieldLogger) *Controller {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Controller{catalog: cat, maps: maps, viewport: vp, view: view, log: log}
}

// Session returns a copy of the current session.
func (c *Controller) Session() model.Session {
	return c.session
}

// Start fills the country selector.
func (c *Controller) Start() {
	c.view.PopulateCountrySelector(c.catalog)
	c.log.Infof("explorer started with %d countries", len(c.catalog))
}

// SelectCountry handles a selector change. The empty id clears the selection.
func (c *Controller) SelectCountry(id string) error {
	if id == "" {
		if err := c.maps.ClearAdminLevels(); err != nil {
			return fmt.Errorf("clearing admin levels: %w", err)
		}
		c.view.HideLevelButtons()
		c.session = model.Session{}
		c.log.Debug("selection cleared")
		return nil
	}

	cfg, ok := c.catalog.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCountry, id)
	}

	// Drop the previous country's admin layers so the map matches level 0.
	if err := c.maps.ClearAdminLevels(); err != nil {
		return fmt.Errorf("clearing admin levels: %w", err)
	}
	c.session = model.Session{Country: &cfg, Level: 0}

	c.maps.ZoomToCountry(cfg.Bounds)
	if err := c.maps.SetHighlight(cfg.DisplayName); err != nil {
		return fmt.Errorf("highlighting %s: %w", cfg.DisplayName, err)
	}
	c.view.RenderLevelButtons(cfg.MaxAdminLevel, c.ClickLevel)
	c.view.ShowCountryInfo(cfg)

	c.log.WithFields(logrus.Fields{"country": id, "levels": cfg.MaxAdminLevel}).Info("country selected")
	return nil
}

// ClickLevel handles a level button. It does nothing without a country or
// for a level the country does not have.
func (c *Controller) ClickLevel(level int) {
	if !c.session.HasCountry() {
		return
	}
	if level < 0 || level > c.session.Country.MaxAdminLevel {
		c.log.Warnf("ignoring level %d for %s", level, c.session.Country.ID)
		return
	}

	c.session.Level = level
	c.view.SetActiveLevel(level)
	if err := c.maps.LoadAdminLevel(c.session.Country.FeatureClass, level); err != nil {
		c.log.WithError(err).Errorf("loading level %d", level)
	}
}

// ClickMap shows the first admin feature under p, if any.
func (c *Controller) ClickMap(p orb.Point) bool {
	hits := c.viewport.QueryRenderedFeatures(p, mapctl.AdminFillLayerID)
	if len(hits) == 0 {
		return false
	}
	c.view.ShowFeaturePanel(hits[0].Attributes(), c.session.Level)
	return true
}

// Hover toggles the pointer cursor as p enters or leaves the admin fill layer.
func (c *Controller) Hover(p orb.Point) {
	over := len(c.viewport.QueryRenderedFeatures(p, mapctl.AdminFillLayerID)) > 0
	if over == c.hovering {
		return
	}
	c.hovering = over
	if over {
		c.viewport.SetCursor(mapctl.CursorPointer)
	} else {
		c.viewport.SetCursor(mapctl.CursorDefault)
	}
}

// ClosePanel is the feature panel's close control.
func (c *Controller) ClosePanel() {
	c.view.HideFeaturePanel()
}
