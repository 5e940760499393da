package main

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"

	"github.com/rendis/geobounds/internal/engine/mapctl"
)

const testCatalog = `{
  "FRA": {"display_name": "France", "bounds": [-5, 42, 8, 51], "feature_class": "fra", "max_admin_level": 2, "feature_count": 2}
}`

const testOutlines = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "properties": {"NAME_0": "France", "GID_0": "FRA"},
   "geometry": {"type": "Polygon", "coordinates": [[[-5, 42], [8, 42], [8, 51], [-5, 51], [-5, 42]]]}}
]}`

const testFrance = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "properties": {"GID_0": "FRA", "NAME_0": "France", "GID_1": "FRA.1_1", "NAME_1": "West", "TYPE_1": "Région"},
   "geometry": {"type": "Polygon", "coordinates": [[[-5, 42], [1, 42], [1, 51], [-5, 51], [-5, 42]]]}},
  {"type": "Feature", "properties": {"GID_0": "FRA", "NAME_0": "France", "GID_1": "FRA.2_1", "NAME_1": "East", "TYPE_1": "Région"},
   "geometry": {"type": "Polygon", "coordinates": [[[1, 42], [8, 42], [8, 51], [1, 51], [1, 42]]]}}
]}`

const testConfig = `
log:
  dir: ""
cache:
  path: cache.db
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, "data/countries_config.json", testCatalog)
	writeFile(t, "data/country_outlines.geojson", testOutlines)
	writeFile(t, "data/countries/fra.geojson", testFrance)
	writeFile(t, "geobounds.yaml", testConfig)

	e, err := setup(filepath.Join(dir, "geobounds.yaml"))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestOpenExplorer_Inspect(t *testing.T) {
	e := testEnv(t)

	x, err := e.openExplorer(context.Background(), 256, 192, "FRA", 1)
	if err != nil {
		t.Fatalf("openExplorer: %v", err)
	}
	defer x.Close()

	if !x.ctl.ClickMap(orb.Point{4, 46}) {
		t.Fatal("expected a feature under 4,46")
	}
	p := x.surface.Panel
	if p.Title != "East" {
		t.Errorf("title = %q, want East", p.Title)
	}
	if len(p.Rows) == 0 || p.Rows[0].Value != "France" {
		t.Errorf("rows = %+v", p.Rows)
	}
	if x.ctl.ClickMap(orb.Point{40, 10}) {
		t.Error("expected no feature outside France")
	}
}

func TestOpenExplorer_Style(t *testing.T) {
	e := testEnv(t)

	x, err := e.openExplorer(context.Background(), 256, 192, "FRA", 2)
	if err != nil {
		t.Fatalf("openExplorer: %v", err)
	}
	defer x.Close()

	doc := x.engine.Document()
	if vp := x.engine.Viewport(); vp.Width != 64 || vp.Height != 48 {
		t.Errorf("viewport = %dx%d dots, want 64x48", vp.Width, vp.Height)
	}
	var ids []string
	for _, l := range doc.Layers {
		ids = append(ids, l.ID)
	}
	want := []string{mapctl.BasemapLayerID, mapctl.HighlightLayerID, mapctl.AdminFillLayerID, mapctl.AdminLineLayerID}
	if len(ids) != len(want) {
		t.Fatalf("layers = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("layers[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
	if src, ok := doc.Sources[mapctl.AdminSourceID]; !ok || src.URL != "data/countries/fra.geojson" {
		t.Errorf("admin source = %+v", src)
	}
}

func TestOpenExplorer_ZoomMatchesPixelViewport(t *testing.T) {
	e := testEnv(t)

	x, err := e.openExplorer(context.Background(), 1024, 768, "FRA", -1)
	if err != nil {
		t.Fatalf("openExplorer: %v", err)
	}
	defer x.Close()

	if vp := x.engine.Viewport(); vp.Width != 256 || vp.Height != 192 {
		t.Errorf("viewport = %dx%d dots, want 256x192", vp.Width, vp.Height)
	}
	// France [-5, 42, 8, 51] fitted into 1024x768 px with 50 px padding.
	if z := x.engine.Document().Zoom; math.Abs(z-5.162) > 0.01 {
		t.Errorf("zoom = %.3f, want 5.162", z)
	}
}

func TestOpenExplorer_Errors(t *testing.T) {
	e := testEnv(t)

	if _, err := e.openExplorer(context.Background(), 256, 192, "XXX", -1); err == nil {
		t.Error("expected unknown country error")
	}
	if _, err := e.openExplorer(context.Background(), 256, 192, "FRA", 3); err == nil {
		t.Error("expected missing level error")
	}
}
