package mapctl_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/rendis/geobounds/internal/engine/geo"
	"github.com/rendis/geobounds/internal/engine/mapctl"
	"github.com/rendis/geobounds/internal/engine/style"
)

func square(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}}
}

// fakeLoader serves in-memory datasets. A URL listed in gates blocks until
// its channel is closed.
type fakeLoader struct {
	mu       sync.Mutex
	datasets map[string]*geo.Dataset
	gates    map[string]chan struct{}
}

func (l *fakeLoader) Load(ctx context.Context, url string) (*geo.Dataset, error) {
	l.mu.Lock()
	gate := l.gates[url]
	ds, ok := l.datasets[url]
	l.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, errors.New("no such dataset")
	}
	return ds, nil
}

func franceDataset(url string) *geo.Dataset {
	return geo.NewDataset(url, []geo.Feature{
		{Geometry: square(-5, 41, 10, 51), Properties: map[string]any{"GID_0": "FRA", "NAME_0": "France"}},
		{Geometry: square(4, 43, 7, 45), Properties: map[string]any{"GID_0": "FRA", "GID_1": "FRA.1_1", "NAME_1": "Provence"}},
	})
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestEngine(loader mapctl.DatasetLoader, clk *clock) *mapctl.Engine {
	return mapctl.NewEngine(mapctl.EngineOptions{
		Center:  orb.Point{0, 20},
		Zoom:    2,
		MaxZoom: 14,
		Loader:  loader,
		Now:     clk.now,
	})
}

func waitIdle(t *testing.T, e *mapctl.Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
}

func TestEngine_Registry(t *testing.T) {
	e := newTestEngine(nil, &clock{t: time.Unix(0, 0)})
	defer e.Close()

	src := style.Source{Type: style.SourceVector, URL: "mem://fra"}
	if err := e.AddSource("a", src); err != nil {
		t.Fatal(err)
	}
	if err := e.AddSource("a", src); !errors.Is(err, mapctl.ErrSourceExists) {
		t.Errorf("duplicate source: %v", err)
	}
	if err := e.AddLayer(style.Layer{ID: "l", Type: style.LayerFill, Source: "missing"}); !errors.Is(err, mapctl.ErrSourceNotFound) {
		t.Errorf("layer on missing source: %v", err)
	}
	if err := e.AddLayer(style.Layer{ID: "l", Type: style.LayerFill, Source: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := e.AddLayer(style.Layer{ID: "l", Type: style.LayerLine, Source: "a"}); !errors.Is(err, mapctl.ErrLayerExists) {
		t.Errorf("duplicate layer: %v", err)
	}
	if err := e.RemoveSource("a"); !errors.Is(err, mapctl.ErrSourceInUse) {
		t.Errorf("removing used source: %v", err)
	}
	if err := e.SetFilter("nope", nil); !errors.Is(err, mapctl.ErrLayerNotFound) {
		t.Errorf("SetFilter on missing layer: %v", err)
	}
	if err := e.RemoveLayer("l"); err != nil {
		t.Fatal(err)
	}
	if err := e.RemoveLayer("l"); !errors.Is(err, mapctl.ErrLayerNotFound) {
		t.Errorf("second RemoveLayer: %v", err)
	}
	if err := e.RemoveSource("a"); err != nil {
		t.Fatal(err)
	}
	if e.HasSource("a") || e.HasLayer("l") {
		t.Error("registry not empty after removals")
	}
}

func TestEngine_ReadyIsIdempotent(t *testing.T) {
	e := newTestEngine(nil, &clock{})
	select {
	case <-e.Ready():
		t.Fatal("ready before MarkReady")
	default:
	}
	e.MarkReady()
	e.MarkReady()
	<-e.Ready()
}

func TestEngine_QueryRenderedFeatures(t *testing.T) {
	loader := &fakeLoader{datasets: map[string]*geo.Dataset{"mem://fra": franceDataset("mem://fra")}}
	e := newTestEngine(loader, &clock{})
	defer e.Close()

	if err := e.AddSource(mapctl.AdminSourceID, style.Source{Type: style.SourceVector, URL: "mem://fra"}); err != nil {
		t.Fatal(err)
	}
	if err := e.AddLayer(style.Layer{
		ID: mapctl.AdminFillLayerID, Type: style.LayerFill, Source: mapctl.AdminSourceID,
		SourceLayer: geo.DefaultSourceLayer, Filter: mapctl.LevelFilter(1),
	}); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, e)

	ev := <-e.Events()
	if ev.Kind != mapctl.EventSourceData || ev.SourceID != mapctl.AdminSourceID {
		t.Errorf("event = %+v", ev)
	}

	hits := e.QueryRenderedFeatures(orb.Point{5, 44}, mapctl.AdminFillLayerID)
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1 (level filter drops the country shape)", len(hits))
	}
	if hits[0].Attributes().Get("NAME_1") != "Provence" {
		t.Errorf("hit = %v", hits[0].Properties)
	}
	if hits := e.QueryRenderedFeatures(orb.Point{0, 48}, mapctl.AdminFillLayerID); len(hits) != 0 {
		t.Errorf("outside any level-1 region, got %d hits", len(hits))
	}

	if err := e.SetFilter(mapctl.AdminFillLayerID, mapctl.LevelFilter(0)); err != nil {
		t.Fatal(err)
	}
	if hits := e.QueryRenderedFeatures(orb.Point{5, 44}); len(hits) != 2 {
		t.Errorf("level 0 hits = %d, want 2", len(hits))
	}
}

func TestEngine_DiscardsStaleLoad(t *testing.T) {
	gate := make(chan struct{})
	loader := &fakeLoader{
		datasets: map[string]*geo.Dataset{
			"mem://old": geo.NewDataset("mem://old", []geo.Feature{
				{Geometry: square(0, 0, 1, 1), Properties: map[string]any{"GID_0": "OLD"}},
			}),
			"mem://new": geo.NewDataset("mem://new", []geo.Feature{
				{Geometry: square(0, 0, 1, 1), Properties: map[string]any{"GID_0": "NEW"}},
			}),
		},
		gates: map[string]chan struct{}{"mem://old": gate},
	}
	e := newTestEngine(loader, &clock{})
	defer e.Close()

	if err := e.AddSource("s", style.Source{Type: style.SourceVector, URL: "mem://old"}); err != nil {
		t.Fatal(err)
	}
	if err := e.RemoveSource("s"); err != nil {
		t.Fatal(err)
	}
	if err := e.AddSource("s", style.Source{Type: style.SourceVector, URL: "mem://new"}); err != nil {
		t.Fatal(err)
	}
	if err := e.AddLayer(style.Layer{ID: "f", Type: style.LayerFill, Source: "s", SourceLayer: geo.DefaultSourceLayer}); err != nil {
		t.Fatal(err)
	}

	// Let the new load land first, then release the old one.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for len(e.QueryRenderedFeatures(orb.Point{0.5, 0.5})) == 0 {
		if ctx.Err() != nil {
			t.Fatal("new dataset never loaded")
		}
		time.Sleep(time.Millisecond)
	}
	close(gate)
	waitIdle(t, e)

	hits := e.QueryRenderedFeatures(orb.Point{0.5, 0.5})
	if len(hits) != 1 || hits[0].Properties["GID_0"] != "NEW" {
		t.Errorf("hits = %+v, want the NEW feature only", hits)
	}
}

func TestEngine_LoadError(t *testing.T) {
	e := newTestEngine(&fakeLoader{}, &clock{})
	defer e.Close()

	if err := e.AddSource("s", style.Source{Type: style.SourceVector, URL: "mem://missing"}); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, e)
	ev := <-e.Events()
	if ev.Kind != mapctl.EventSourceError || ev.Err == nil {
		t.Errorf("event = %+v", ev)
	}
}

func TestEngine_FitBounds(t *testing.T) {
	clk := &clock{t: time.Unix(1000, 0)}
	e := newTestEngine(nil, clk)
	e.Resize(256, 192)

	b := orb.Bound{Min: orb.Point{-5, 41}, Max: orb.Point{10, 51}}
	e.FitBounds(b, mapctl.FitOptions{Padding: 50, Duration: time.Second})
	if !e.Animating() {
		t.Error("expected a transition in progress")
	}

	clk.t = clk.t.Add(500 * time.Millisecond)
	mid := e.Viewport().Camera.Zoom
	if mid <= 2 {
		t.Errorf("zoom halfway = %v, should be moving up from 2", mid)
	}

	clk.t = clk.t.Add(time.Second)
	if e.Animating() {
		t.Error("transition should be over")
	}
	vp := e.Viewport()
	if vp.Camera.Zoom <= mid || vp.Camera.Zoom > 14 {
		t.Errorf("final zoom = %v", vp.Camera.Zoom)
	}

	// Both corners land inside the padded viewport; one axis touches the padding.
	pad := 50 / mapctl.DotSize
	x0, y0 := vp.Project(orb.Point{b.Min.Lon(), b.Max.Lat()})
	x1, y1 := vp.Project(orb.Point{b.Max.Lon(), b.Min.Lat()})
	const eps = 1e-6
	if x0 < pad-eps || y0 < pad-eps || x1 > 256-pad+eps || y1 > 192-pad+eps {
		t.Errorf("corners (%.2f,%.2f)-(%.2f,%.2f) outside padded viewport", x0, y0, x1, y1)
	}
	if math.Abs(x0-pad) > 1e-3 && math.Abs(y0-pad) > 1e-3 {
		t.Errorf("fit is not tight: corner at (%.2f,%.2f)", x0, y0)
	}

	p := vp.Unproject(x0, y0)
	if math.Abs(p.Lon()-b.Min.Lon()) > 1e-6 || math.Abs(p.Lat()-b.Max.Lat()) > 1e-6 {
		t.Errorf("unproject round trip = %v", p)
	}
}

func TestEngine_FrameAndDocument(t *testing.T) {
	loader := &fakeLoader{datasets: map[string]*geo.Dataset{"mem://fra": franceDataset("mem://fra")}}
	e := newTestEngine(loader, &clock{})
	defer e.Close()
	e.MarkReady()

	ctrl := mapctl.NewController(e, mapctl.Options{
		BasemapTiles:       []string{"https://tile.example/{z}/{x}/{y}.png"},
		BasemapAttribution: "© OpenStreetMap contributors",
		OutlineURL:         "mem://fra",
		CountryURLTemplate: "mem://{feature_class}",
	})
	if _, err := ctrl.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.LoadAdminLevel("fra", 1); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, e)

	f := e.Frame()
	ids := make([]string, len(f.Layers))
	for i, l := range f.Layers {
		ids[i] = l.Layer.ID
	}
	want := []string{mapctl.BasemapLayerID, mapctl.HighlightLayerID, mapctl.AdminFillLayerID, mapctl.AdminLineLayerID}
	if len(ids) != len(want) {
		t.Fatalf("frame layers = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("frame layers = %v, want %v", ids, want)
		}
	}
	if n := len(f.Layers[2].Features); n != 1 {
		t.Errorf("fill features = %d, want 1", n)
	}
	zoom := f.Viewport.Camera.Zoom
	line := f.Layers[3].Layer.Paint
	if _, ok := line["line-width"].(float64); !ok {
		t.Errorf("frame line-width = %#v, want a number", line["line-width"])
	}
	for _, l := range e.Document().Layers {
		if l.ID != mapctl.AdminLineLayerID {
			continue
		}
		if _, ok := l.Paint["line-width"].(style.Expr); !ok {
			t.Errorf("document line-width = %#v, want an expression", l.Paint["line-width"])
		}
		if got, want := line.Number("line-width", 0, -1), l.Paint.Number("line-width", zoom, -2); got != want {
			t.Errorf("frame line-width = %v, want %v", got, want)
		}
	}
	if len(f.Attribution) != 1 || f.Controls[mapctl.ControlScale] != mapctl.BottomLeft {
		t.Errorf("attribution %v controls %v", f.Attribution, f.Controls)
	}

	doc := e.Document()
	if doc.Version != 8 || len(doc.Layers) != 4 || len(doc.Sources) != 3 {
		t.Errorf("document: version %d, %d layers, %d sources", doc.Version, len(doc.Layers), len(doc.Sources))
	}
	if doc.Sources[mapctl.AdminSourceID].URL != "mem://fra" {
		t.Errorf("admin source url = %q", doc.Sources[mapctl.AdminSourceID].URL)
	}
}

func TestEngine_Cursor(t *testing.T) {
	e := newTestEngine(nil, &clock{})
	e.SetCursor(mapctl.CursorPointer)
	if e.Cursor() != mapctl.CursorPointer {
		t.Error("cursor not set")
	}
	e.SetCursor(mapctl.CursorDefault)
	if e.Frame().Cursor != mapctl.CursorDefault {
		t.Error("cursor not reset")
	}
}

func TestViewport_ProjectRoundTrip(t *testing.T) {
	vp := mapctl.Viewport{
		Camera: mapctl.Camera{Center: orb.Point{2, 46}, Zoom: 5},
		Width:  200,
		Height: 120,
	}

	x, y := vp.Project(orb.Point{2, 46})
	if math.Abs(x-100) > 1e-6 || math.Abs(y-60) > 1e-6 {
		t.Errorf("center projects to %.4f,%.4f, want 100,60", x, y)
	}

	for _, p := range []orb.Point{{-5, 42}, {8, 51}, {2.35, 48.85}} {
		x, y := vp.Project(p)
		got := vp.Unproject(x, y)
		if math.Abs(got.Lon()-p.Lon()) > 1e-9 || math.Abs(got.Lat()-p.Lat()) > 1e-9 {
			t.Errorf("round trip %v -> %v", p, got)
		}
	}

	// Zoom 0 at 128x128 dots is exactly one 512px world; the pole clamps to the top edge.
	world := mapctl.Viewport{Camera: mapctl.Camera{Center: orb.Point{0, 0}}, Width: 128, Height: 128}
	if x, y := world.Project(orb.Point{180, 89.9}); math.Abs(x-128) > 1e-6 || math.Abs(y) > 1e-6 {
		t.Errorf("corner projects to %.6f,%.6f, want 128,0", x, y)
	}
}
