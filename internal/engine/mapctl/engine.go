package mapctl

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/rendis/geobounds/internal/engine/geo"
	"github.com/rendis/geobounds/internal/engine/style"
)

const (
	defaultWidth  = 256 // dots, 1024 CSS px
	defaultHeight = 192
)

// EventKind tells the host loop what changed inside the engine.
type EventKind int

const (
	EventSourceData EventKind = iota
	EventSourceError
	EventMove
)

// Event is delivered on Engine.Events.
type Event struct {
	Kind     EventKind
	SourceID string
	Err      error
}

// DatasetLoader resolves a vector source URL to its features.
type DatasetLoader interface {
	Load(ctx context.Context, rawURL string) (*geo.Dataset, error)
}

// EngineOptions mirror the constructor arguments of a map viewport.
type EngineOptions struct {
	Center  orb.Point
	Zoom    float64
	MaxZoom float64
	Loader  DatasetLoader
	Logger  logrus.FieldLogger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type sourceEntry struct {
	spec    style.Source
	gen     uint64
	data    *geo.Dataset
	loading bool
	err     error
}

// RenderedFeature is a query hit.
type RenderedFeature struct {
	LayerID string
	geo.Feature
}

// FrameLayer is one visible layer with paint evaluated at the frame zoom.
type FrameLayer struct {
	Layer    style.Layer
	Features []geo.Feature
}

// Frame is a render snapshot.
type Frame struct {
	Viewport
	Cursor      Cursor
	Layers      []FrameLayer
	Controls    map[Control]Position
	Attribution []string
	Loading     []string
}

// Engine is the in-process map viewport. It is safe for concurrent use:
// dataset loads finish on their own goroutines.
type Engine struct {
	mu       sync.Mutex
	sources  map[string]*sourceEntry
	layers   []style.Layer
	controls map[Control]Position
	cursor   Cursor
	gen      uint64

	width, height int
	maxZoom       float64
	move          transition

	ready     chan struct{}
	readyOnce sync.Once
	events    chan Event

	loader   DatasetLoader
	log      logrus.FieldLogger
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

func NewEngine(opts EngineOptions) *Engine {
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = 14
	}
	ctx, cancel := context.WithCancel(context.Background())
	start := Camera{Center: opts.Center, Zoom: opts.Zoom}

	return &Engine{
		sources:  make(map[string]*sourceEntry),
		controls: make(map[Control]Position),
		width:    defaultWidth,
		height:   defaultHeight,
		maxZoom:  opts.MaxZoom,
		move:     transition{from: start, to: start},
		ready:    make(chan struct{}),
		events:   make(chan Event, 64),
		loader:   opts.Loader,
		log:      opts.Logger,
		now:      opts.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Events delivers source and camera notifications to the host loop.
func (e *Engine) Events() <-chan Event { return e.events }

func (e *Engine) Ready() <-chan struct{} { return e.ready }

// MarkReady signals that the viewport can take mutations. Idempotent.
func (e *Engine) MarkReady() {
	e.readyOnce.Do(func() { close(e.ready) })
}

// Close cancels in-flight dataset loads.
func (e *Engine) Close() {
	e.cancel()
}

// WaitIdle blocks until every in-flight dataset load has finished.
func (e *Engine) WaitIdle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resize sets the viewport size in dots.
func (e *Engine) Resize(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if width > 0 {
		e.width = width
	}
	if height > 0 {
		e.height = height
	}
}

func (e *Engine) AddSource(id string, src style.Source) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.sources[id]; ok {
		return fmt.Errorf("%w: %s", ErrSourceExists, id)
	}
	e.gen++
	entry := &sourceEntry{spec: src, gen: e.gen}
	e.sources[id] = entry

	if src.Type == style.SourceVector && src.URL != "" && e.loader != nil {
		entry.loading = true
		e.inflight.Add(1)
		go e.load(id, entry.gen, src.URL)
	}
	return nil
}

// load fetches a source's dataset. Results for a source that was removed or
// replaced in the meantime are dropped.
func (e *Engine) load(id string, gen uint64, url string) {
	defer e.inflight.Done()
	log := e.log.WithFields(logrus.Fields{"source": id, "url": url})

	ds, err := e.loader.Load(e.ctx, url)

	e.mu.Lock()
	entry, ok := e.sources[id]
	if !ok || entry.gen != gen {
		e.mu.Unlock()
		log.Debug("discarding stale dataset load")
		return
	}
	entry.loading = false
	entry.data = ds
	entry.err = err
	e.mu.Unlock()

	if err != nil {
		log.Errorf("dataset load failed: %v", err)
		e.emit(Event{Kind: EventSourceError, SourceID: id, Err: err})
		return
	}
	log.Infof("dataset loaded: %d features", ds.Len())
	e.emit(Event{Kind: EventSourceData, SourceID: id})
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.log.Warnf("event queue full, dropping event %d for %q", ev.Kind, ev.SourceID)
	}
}

func (e *Engine) RemoveSource(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.sources[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	for _, l := range e.layers {
		if l.Source == id {
			return fmt.Errorf("%w: %s by %s", ErrSourceInUse, id, l.ID)
		}
	}
	delete(e.sources, id)
	return nil
}

func (e *Engine) HasSource(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sources[id]
	return ok
}

func (e *Engine) AddLayer(layer style.Layer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.layerIndex(layer.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrLayerExists, layer.ID)
	}
	if layer.Source != "" {
		if _, ok := e.sources[layer.Source]; !ok {
			return fmt.Errorf("layer %s: %w: %s", layer.ID, ErrSourceNotFound, layer.Source)
		}
	}
	e.layers = append(e.layers, layer.Clone())
	return nil
}

func (e *Engine) RemoveLayer(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.layerIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	e.layers = slices.Delete(e.layers, i, i+1)
	return nil
}

func (e *Engine) HasLayer(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layerIndex(id) >= 0
}

func (e *Engine) SetFilter(layerID string, filter style.Expr) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.layerIndex(layerID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, layerID)
	}
	e.layers[i].Filter = filter
	return nil
}

func (e *Engine) SetPaintProperty(layerID, name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.layerIndex(layerID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, layerID)
	}
	if e.layers[i].Paint == nil {
		e.layers[i].Paint = style.Paint{}
	}
	e.layers[i].Paint[name] = value
	return nil
}

func (e *Engine) layerIndex(id string) int {
	return slices.IndexFunc(e.layers, func(l style.Layer) bool { return l.ID == id })
}

// Layer returns a copy of the layer with id.
func (e *Engine) Layer(id string) (style.Layer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.layerIndex(id)
	if i < 0 {
		return style.Layer{}, false
	}
	return e.layers[i].Clone(), true
}

// LayerIDs lists layers bottom to top.
func (e *Engine) LayerIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, len(e.layers))
	for i, l := range e.layers {
		ids[i] = l.ID
	}
	return ids
}

// Document exports the current sources and layers as a style document.
func (e *Engine) Document() style.Document {
	e.mu.Lock()
	defer e.mu.Unlock()

	cam := e.move.at(e.now())
	doc := style.Document{
		Version: 8,
		Center:  [2]float64{cam.Center.Lon(), cam.Center.Lat()},
		Zoom:    cam.Zoom,
		MaxZoom: e.maxZoom,
		Sources: make(map[string]style.Source, len(e.sources)),
		Layers:  make([]style.Layer, len(e.layers)),
	}
	for id, s := range e.sources {
		doc.Sources[id] = s.spec
	}
	for i, l := range e.layers {
		doc.Layers[i] = l.Clone()
	}
	return doc
}

func (e *Engine) AddControl(c Control, pos Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.controls[c] = pos
}

// FitBounds starts a transition to the camera that fits b.
func (e *Engine) FitBounds(b orb.Bound, opts FitOptions) {
	e.mu.Lock()
	now := e.now()
	target := fitCamera(b, e.width, e.height, opts.Padding, e.maxZoom)
	e.move = transition{from: e.move.at(now), to: target, start: now, duration: opts.Duration}
	e.mu.Unlock()

	e.log.Debugf("fit bounds %v -> center %v zoom %.2f", b, target.Center, target.Zoom)
	e.emit(Event{Kind: EventMove})
}

// ZoomBy changes the zoom immediately, clamped to [0, maxZoom].
func (e *Engine) ZoomBy(delta float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cam := e.move.at(e.now())
	cam.Zoom += delta
	if cam.Zoom < 0 {
		cam.Zoom = 0
	}
	if cam.Zoom > e.maxZoom {
		cam.Zoom = e.maxZoom
	}
	e.move = transition{from: cam, to: cam}
}

// PanBy moves the camera by a number of dots.
func (e *Engine) PanBy(dx, dy float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	vp := Viewport{Camera: e.move.at(e.now()), Width: e.width, Height: e.height}
	center := vp.Unproject(float64(e.width)/2+dx, float64(e.height)/2+dy)
	cam := Camera{Center: center, Zoom: vp.Camera.Zoom}
	e.move = transition{from: cam, to: cam}
}

// Viewport returns the current projection.
func (e *Engine) Viewport() Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Viewport{Camera: e.move.at(e.now()), Width: e.width, Height: e.height}
}

// Animating reports whether a camera transition is in progress.
func (e *Engine) Animating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.move.done(e.now())
}

func (e *Engine) SetCursor(c Cursor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursor = c
}

func (e *Engine) Cursor() Cursor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// QueryRenderedFeatures returns the features under p, topmost layer first.
// With no layer ids every fill layer is queried.
func (e *Engine) QueryRenderedFeatures(p orb.Point, layerIDs ...string) []RenderedFeature {
	e.mu.Lock()
	defer e.mu.Unlock()

	zoom := e.move.at(e.now()).Zoom
	var hits []RenderedFeature
	for i := len(e.layers) - 1; i >= 0; i-- {
		l := e.layers[i]
		if len(layerIDs) > 0 && !slices.Contains(layerIDs, l.ID) {
			continue
		}
		if l.Type != style.LayerFill || !l.VisibleAt(zoom) {
			continue
		}
		src, ok := e.sources[l.Source]
		if !ok || src.data == nil {
			continue
		}
		filter := l.Filter
		for _, f := range geo.FeaturesAt(src.data.Layer(l.SourceLayer), p, func(f geo.Feature) bool {
			return filter.Matches(f.Properties)
		}) {
			hits = append(hits, RenderedFeature{LayerID: l.ID, Feature: f})
		}
	}
	return hits
}

// Frame snapshots everything a renderer needs.
func (e *Engine) Frame() Frame {
	e.mu.Lock()
	defer e.mu.Unlock()

	vp := Viewport{Camera: e.move.at(e.now()), Width: e.width, Height: e.height}
	f := Frame{
		Viewport: vp,
		Cursor:   e.cursor,
		Controls: maps.Clone(e.controls),
	}
	for id, s := range e.sources {
		if s.spec.Attribution != "" {
			f.Attribution = append(f.Attribution, s.spec.Attribution)
		}
		if s.loading {
			f.Loading = append(f.Loading, id)
		}
	}
	slices.Sort(f.Attribution)
	slices.Sort(f.Loading)

	for _, l := range e.layers {
		if !l.VisibleAt(vp.Camera.Zoom) {
			continue
		}
		fl := FrameLayer{Layer: l.Clone()}
		fl.Layer.Paint = l.Paint.At(vp.Camera.Zoom)
		if src, ok := e.sources[l.Source]; ok && src.data != nil {
			for _, feat := range src.data.Layer(l.SourceLayer) {
				if l.Filter.Matches(feat.Properties) {
					fl.Features = append(fl.Features, feat)
				}
			}
		}
		f.Layers = append(f.Layers, fl)
	}
	return f
}
