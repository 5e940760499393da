package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rendis/geobounds/internal/app"
	"github.com/rendis/geobounds/internal/engine/mapctl"
	"github.com/rendis/geobounds/internal/ui"
)

// headlessTimeout bounds dataset loading for the non-interactive commands.
const (
	headlessTimeout = 2 * time.Minute
	settlePoll      = 20 * time.Millisecond
)

// explorer is an explorer session without a terminal: the same engine,
// controllers and widget surface the TUI drives.
type explorer struct {
	engine  *mapctl.Engine
	surface *ui.Surface
	ctl     *app.Controller
}

// openExplorer initializes the map at the given viewport size in CSS pixels,
// selects country if set and presses level when it is >= 0, then waits for
// the datasets.
func (e *env) openExplorer(ctx context.Context, widthPx, heightPx int, country string, level int) (*explorer, error) {
	ctx, cancel := context.WithTimeout(ctx, headlessTimeout)
	defer cancel()

	cat, err := e.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	engine := e.newEngine()
	engine.Resize(dots(widthPx), dots(heightPx))
	engine.MarkReady()

	maps := e.newMapController(engine)
	if _, err := maps.Initialize(ctx); err != nil {
		engine.Close()
		return nil, err
	}

	surface := ui.NewSurface(e.cfg.UI.Locale)
	ctl := app.NewController(cat, maps, engine, surface, e.log.Component("app"))
	ctl.Start()

	x := &explorer{engine: engine, surface: surface, ctl: ctl}
	if country != "" {
		if err := ctl.SelectCountry(country); err != nil {
			engine.Close()
			return nil, err
		}
		if level >= 0 && !surface.PressLevel(level) {
			engine.Close()
			return nil, fmt.Errorf("%s has no admin level %d", country, level)
		}
	}
	if err := x.settle(ctx); err != nil {
		engine.Close()
		return nil, err
	}
	return x, nil
}

// dots converts CSS pixels to braille dots, the engine's viewport unit.
func dots(px int) int {
	return max(int(float64(px)/mapctl.DotSize), 1)
}

// settle waits for dataset loads and the camera transition, then reports
// the first load error.
func (x *explorer) settle(ctx context.Context) error {
	if err := x.engine.WaitIdle(ctx); err != nil {
		return fmt.Errorf("waiting for datasets: %w", err)
	}
	for x.engine.Animating() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for camera: %w", ctx.Err())
		case <-time.After(settlePoll):
		}
	}
	for {
		select {
		case ev := <-x.engine.Events():
			if ev.Kind == mapctl.EventSourceError {
				return fmt.Errorf("loading %s: %w", ev.SourceID, ev.Err)
			}
		default:
			return nil
		}
	}
}

func (x *explorer) Close() {
	x.engine.Close()
}
