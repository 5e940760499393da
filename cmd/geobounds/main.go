package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/paulmach/orb"
	"github.com/rendis/geobounds/internal/config"
	"github.com/rendis/geobounds/internal/engine/catalog"
	"github.com/rendis/geobounds/internal/engine/fetch"
	"github.com/rendis/geobounds/internal/engine/geo"
	"github.com/rendis/geobounds/internal/engine/mapctl"
	"github.com/rendis/geobounds/internal/engine/storage"
	"github.com/rendis/geobounds/internal/logging"
	"github.com/rendis/geobounds/internal/model"
	"github.com/rendis/geobounds/internal/tui"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		var err error
		switch os.Args[1] {
		case "style":
			err = runStyle(os.Args[2:])
		case "inspect":
			err = runInspect(os.Args[2:])
		case "prefetch":
			err = runPrefetch(os.Args[2:])
		case "version":
			fmt.Println("geobounds " + version)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		default:
			err = runExplorer(os.Args[1:])
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// No subcommand → launch TUI
	if err := runExplorer(nil); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `geobounds - administrative boundary explorer

Usage:
  geobounds [-config file]      Launch interactive explorer
  geobounds style [flags]       Print the map style for a country/level
  geobounds inspect [flags]     Print the feature panel at a point
  geobounds prefetch [flags]    Download datasets into the local cache
  geobounds version             Show version

Run 'geobounds <command> --help' for flags.
`)
}

// env is what every command shares: config, session logger, dataset cache
// and the loader on top of the HTTP client.
type env struct {
	cfg    *config.Config
	log    *logging.Session
	cache  *storage.Store
	loader *geo.Loader
}

func setup(configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	cache, err := storage.NewStore(cfg.Cache.Path)
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	client := fetch.NewClient(fetch.Options{
		ProxyURL: cfg.Fetch.Proxy,
		Timeout:  cfg.Fetch.Timeout,
		Retries:  cfg.Fetch.Retries,
		Logger:   log.Component("fetch"),
	})
	loader := geo.NewLoader(client, cache, cfg.Cache.TTL, log.Component("geo"))

	log.WithField("cache", cfg.Cache.Path).Info("session start")
	return &env{cfg: cfg, log: log, cache: cache, loader: loader}, nil
}

func (e *env) Close() {
	if err := e.cache.Close(); err != nil {
		e.log.WithError(err).Warn("closing cache")
	}
	e.log.Info("session end")
	_ = e.log.Close()
}

func (e *env) loadCatalog(ctx context.Context) (model.Catalog, error) {
	return catalog.Load(ctx, e.cfg.Catalog.Source, e.loader)
}

func (e *env) newEngine() *mapctl.Engine {
	return mapctl.NewEngine(mapctl.EngineOptions{
		Center:  orb.Point{0, 20},
		Zoom:    2,
		MaxZoom: e.cfg.Map.MaxZoom,
		Loader:  e.loader,
		Logger:  e.log.Component("engine"),
	})
}

func (e *env) newMapController(store mapctl.LayerStore) *mapctl.Controller {
	return mapctl.NewController(store, mapctl.Options{
		BasemapTiles:       e.cfg.Basemap.Tiles,
		BasemapAttribution: e.cfg.Basemap.Attribution,
		OutlineURL:         e.cfg.Tiles.OutlineURL,
		CountryURLTemplate: e.cfg.Tiles.CountryURL,
		SourceLayer:        e.cfg.Tiles.SourceLayer,
		Logger:             e.log.Component("mapctl"),
	})
}

// signalContext is canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runExplorer(args []string) error {
	var configPath string
	fs := flag.NewFlagSet("geobounds", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Config file (default: ./geobounds.yaml or ./configs/)")
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := setup(configPath)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.log.Path != "" {
		fmt.Fprintf(os.Stderr, "Log: %s\n", e.log.Path)
	}

	ctx, cancel := signalContext()
	defer cancel()

	engine := e.newEngine()
	defer engine.Close()

	return tui.Run(ctx, tui.Options{
		LoadCatalog: e.loadCatalog,
		Engine:      engine,
		Maps:        e.newMapController(engine),
		Locale:      e.cfg.UI.Locale,
		RecentPath:  tui.RecentPath(),
		Log:         e.log.Component("app"),
	})
}
