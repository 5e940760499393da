package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/rendis/geobounds/internal/engine/prefetch"
)

func runPrefetch(args []string) error {
	var (
		configPath  string
		force       bool
		concurrency int
		noPurge     bool
	)

	fs := flag.NewFlagSet("prefetch", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Config file")
	fs.BoolVar(&force, "force", false, "Re-download datasets even when cached")
	fs.IntVar(&concurrency, "concurrency", 4, "Parallel downloads")
	fs.BoolVar(&noPurge, "no-purge", false, "Keep cache entries older than cache.ttl")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: geobounds prefetch [flags]\n\nDownload the outline and every country dataset into the local cache.\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  geobounds prefetch\n")
		fmt.Fprintf(os.Stderr, "  geobounds prefetch -force -concurrency 8\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if concurrency < 1 {
		return fmt.Errorf("-concurrency must be >= 1")
	}

	e, err := setup(configPath)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signalContext()
	defer cancel()

	cat, err := e.loadCatalog(ctx)
	if err != nil {
		return err
	}

	if !noPurge && e.cfg.Cache.TTL > 0 {
		n, err := e.cache.PurgeOlderThan(time.Now().Add(-e.cfg.Cache.TTL))
		if err != nil {
			return fmt.Errorf("purging cache: %w", err)
		}
		if n > 0 {
			fmt.Fprintf(os.Stderr, "Purged %d stale cache entries\n", n)
		}
	}

	maps := e.newMapController(nil)
	jobs := prefetch.Jobs(cat, e.cfg.Tiles.OutlineURL, maps.SourceURL)

	bar := pb.New(len(jobs)).Prefix("datasets ")
	bar.Output = os.Stderr
	bar.SetRefreshRate(500 * time.Millisecond)
	bar.Start()

	stats, runErr := prefetch.Run(ctx, e.loader, jobs, prefetch.Options{
		Concurrency: concurrency,
		Refresh:     force,
		Logger:      e.log.Component("prefetch"),
		OnDone: func(prefetch.Job, int, error) {
			bar.Increment()
		},
	})

	cached, _ := e.cache.Count()
	bar.FinishPrint(fmt.Sprintf("%d/%d datasets, %d failed, %s read, %d cached",
		stats.Done.Load(), stats.Total, stats.Errors.Load(),
		humanize.Bytes(uint64(stats.Bytes.Load())), cached))

	if runErr != nil {
		return runErr
	}
	if n := stats.Errors.Load(); n > 0 {
		return fmt.Errorf("%d datasets failed, see log", n)
	}
	return nil
}
