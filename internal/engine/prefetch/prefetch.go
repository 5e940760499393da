// Package prefetch warms the dataset cache: the outline dataset plus every
// country dataset the catalog references, downloaded by a bounded worker pool.
package prefetch

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rendis/geobounds/internal/model"
)

// maxConsecutiveErrors aborts a run that keeps failing, e.g. when offline.
const maxConsecutiveErrors = 10

// ErrAborted is returned when too many downloads fail in a row.
var ErrAborted = errors.New("prefetch aborted after repeated failures")

// Reader fetches a dataset, refreshing the cache when refresh is set.
type Reader interface {
	Read(ctx context.Context, rawURL string, refresh bool) ([]byte, error)
}

// Job is one dataset to fetch.
type Job struct {
	Name string
	URL  string
}

type Stats struct {
	Total  int
	Done   atomic.Int64
	Bytes  atomic.Int64
	Errors atomic.Int64
}

// Options tunes a Run.
type Options struct {
	// Concurrency bounds in-flight downloads; values < 1 mean 1.
	Concurrency int
	// Refresh bypasses cached bodies.
	Refresh bool
	// OnDone is called after every job, from the worker goroutine.
	OnDone func(job Job, size int, err error)
	Logger logrus.FieldLogger
}

// Jobs lists the outline dataset followed by one job per distinct country
// dataset URL, ordered by country id.
func Jobs(cat model.Catalog, outlineURL string, urlFor func(featureClass string) string) []Job {
	ids := make([]string, 0, len(cat))
	for id := range cat {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	seen := map[string]bool{}
	var jobs []Job
	add := func(name, url string) {
		if url == "" || seen[url] {
			return
		}
		seen[url] = true
		jobs = append(jobs, Job{Name: name, URL: url})
	}
	add("outlines", outlineURL)
	for _, id := range ids {
		add(id, urlFor(cat[id].FeatureClass))
	}
	return jobs
}

// Run fetches every job. Individual failures are counted and logged; Run
// only returns an error when ctx is canceled or the run is aborted.
func Run(ctx context.Context, r Reader, jobs []Job, opts Options) (*Stats, error) {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	conc := opts.Concurrency
	if conc < 1 {
		conc = 1
	}

	stats := &Stats{Total: len(jobs)}
	start := time.Now()

	var wg sync.WaitGroup
	sem := make(chan struct{}, conc)
	var consecutive atomic.Int64
	var runErr error

loop:
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break loop
		case sem <- struct{}{}:
		}

		if consecutive.Load() >= maxConsecutiveErrors {
			<-sem
			log.Warnf("%d consecutive failures, stopping", consecutive.Load())
			runErr = ErrAborted
			break
		}

		wg.Add(1)
		go func(j Job) {
			defer wg.Done()
			defer func() { <-sem }()

			body, err := r.Read(ctx, j.URL, opts.Refresh)
			stats.Done.Add(1)
			if err != nil {
				stats.Errors.Add(1)
				consecutive.Add(1)
				log.WithError(err).WithField("dataset", j.Name).Warn("fetch failed")
			} else {
				consecutive.Store(0)
				stats.Bytes.Add(int64(len(body)))
				log.WithField("dataset", j.Name).Debugf("fetched %d bytes", len(body))
			}
			if opts.OnDone != nil {
				opts.OnDone(j, len(body), err)
			}
		}(job)
	}

	wg.Wait()

	log.Infof("prefetch done=%d/%d errors=%d bytes=%d elapsed=%s",
		stats.Done.Load(), stats.Total, stats.Errors.Load(), stats.Bytes.Load(),
		time.Since(start).Truncate(time.Millisecond))
	return stats, runErr
}
