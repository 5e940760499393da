package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rendis/geobounds/internal/engine/storage"
)

// ErrUnsupportedFormat is returned for sources the loader cannot decode (PMTiles, MVT).
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Getter downloads a URL.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Cache persists downloaded bodies.
type Cache interface {
	Get(url string) (storage.Entry, bool, error)
	Put(url string, body []byte, fetchedAt time.Time) error
}

// Loader resolves file paths, file:// and http(s):// URLs to bytes and datasets.
type Loader struct {
	fetcher Getter
	cache   Cache
	ttl     time.Duration
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewLoader returns a loader. cache may be nil; ttl <= 0 means cached bodies never expire.
func NewLoader(fetcher Getter, cache Cache, ttl time.Duration, log logrus.FieldLogger) *Loader {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Loader{fetcher: fetcher, cache: cache, ttl: ttl, log: log, now: time.Now}
}

// Read returns the raw bytes behind rawURL. refresh skips the cache lookup but
// still stores the fresh body.
func (l *Loader) Read(ctx context.Context, rawURL string, refresh bool) ([]byte, error) {
	if isPMTiles(rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain path (or a Windows drive letter).
		return readFile(rawURL)
	}

	switch u.Scheme {
	case "file":
		return readFile(u.Path)
	case "http", "https":
		return l.readRemote(ctx, rawURL, refresh)
	}
	return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedFormat, u.Scheme)
}

// Load reads and parses a GeoJSON dataset.
func (l *Loader) Load(ctx context.Context, rawURL string) (*Dataset, error) {
	data, err := l.Read(ctx, rawURL, false)
	if err != nil {
		return nil, err
	}
	ds, err := ParseGeoJSON(rawURL, data)
	if err != nil {
		return nil, err
	}
	l.log.WithField("url", rawURL).Debugf("loaded %d features", ds.Len())
	return ds, nil
}

func (l *Loader) readRemote(ctx context.Context, rawURL string, refresh bool) ([]byte, error) {
	log := l.log.WithField("url", rawURL)

	if l.cache != nil && !refresh {
		entry, ok, err := l.cache.Get(rawURL)
		switch {
		case err != nil:
			log.Warnf("cache read failed: %v", err)
		case ok && (l.ttl <= 0 || l.now().Sub(entry.FetchedAt) < l.ttl):
			log.Debug("cache hit")
			return entry.Body, nil
		}
	}

	if l.fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured for %s", rawURL)
	}
	body, err := l.fetcher.Get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}

	if l.cache != nil {
		if err := l.cache.Put(rawURL, body, l.now()); err != nil {
			log.Warnf("cache write failed: %v", err)
		}
	}
	return body, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func isPMTiles(rawURL string) bool {
	return strings.HasPrefix(rawURL, "pmtiles://") || strings.HasSuffix(strings.ToLower(rawURL), ".pmtiles")
}
