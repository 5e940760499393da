package storage_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rendis/geobounds/internal/engine/storage"
)

func TestStore_PutGetPurge(t *testing.T) {
	s, err := storage.NewStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()

	if _, ok, err := s.Get("https://example.test/a.geojson"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	old := time.Unix(1_700_000_000, 0)
	if err := s.Put("https://example.test/a.geojson", []byte("one"), old); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("https://example.test/a.geojson", []byte("two"), old.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("https://example.test/b.geojson", []byte("three"), old.Add(48*time.Hour)); err != nil {
		t.Fatal(err)
	}

	e, ok, err := s.Get("https://example.test/a.geojson")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(e.Body) != "two" || !e.FetchedAt.Equal(old.Add(time.Hour)) {
		t.Errorf("entry = %q at %v", e.Body, e.FetchedAt)
	}

	n, err := s.Count()
	if err != nil || n != 2 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	purged, err := s.PurgeOlderThan(old.Add(24 * time.Hour))
	if err != nil || purged != 1 {
		t.Fatalf("PurgeOlderThan = %d, %v", purged, err)
	}
	if _, ok, _ := s.Get("https://example.test/a.geojson"); ok {
		t.Error("a.geojson should be purged")
	}
}
