package geo_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/rendis/geobounds/internal/engine/fetch"
	"github.com/rendis/geobounds/internal/engine/geo"
	"github.com/rendis/geobounds/internal/engine/storage"
)

const provence = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"GID_0": "FRA", "NAME_0": "France", "GID_1": "FRA.1_1", "NAME_1": "Provence-Alpes-Côte d'Azur", "GID_2": "FRA.1.1_1", "NAME_2": "Provence", "TYPE_2": "Région", "ENGTYPE_2": "Region", "CC_2": null, "POP": 5000000},
      "geometry": {"type": "Polygon", "coordinates": [[[4, 43], [7, 43], [7, 45], [4, 45], [4, 43]]]}
    },
    {
      "type": "Feature",
      "properties": {"GID_0": "FRA", "NAME_0": "France", "GID_1": "FRA.2_1"},
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[0, 46], [2, 46], [2, 48], [0, 48], [0, 46]]]]}
    },
    {
      "type": "Feature",
      "properties": {"GID_0": "FRA"},
      "geometry": {"type": "Point", "coordinates": [1, 1]}
    }
  ]
}`

func TestParseGeoJSON(t *testing.T) {
	ds, err := geo.ParseGeoJSON("mem://fra", []byte(provence))
	if err != nil {
		t.Fatalf("ParseGeoJSON: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (points are skipped)", ds.Len())
	}
	fs := ds.Layer(geo.DefaultSourceLayer)
	if len(fs) != 2 {
		t.Fatalf("layer %s has %d features", geo.DefaultSourceLayer, len(fs))
	}

	attrs := fs[0].Attributes()
	if attrs.Get("NAME_2") != "Provence" {
		t.Errorf("NAME_2 = %q", attrs.Get("NAME_2"))
	}
	if _, ok := attrs["CC_2"]; ok {
		t.Error("null property should be dropped")
	}
	if attrs.Get("POP") != "5000000" {
		t.Errorf("POP = %q", attrs.Get("POP"))
	}
}

func TestParseGeoJSON_NamedLayer(t *testing.T) {
	data := `{"type":"FeatureCollection","name":"outlines","features":[
	  {"type":"Feature","properties":{"NAME_0":"France"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}]}`
	ds, err := geo.ParseGeoJSON("mem://outlines", []byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Layer("outlines")) != 1 {
		t.Errorf("layers = %v", ds.LayerNames())
	}
}

func TestFeaturesAt(t *testing.T) {
	ds, err := geo.ParseGeoJSON("mem://fra", []byte(provence))
	if err != nil {
		t.Fatal(err)
	}
	fs := ds.Layer(geo.DefaultSourceLayer)

	hits := geo.FeaturesAt(fs, orb.Point{5.4, 43.5}, nil)
	if len(hits) != 1 || hits[0].Properties["NAME_2"] != "Provence" {
		t.Fatalf("hits = %+v", hits)
	}

	hits = geo.FeaturesAt(fs, orb.Point{1, 47}, nil)
	if len(hits) != 1 {
		t.Fatalf("multipolygon hit missing: %d", len(hits))
	}

	hits = geo.FeaturesAt(fs, orb.Point{1, 47}, func(f geo.Feature) bool {
		_, ok := f.Properties["GID_2"]
		return ok
	})
	if len(hits) != 0 {
		t.Errorf("filtered hits = %d, want 0", len(hits))
	}

	if len(geo.FeaturesAt(fs, orb.Point{-30, 10}, nil)) != 0 {
		t.Error("ocean point should not hit")
	}
}

func TestLoader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "FRA.geojson")
	if err := os.WriteFile(path, []byte(provence), 0o644); err != nil {
		t.Fatal(err)
	}

	l := geo.NewLoader(nil, nil, 0, nil)
	for _, src := range []string{path, "file://" + path} {
		ds, err := l.Load(context.Background(), src)
		if err != nil {
			t.Fatalf("Load(%s): %v", src, err)
		}
		if ds.Len() != 2 {
			t.Errorf("Load(%s) Len = %d", src, ds.Len())
		}
	}
}

func TestLoader_RejectsPMTiles(t *testing.T) {
	l := geo.NewLoader(nil, nil, 0, nil)
	_, err := l.Load(context.Background(), "pmtiles://https://example.test/countries/FRA.pmtiles")
	if !errors.Is(err, geo.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoader_RemoteUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(provence))
	}))
	defer srv.Close()

	cache, err := storage.NewStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	l := geo.NewLoader(fetch.NewClient(fetch.Options{Retries: 0}), cache, time.Hour, nil)
	url := srv.URL + "/countries/FRA.geojson"

	for i := 0; i < 3; i++ {
		if _, err := l.Load(context.Background(), url); err != nil {
			t.Fatalf("Load #%d: %v", i, err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1", calls.Load())
	}

	if _, err := l.Read(context.Background(), url, true); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("refresh should refetch, calls = %d", calls.Load())
	}
}
