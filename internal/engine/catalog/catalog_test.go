package catalog_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/rendis/geobounds/internal/engine/catalog"
	"github.com/rendis/geobounds/internal/model"
)

type memReader struct {
	data    []byte
	err     error
	refresh bool
}

func (m *memReader) Read(ctx context.Context, rawURL string, refresh bool) ([]byte, error) {
	m.refresh = refresh
	return m.data, m.err
}

const france = `{
  "FRA": {"display_name": "France", "bounds": [-5, 41, 10, 51], "feature_class": "FRA", "max_admin_level": 3, "feature_count": 36000}
}`

func TestLoad(t *testing.T) {
	r := &memReader{data: []byte(france)}
	cat, err := catalog.Load(context.Background(), "data/countries_config.json", r)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !r.refresh {
		t.Error("catalog load should bypass the cache")
	}

	fra, ok := cat.Lookup("FRA")
	if !ok {
		t.Fatal("FRA missing")
	}
	want := model.CountryConfig{
		ID: "FRA", DisplayName: "France", Bounds: model.Bounds{-5, 41, 10, 51},
		FeatureClass: "FRA", MaxAdminLevel: 3, FeatureCount: 36000,
	}
	if fra != want {
		t.Errorf("FRA = %+v, want %+v", fra, want)
	}
}

func TestLoad_ReaderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := catalog.Load(context.Background(), "x", &memReader{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"empty", `{}`, "catalog is empty"},
		{"not json", `[`, "decoding catalog"},
		{"missing feature class", `{"X":{"display_name":"X","bounds":[0,0,1,1],"max_admin_level":1}}`, "feature_class is required"},
		{"negative level", `{"X":{"display_name":"X","bounds":[0,0,1,1],"feature_class":"X","max_admin_level":-1}}`, "max_admin_level must be >= 0"},
		{"inverted bounds", `{"X":{"display_name":"X","bounds":[5,0,1,1],"feature_class":"X"}}`, "are not [west, south, east, north]"},
		{"empty bounds", `{"X":{"display_name":"X","bounds":[],"feature_class":"X"}}`, "bounds must have 4 numbers"},
		{"short bounds", `{"X":{"display_name":"X","bounds":[-5,-41,10],"feature_class":"X"}}`, "got 3"},
		{"long bounds", `{"X":{"display_name":"X","bounds":[-5,41,10,51,99],"feature_class":"X"}}`, "got 5"},
		{"missing bounds", `{"X":{"display_name":"X","feature_class":"X"}}`, "got 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSorted_LocaleAwareForAnyPermutation(t *testing.T) {
	names := []string{"Zimbabwe", "Åland", "Côte d'Ivoire", "Chile", "ecuador", "Czechia", "Austria"}
	want := []string{"Åland", "Austria", "Chile", "Côte d'Ivoire", "Czechia", "ecuador", "Zimbabwe"}

	for round := 0; round < 10; round++ {
		perm := rand.Perm(len(names))
		cat := model.Catalog{}
		for i, p := range perm {
			id := string(rune('A' + i))
			cat[id] = model.CountryConfig{ID: id, DisplayName: names[p]}
		}

		got := catalog.Sorted(cat, "en")
		for i, c := range got {
			if c.DisplayName != want[i] {
				t.Fatalf("round %d: position %d = %q, want %q (all: %v)", round, i, c.DisplayName, want[i], got)
			}
		}
	}
}
