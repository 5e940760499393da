// Package catalog loads countries_config.json, the read-only list of
// countries the explorer can show.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rendis/geobounds/internal/model"
)

// ErrEmpty is returned when the document holds no countries.
var ErrEmpty = errors.New("catalog is empty")

// Reader returns the raw bytes behind a file path or URL.
type Reader interface {
	Read(ctx context.Context, rawURL string, refresh bool) ([]byte, error)
}

// Load fetches and validates the catalog at source. It always bypasses the
// dataset cache so a restart picks up catalog edits.
func Load(ctx context.Context, source string, r Reader) (model.Catalog, error) {
	data, err := r.Read(ctx, source, true)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return Parse(data)
}

// entry is the on-disk shape of one country. Bounds stay a slice so a
// wrong number of coordinates is reported instead of zero-filled.
type entry struct {
	DisplayName   string    `json:"display_name"`
	Bounds        []float64 `json:"bounds"`
	FeatureClass  string    `json:"feature_class"`
	MaxAdminLevel int       `json:"max_admin_level"`
	FeatureCount  int       `json:"feature_count"`
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (model.Catalog, error) {
	var raw map[string]entry
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmpty
	}

	var errs []string
	cat := make(model.Catalog, len(raw))
	for _, id := range sortedKeys(raw) {
		e := raw[id]
		cfg := model.CountryConfig{
			ID:            id,
			DisplayName:   e.DisplayName,
			FeatureClass:  e.FeatureClass,
			MaxAdminLevel: e.MaxAdminLevel,
			FeatureCount:  e.FeatureCount,
		}
		if len(e.Bounds) == 4 {
			copy(cfg.Bounds[:], e.Bounds)
		} else {
			errs = append(errs, fmt.Sprintf("%s: bounds must have 4 numbers [west, south, east, north], got %d", id, len(e.Bounds)))
		}
		cat[id] = cfg
	}

	errs = append(errs, problems(cat)...)
	if len(errs) > 0 {
		return nil, validationError(errs)
	}
	return cat, nil
}

// Validate checks every entry and reports all problems at once.
func Validate(cat model.Catalog) error {
	if errs := problems(cat); len(errs) > 0 {
		return validationError(errs)
	}
	return nil
}

func problems(cat model.Catalog) []string {
	var errs []string
	for _, id := range sortedKeys(cat) {
		c := cat[id]
		if strings.TrimSpace(id) == "" {
			errs = append(errs, "empty country id")
		}
		if c.DisplayName == "" {
			errs = append(errs, fmt.Sprintf("%s: display_name is required", id))
		}
		if c.FeatureClass == "" {
			errs = append(errs, fmt.Sprintf("%s: feature_class is required", id))
		}
		if c.MaxAdminLevel < 0 {
			errs = append(errs, fmt.Sprintf("%s: max_admin_level must be >= 0, got %d", id, c.MaxAdminLevel))
		}
		if c.FeatureCount < 0 {
			errs = append(errs, fmt.Sprintf("%s: feature_count must be >= 0, got %d", id, c.FeatureCount))
		}
		b := c.Bounds
		if b.West() > b.East() || b.South() > b.North() {
			errs = append(errs, fmt.Sprintf("%s: bounds %s are not [west, south, east, north]", id, b))
		}
		if b.South() < -90 || b.North() > 90 {
			errs = append(errs, fmt.Sprintf("%s: bounds %s exceed latitude range", id, b))
		}
	}
	return errs
}

func validationError(errs []string) error {
	return fmt.Errorf("catalog validation failed:\n  - %s", strings.Join(errs, "\n  - "))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sorted returns the entries ordered by display name using the collation
// rules of locale (e.g. "en", "fr"), ascending. Ties fall back to the id.
func Sorted(cat model.Catalog, locale string) []model.CountryConfig {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	col := collate.New(tag)

	out := make([]model.CountryConfig, 0, len(cat))
	for _, c := range cat {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := col.CompareString(out[i].DisplayName, out[j].DisplayName); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}
