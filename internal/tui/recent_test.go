package tui_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rendis/geobounds/internal/tui"
)

func TestRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "recent.json")

	if got := tui.LoadRecent(path); got != nil {
		t.Fatalf("missing file should load nothing, got %v", got)
	}

	for i := 0; i < 12; i++ {
		if err := tui.SaveRecent(path, fmt.Sprintf("C%02d", i), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := tui.SaveRecent(path, "C05", 2); err != nil {
		t.Fatal(err)
	}

	entries := tui.LoadRecent(path)
	if len(entries) != 10 {
		t.Fatalf("kept %d entries, want 10", len(entries))
	}
	if entries[0].Country != "C05" || entries[0].Level != 2 {
		t.Errorf("front = %+v", entries[0])
	}
	if entries[1].Country != "C11" {
		t.Errorf("second = %+v", entries[1])
	}
	seen := map[string]bool{}
	for _, e := range entries {
		if seen[e.Country] {
			t.Errorf("duplicate %s", e.Country)
		}
		seen[e.Country] = true
	}
}
