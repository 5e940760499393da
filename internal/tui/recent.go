package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const maxRecent = 10

// RecentEntry is one recently explored country.
type RecentEntry struct {
	Country  string    `json:"country"`
	Level    int       `json:"level"`
	OpenedAt time.Time `json:"opened_at"`
}

// RecentPath is where the explorer remembers countries between runs.
func RecentPath() string {
	cfg, _ := os.UserConfigDir()
	return filepath.Join(cfg, "geobounds", "recent.json")
}

func LoadRecent(path string) []RecentEntry {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var entries []RecentEntry
	json.Unmarshal(data, &entries)
	return entries
}

// SaveRecent moves country to the front of the list at path.
func SaveRecent(path, country string, level int) error {
	entries := LoadRecent(path)

	// Remove duplicate
	filtered := make([]RecentEntry, 0, len(entries))
	for _, e := range entries {
		if e.Country != country {
			filtered = append(filtered, e)
		}
	}

	// Prepend
	filtered = append([]RecentEntry{{Country: country, Level: level, OpenedAt: time.Now()}}, filtered...)
	if len(filtered) > maxRecent {
		filtered = filtered[:maxRecent]
	}

	data, err := json.MarshalIndent(filtered, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
