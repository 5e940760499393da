package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rendis/geobounds/internal/tui/styles"
	"github.com/rendis/geobounds/internal/ui"
)

const maxRecentShown = 5

// RecentCountry is a previously opened country, newest first.
type RecentCountry struct {
	ID       string
	Name     string
	Level    int
	OpenedAt time.Time
}

// RecentList renders the recently opened countries in the sidebar.
type RecentList struct {
	entries []RecentCountry
	now     func() time.Time
}

func NewRecentList(entries []RecentCountry) RecentList {
	if len(entries) > maxRecentShown {
		entries = entries[:maxRecentShown]
	}
	return RecentList{entries: entries, now: time.Now}
}

// Touch moves id to the front, as the store does when it is saved.
func (r *RecentList) Touch(id, name string, level int) {
	out := []RecentCountry{{ID: id, Name: name, Level: level, OpenedAt: r.now()}}
	for _, e := range r.entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	if len(out) > maxRecentShown {
		out = out[:maxRecentShown]
	}
	r.entries = out
}

func (r RecentList) Entries() []RecentCountry {
	return r.entries
}

func (r RecentList) View(width int) string {
	if len(r.entries) == 0 {
		return styles.Empty.Render("No recent countries")
	}

	var b strings.Builder
	for i, e := range r.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		name := e.Name
		if name == "" {
			name = e.ID
		}
		b.WriteString(styles.SelectorItem.Render(truncate(name, width)))
		b.WriteString("\n")
		b.WriteString(styles.Hint.Render(
			fmt.Sprintf("  %s · %s", ui.LevelLabel(e.Level), humanize.RelTime(e.OpenedAt, r.now(), "ago", "from now"))))
	}
	return b.String()
}
