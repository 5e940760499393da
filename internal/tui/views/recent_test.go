package views_test

import (
	"strings"
	"testing"
	"time"

	"github.com/rendis/geobounds/internal/tui/views"
)

func TestRecentList_Touch(t *testing.T) {
	old := time.Now().Add(-2 * time.Hour)
	r := views.NewRecentList([]views.RecentCountry{
		{ID: "FRA", Name: "France", OpenedAt: old},
		{ID: "ESP", Name: "Spain", Level: 1, OpenedAt: old},
	})

	r.Touch("ESP", "Spain", 2)
	got := r.Entries()
	if len(got) != 2 || got[0].ID != "ESP" || got[0].Level != 2 || got[1].ID != "FRA" {
		t.Fatalf("entries = %+v", got)
	}

	for _, id := range []string{"DEU", "ITA", "BEL", "NLD", "PRT"} {
		r.Touch(id, id, 0)
	}
	if n := len(r.Entries()); n != 5 {
		t.Errorf("len = %d, want 5", n)
	}
	if r.Entries()[0].ID != "PRT" {
		t.Errorf("front = %s, want PRT", r.Entries()[0].ID)
	}
}

func TestRecentList_View(t *testing.T) {
	empty := views.NewRecentList(nil)
	if !strings.Contains(empty.View(30), "No recent countries") {
		t.Errorf("empty view = %q", empty.View(30))
	}

	r := views.NewRecentList([]views.RecentCountry{
		{ID: "FRA", Name: "France", Level: 1, OpenedAt: time.Now().Add(-3 * time.Hour)},
	})
	out := r.View(30)
	for _, want := range []string{"France", "ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}
