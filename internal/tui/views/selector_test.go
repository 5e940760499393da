package views_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rendis/geobounds/internal/tui/views"
	"github.com/rendis/geobounds/internal/ui"
)

var options = []ui.Option{
	{Value: "", Label: "Select a country"},
	{Value: "CIV", Label: "Côte d'Ivoire (2 levels)"},
	{Value: "FRA", Label: "France (5 levels)"},
	{Value: "ESP", Label: "Spain (4 levels)"},
}

func typeText(m views.SelectorModel, s string) views.SelectorModel {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestSelector_FilterIgnoresAccents(t *testing.T) {
	m := views.NewSelectorModel(options)
	m.Focus()

	m = typeText(m, "cote")
	got, ok := m.Selected()
	if !ok || got != "CIV" {
		t.Errorf("Selected = %q, %v; want CIV", got, ok)
	}
}

func TestSelector_FilterByID(t *testing.T) {
	m := views.NewSelectorModel(options)
	m.Focus()

	m = typeText(m, "esp")
	if got, _ := m.Selected(); got != "ESP" {
		t.Errorf("Selected = %q, want ESP", got)
	}

	m = typeText(m, "zzz")
	if _, ok := m.Selected(); ok {
		t.Error("expected no match")
	}
}

func TestSelector_PointAndReset(t *testing.T) {
	m := views.NewSelectorModel(options)

	if got, ok := m.Selected(); !ok || got != "" {
		t.Errorf("initial selection = %q, %v; want the empty option", got, ok)
	}

	m.Point("FRA")
	if got, _ := m.Selected(); got != "FRA" {
		t.Errorf("after Point = %q", got)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if got, _ := m.Selected(); got != "ESP" {
		t.Errorf("after down = %q", got)
	}

	m.Reset()
	if got, _ := m.Selected(); got != "" {
		t.Errorf("after Reset = %q", got)
	}
}
