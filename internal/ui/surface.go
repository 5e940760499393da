// Package ui holds the explorer's widget state: the country selector, the
// level buttons, the country summary and the feature panel. The terminal
// views render a Surface; they never compute its content themselves.
package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/rendis/geobounds/internal/engine/catalog"
	"github.com/rendis/geobounds/internal/model"
)

var levelLabels = map[int]string{
	0: "Country",
	1: "Region/State",
	2: "District/County",
	3: "Sub-district",
	4: "Municipality",
	5: "Village/Ward",
}

var panelFields = []string{
	"NAME_0", "COUNTRY", "CONTINENT",
	"NAME_1", "TYPE_1", "ENGTYPE_1",
	"NAME_2", "TYPE_2", "ENGTYPE_2",
	"NAME_3", "TYPE_3", "ENGTYPE_3",
	"NAME_4", "TYPE_4", "ENGTYPE_4",
	"NAME_5", "TYPE_5", "ENGTYPE_5",
}

var fieldLabels = map[string]string{
	"NAME_0":    "Country",
	"NAME_1":    "Admin Level 1",
	"NAME_2":    "Admin Level 2",
	"NAME_3":    "Admin Level 3",
	"NAME_4":    "Admin Level 4",
	"NAME_5":    "Admin Level 5",
	"TYPE_1":    "Type (Local)",
	"TYPE_2":    "Type (Local)",
	"TYPE_3":    "Type (Local)",
	"TYPE_4":    "Type (Local)",
	"TYPE_5":    "Type (Local)",
	"ENGTYPE_1": "Type (English)",
	"ENGTYPE_2": "Type (English)",
	"ENGTYPE_3": "Type (English)",
	"ENGTYPE_4": "Type (English)",
	"ENGTYPE_5": "Type (English)",
	"COUNTRY":   "Country",
	"CONTINENT": "Continent",
	"SOVEREIGN": "Sovereign State",
	"HASC_1":    "HASC Code",
	"HASC_2":    "HASC Code",
	"ISO_1":     "ISO Code",
}

// Option is one entry of the country selector. The empty Value is "no country".
type Option struct {
	Value string
	Label string
}

type LevelButton struct {
	Level  int
	Label  string
	Active bool
}

type CountryInfo struct {
	Name  string
	Stats string
}

// Row is one line of the feature panel table.
type Row struct {
	Label string
	Value string
}

type FeaturePanel struct {
	Title string
	Rows  []Row
}

// Surface is the state of every explorer widget.
type Surface struct {
	Locale string

	Options  []Option
	Selected string

	Buttons        []LevelButton
	ButtonsVisible bool
	onLevel        func(level int)

	Info        CountryInfo
	InfoVisible bool

	Panel        FeaturePanel
	PanelVisible bool
}

func NewSurface(locale string) *Surface {
	return &Surface{Locale: locale}
}

// PopulateCountrySelector lists the catalog sorted by display name.
func (s *Surface) PopulateCountrySelector(cat model.Catalog) {
	s.Options = []Option{{Value: "", Label: "Select a country"}}
	for _, c := range catalog.Sorted(cat, s.Locale) {
		s.Options = append(s.Options, Option{
			Value: c.ID,
			Label: fmt.Sprintf("%s (%d levels)", c.DisplayName, c.MaxAdminLevel),
		})
	}
}

// RenderLevelButtons replaces the level buttons with levels 0..maxLevel.
func (s *Surface) RenderLevelButtons(maxLevel int, onClick func(level int)) {
	s.Buttons = s.Buttons[:0]
	for level := 0; level <= maxLevel; level++ {
		s.Buttons = append(s.Buttons, LevelButton{
			Level:  level,
			Label:  fmt.Sprintf("Level %d: %s", level, LevelLabel(level)),
			Active: level == 0,
		})
	}
	s.onLevel = onClick
	s.ButtonsVisible = true
}

// LevelLabel names an admin level.
func LevelLabel(level int) string {
	if l, ok := levelLabels[level]; ok {
		return l
	}
	return fmt.Sprintf("Admin %d", level)
}

func (s *Surface) SetActiveLevel(level int) {
	for i := range s.Buttons {
		s.Buttons[i].Active = s.Buttons[i].Level == level
	}
}

// PressLevel activates the button for level. It reports false when no such
// button is shown.
func (s *Surface) PressLevel(level int) bool {
	if !s.ButtonsVisible || level < 0 || level >= len(s.Buttons) || s.onLevel == nil {
		return false
	}
	s.onLevel(level)
	return true
}

// ActiveLevel returns the active button's level, or -1.
func (s *Surface) ActiveLevel() int {
	for _, b := range s.Buttons {
		if b.Active {
			return b.Level
		}
	}
	return -1
}

func (s *Surface) ShowCountryInfo(cfg model.CountryConfig) {
	s.Info = CountryInfo{
		Name: cfg.DisplayName,
		Stats: fmt.Sprintf("%s administrative units | %d admin levels",
			humanize.Comma(int64(cfg.FeatureCount)), cfg.MaxAdminLevel),
	}
	s.InfoVisible = true
}

// HideLevelButtons hides the level buttons together with the country info.
func (s *Surface) HideLevelButtons() {
	s.ButtonsVisible = false
	s.InfoVisible = false
}

// ShowFeaturePanel fills the panel with the attributes relevant at level.
func (s *Surface) ShowFeaturePanel(attrs model.Attributes, level int) {
	title := attrs.Get(fmt.Sprintf("NAME_%d", max(level, 0)))
	if title == "" {
		title = "Unknown"
	}

	var rows []Row
	for _, field := range panelFields {
		v := attrs.Get(field)
		if v == "" {
			continue
		}
		if d, ok := trailingLevel(field); ok && d > level {
			continue
		}
		rows = append(rows, Row{Label: FieldLabel(field), Value: v})
	}

	s.Panel = FeaturePanel{Title: title, Rows: rows}
	s.PanelVisible = true
}

func (s *Surface) HideFeaturePanel() {
	s.PanelVisible = false
}

// FieldLabel returns the human label for an attribute name.
func FieldLabel(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return strings.ReplaceAll(field, "_", " ")
}

func trailingLevel(field string) (int, bool) {
	if field == "" {
		return 0, false
	}
	c := field[len(field)-1]
	if c < '0' || c > '5' {
		return 0, false
	}
	return int(c - '0'), true
}
