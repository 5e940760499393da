package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // violet
	Secondary = lipgloss.Color("#06B6D4") // cyan
	Error     = lipgloss.Color("#EF4444") // red
	Muted     = lipgloss.Color("#6B7280") // gray
	Text      = lipgloss.Color("#E5E7EB") // light gray
	BgDark    = lipgloss.Color("#111827") // map background
	Grid      = lipgloss.Color("#374151") // basemap graticule
	Highlight = lipgloss.Color("#FFD700") // crosshair over a feature

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Secondary)

	CountryName = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	Hint = lipgloss.NewStyle().
		Foreground(Muted)

	Empty = lipgloss.NewStyle().
		Foreground(Muted).
		Italic(true)

	// Selector rows: the cursor row, other rows, and the selected country.
	SelectorCursor = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)
	SelectorItem = lipgloss.NewStyle().
			Foreground(Muted)
	SelectorCurrent = lipgloss.NewStyle().
			Foreground(Secondary)

	LevelButton = lipgloss.NewStyle().
			Foreground(Text).
			Padding(0, 1)

	ActiveLevelButton = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(Primary).
				Bold(true).
				Padding(0, 1)

	PanelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Text)

	Crosshair = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	StatusBar = lipgloss.NewStyle().
			Foreground(Muted).
			MarginTop(1)

	Border = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(1, 2)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Pane frames a sidebar or map pane; the focused pane gets the primary border.
func Pane(focused bool) lipgloss.Style {
	s := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(Muted)
	if focused {
		s = s.BorderForeground(Primary)
	}
	return s
}

// Panel frames the feature panel.
var Panel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Secondary).
	Padding(0, 1)
