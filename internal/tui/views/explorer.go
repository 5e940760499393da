package views

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/geobounds/internal/app"
	"github.com/rendis/geobounds/internal/engine/mapctl"
	"github.com/rendis/geobounds/internal/tui/components"
	"github.com/rendis/geobounds/internal/tui/styles"
	"github.com/rendis/geobounds/internal/ui"
)

const (
	sidebarWidth = 36
	panelWidth   = 40
	panDots      = 16
	frameRate    = 40 * time.Millisecond
)

type focusArea int

const (
	focusSelector focusArea = iota
	focusMap
)

// ExplorerOptions wire the explorer to the controllers built by the app.
type ExplorerOptions struct {
	Controller *app.Controller
	Surface    *ui.Surface
	Engine     *mapctl.Engine
	// LastCountry preselects the selector cursor.
	LastCountry string
	// Remember is called with every country the user opens.
	Remember func(id string, level int)
	// Recent lists previously opened countries, newest first.
	Recent []RecentCountry
}

// ExplorerModel is the map explorer: selector and level buttons on the left,
// the map in the middle and the feature panel on the right.
type ExplorerModel struct {
	ctrl     *app.Controller
	surface  *ui.Surface
	engine   *mapctl.Engine
	remember func(id string, level int)

	selector SelectorModel
	recent   RecentList
	mapView  components.MapView
	panel    table.Model
	focus    focusArea
	width    int
	height   int
	status   string
}

type engineEventMsg struct {
	Event mapctl.Event
}

type frameTickMsg time.Time

func NewExplorerModel(opts ExplorerOptions) ExplorerModel {
	m := ExplorerModel{
		ctrl:     opts.Controller,
		surface:  opts.Surface,
		engine:   opts.Engine,
		remember: opts.Remember,
		selector: NewSelectorModel(opts.Surface.Options),
		recent:   NewRecentList(opts.Recent),
		mapView:  components.NewMapView(60, 20),
		focus:    focusSelector,
	}
	if opts.LastCountry != "" {
		m.selector.Point(opts.LastCountry)
	}
	m.selector.Focus()
	m.buildPanel()
	return m
}

func (m ExplorerModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.engine))
}

func waitForEvent(e *mapctl.Engine) tea.Cmd {
	return func() tea.Msg {
		return engineEventMsg{Event: <-e.Events()}
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return frameTickMsg(t) })
}

// MapSize returns the map area, in cells, for a terminal of width x height.
func MapSize(width, height int) (int, int) {
	return max(width-sidebarWidth-panelWidth-4, 20), max(height-5, 8)
}

func (m ExplorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil

	case engineEventMsg:
		switch msg.Event.Kind {
		case mapctl.EventSourceError:
			m.status = fmt.Sprintf("Failed to load %s: %v", msg.Event.SourceID, msg.Event.Err)
		case mapctl.EventSourceData:
			m.status = ""
			m.hover()
		case mapctl.EventMove:
			return m, tea.Batch(waitForEvent(m.engine), tick())
		}
		return m, waitForEvent(m.engine)

	case frameTickMsg:
		if m.engine.Animating() {
			return m, tick()
		}
		m.hover()
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}
		if key == "tab" {
			return m, m.toggleFocus()
		}
		if m.focus == focusSelector {
			return m.updateSelector(msg)
		}
		return m.updateMap(key)
	}

	return m, nil
}

func (m *ExplorerModel) toggleFocus() tea.Cmd {
	if m.focus == focusSelector {
		m.focus = focusMap
		m.selector.Blur()
		return nil
	}
	m.focus = focusSelector
	return m.selector.Focus()
}

func (m ExplorerModel) updateSelector(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.selector.Reset()
		return m, nil
	case "enter":
		id, ok := m.selector.Selected()
		if !ok {
			return m, nil
		}
		m.selectCountry(id)
		if id == "" {
			return m, nil
		}
		return m, m.toggleFocus()
	}

	var cmd tea.Cmd
	m.selector, cmd = m.selector.Update(msg)
	return m, cmd
}

func (m ExplorerModel) updateMap(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit
	case "/":
		return m, m.toggleFocus()
	case "up", "k":
		m.mapView.MoveCrosshair(0, -1)
		m.hover()
	case "down", "j":
		m.mapView.MoveCrosshair(0, 1)
		m.hover()
	case "left", "h":
		m.mapView.MoveCrosshair(-1, 0)
		m.hover()
	case "right", "l":
		m.mapView.MoveCrosshair(1, 0)
		m.hover()
	case "K":
		m.engine.PanBy(0, -panDots)
		m.hover()
	case "J":
		m.engine.PanBy(0, panDots)
		m.hover()
	case "H":
		m.engine.PanBy(-panDots, 0)
		m.hover()
	case "L":
		m.engine.PanBy(panDots, 0)
		m.hover()
	case "+", "=":
		m.engine.ZoomBy(0.5)
		m.hover()
	case "-":
		m.engine.ZoomBy(-0.5)
		m.hover()
	case "enter", " ":
		p := m.mapView.CrosshairPoint(m.engine.Viewport())
		if m.ctrl.ClickMap(p) {
			m.buildPanel()
			m.updateLayout()
		}
	case "esc":
		m.ctrl.ClosePanel()
		m.updateLayout()
	case "c":
		m.selectCountry("")
		m.selector.Reset()
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		level, _ := strconv.Atoi(key)
		if m.surface.PressLevel(level) {
			m.hover()
			m.remembered(m.surface.Selected, level)
		}
	}
	return m, nil
}

func (m *ExplorerModel) selectCountry(id string) {
	if err := m.ctrl.SelectCountry(id); err != nil {
		m.status = err.Error()
		return
	}
	m.surface.Selected = id
	m.status = ""
	// The admin layers are gone, so the crosshair may have left a feature.
	m.hover()
	if id != "" {
		m.remembered(id, 0)
	}
}

func (m *ExplorerModel) remembered(id string, level int) {
	m.recent.Touch(id, m.surface.Info.Name, level)
	if m.remember != nil {
		m.remember(id, level)
	}
}

// hover re-evaluates the pointer cursor at the crosshair.
func (m *ExplorerModel) hover() {
	m.ctrl.Hover(m.mapView.CrosshairPoint(m.engine.Viewport()))
}

func (m *ExplorerModel) updateLayout() {
	if m.width <= 0 {
		return
	}
	w, h := MapSize(m.width, m.height)
	m.mapView.SetSize(w, h)
	m.engine.Resize(m.mapView.Dots())
	m.panel.SetHeight(max(h-4, 4))
}

func (m *ExplorerModel) buildPanel() {
	columns := []table.Column{
		{Title: "Field", Width: 16},
		{Title: "Value", Width: panelWidth - 22},
	}
	rows := make([]table.Row, len(m.surface.Panel.Rows))
	for i, r := range m.surface.Panel.Rows {
		rows[i] = table.Row{truncate(r.Label, 16), truncate(r.Value, panelWidth-22)}
	}

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Secondary)
	s.Selected = s.Selected.Foreground(styles.Text).Bold(false)

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(max(len(rows)+1, 4)),
	)
	t.SetStyles(s)
	m.panel = t
}

func (m ExplorerModel) View() string {
	var b strings.Builder

	title := styles.Title.Render("geobounds")
	if m.surface.InfoVisible {
		title += styles.CountryName.Render("  " + m.surface.Info.Name)
		title += styles.Hint.Render("  " + m.surface.Info.Stats)
	}
	b.WriteString(title)
	b.WriteString("\n")

	side := styles.Pane(m.focus == focusSelector).
		Padding(0, 1).
		Width(sidebarWidth - 2).
		Render(m.viewSidebar())

	frame := m.engine.Frame()
	mapBox := styles.Pane(m.focus == focusMap).Render(m.mapView.Render(frame))

	cols := []string{side, mapBox}
	if m.surface.PanelVisible {
		cols = append(cols, m.viewPanel())
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(styles.ErrorText.Render(m.status))
		b.WriteString("\n")
	}

	var statusText string
	switch m.focus {
	case focusSelector:
		statusText = "↑↓ choose • enter select • esc clear filter • tab map • ctrl+c quit"
	case focusMap:
		statusText = "↑↓←→ move • HJKL pan • +/- zoom • enter inspect • 0-9 level • esc close • c clear • / search • q quit"
	}
	if len(frame.Loading) > 0 {
		statusText += " • loading " + strings.Join(frame.Loading, ", ")
	}
	if len(frame.Attribution) > 0 {
		statusText += " • " + strings.Join(frame.Attribution, " ")
	}
	b.WriteString(styles.StatusBar.Render(statusText))
	return b.String()
}

func (m ExplorerModel) viewSidebar() string {
	var b strings.Builder
	b.WriteString(styles.Subtitle.Render("Country"))
	b.WriteString("\n")
	b.WriteString(m.selector.View(m.surface.Selected, m.focus == focusSelector))

	if m.surface.ButtonsVisible {
		b.WriteString("\n\n")
		b.WriteString(styles.Subtitle.Render("Admin levels"))
		for _, btn := range m.surface.Buttons {
			b.WriteString("\n")
			if btn.Active {
				b.WriteString(styles.ActiveLevelButton.Render(btn.Label))
			} else {
				b.WriteString(styles.LevelButton.Render(btn.Label))
			}
		}
	}

	b.WriteString("\n\n")
	b.WriteString(styles.Subtitle.Render("Recent"))
	b.WriteString("\n")
	b.WriteString(m.recent.View(sidebarWidth - 4))
	return b.String()
}

func (m ExplorerModel) viewPanel() string {
	var b strings.Builder
	b.WriteString(styles.PanelTitle.Render(truncate(m.surface.Panel.Title, panelWidth-6)))
	b.WriteString(styles.Hint.Render("  [esc]"))
	b.WriteString("\n")
	if len(m.surface.Panel.Rows) == 0 {
		b.WriteString(styles.Empty.Render("No attributes at this level"))
	} else {
		b.WriteString(m.panel.View())
	}
	return styles.Panel.Width(panelWidth - 2).Render(b.String())
}
