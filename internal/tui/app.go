package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/rendis/geobounds/internal/app"
	"github.com/rendis/geobounds/internal/engine/mapctl"
	"github.com/rendis/geobounds/internal/model"
	"github.com/rendis/geobounds/internal/tui/styles"
	"github.com/rendis/geobounds/internal/tui/views"
	"github.com/rendis/geobounds/internal/ui"
)

type viewID int

const (
	viewLoading viewID = iota
	viewExplorer
)

// Options carry everything the explorer needs; main builds them from config.
type Options struct {
	LoadCatalog func(ctx context.Context) (model.Catalog, error)
	Engine      *mapctl.Engine
	Maps        *mapctl.Controller
	Locale      string
	RecentPath  string
	Log         logrus.FieldLogger
}

// App is the root bubbletea model.
type App struct {
	opts        Options
	ctx         context.Context
	currentView viewID
	width       int
	height      int
	spinner     spinner.Model
	catalog     model.Catalog
	mapReady    bool
	err         error
	explorer    views.ExplorerModel
}

type catalogLoadedMsg struct {
	Catalog model.Catalog
	Err     error
}

type mapReadyMsg struct {
	Err error
}

func NewApp(ctx context.Context, opts Options) App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)
	return App{opts: opts, ctx: ctx, currentView: viewLoading, spinner: s}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.loadCatalog(), a.initMap())
}

func (a App) loadCatalog() tea.Cmd {
	return func() tea.Msg {
		cat, err := a.opts.LoadCatalog(a.ctx)
		return catalogLoadedMsg{Catalog: cat, Err: err}
	}
}

// initMap blocks until the first WindowSizeMsg marks the engine ready.
func (a App) initMap() tea.Cmd {
	return func() tea.Msg {
		_, err := a.opts.Maps.Initialize(a.ctx)
		return mapReadyMsg{Err: err}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || (a.currentView == viewLoading && msg.String() == "q") {
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.currentView == viewLoading {
			w, h := views.MapSize(msg.Width, msg.Height)
			a.opts.Engine.Resize(w*2, h*4)
			a.opts.Engine.MarkReady()
		}
	case catalogLoadedMsg:
		if msg.Err != nil {
			a.err = fmt.Errorf("loading countries: %w", msg.Err)
			return a, nil
		}
		a.catalog = msg.Catalog
		return a.maybeStart()
	case mapReadyMsg:
		if msg.Err != nil {
			a.err = fmt.Errorf("initializing map: %w", msg.Err)
			return a, nil
		}
		a.mapReady = true
		return a.maybeStart()
	case spinner.TickMsg:
		if a.currentView == viewLoading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	if a.currentView != viewExplorer {
		return a, nil
	}
	m, cmd := a.explorer.Update(msg)
	a.explorer = m.(views.ExplorerModel)
	return a, cmd
}

// maybeStart switches to the explorer once both the catalog and the map are ready.
func (a App) maybeStart() (tea.Model, tea.Cmd) {
	if a.catalog == nil || !a.mapReady || a.currentView == viewExplorer {
		return a, nil
	}

	surface := ui.NewSurface(a.opts.Locale)
	ctrl := app.NewController(a.catalog, a.opts.Maps, a.opts.Engine, surface, a.opts.Log)
	ctrl.Start()

	var last string
	var recent []views.RecentCountry
	for _, r := range LoadRecent(a.opts.RecentPath) {
		cfg, ok := a.catalog.Lookup(r.Country)
		if !ok {
			continue
		}
		if last == "" {
			last = r.Country
		}
		recent = append(recent, views.RecentCountry{ID: r.Country, Name: cfg.DisplayName, Level: r.Level, OpenedAt: r.OpenedAt})
	}
	a.explorer = views.NewExplorerModel(views.ExplorerOptions{
		Controller:  ctrl,
		Surface:     surface,
		Engine:      a.opts.Engine,
		LastCountry: last,
		Recent:      recent,
		Remember: func(id string, level int) {
			if err := SaveRecent(a.opts.RecentPath, id, level); err != nil {
				a.opts.Log.WithError(err).Warn("saving recent countries")
			}
		},
	})
	a.currentView = viewExplorer
	return a, tea.Batch(a.explorer.Init(), a.sizeCmd())
}

func (a App) View() string {
	var content string
	switch a.currentView {
	case viewLoading:
		content = a.viewLoading()
	case viewExplorer:
		content = a.explorer.View()
	}

	return lipgloss.Place(
		a.width, a.height,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

func (a App) viewLoading() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("geobounds"))
	b.WriteString("\n")
	if a.err != nil {
		b.WriteString(styles.ErrorText.Render(a.err.Error()))
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("q quit"))
		return styles.Border.Render(b.String())
	}

	step := "Loading countries"
	if a.catalog != nil {
		step = "Preparing map"
	}
	b.WriteString(a.spinner.View() + " " + styles.CountryName.UnsetBold().Render(step))
	return styles.Border.Render(b.String())
}

// sizeCmd sends a WindowSizeMsg so newly created views get the current terminal size.
func (a App) sizeCmd() tea.Cmd {
	w, h := a.width, a.height
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: w, Height: h}
	}
}

// Run starts the TUI.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(NewApp(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
