package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/labelgen/internal/app"
	"github.com/muurk/labelgen/internal/labels"
	"github.com/muurk/labelgen/internal/logging"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenProducts   Screen = "products"
	ScreenCategories Screen = "categories"
	ScreenGenerate   Screen = "generate"
	ScreenLogs       Screen = "logs"
	ScreenStations   Screen = "stations"
)

// Messages for screen transitions
type screenTransitionMsg struct {
	screen Screen
}

type goBackMsg struct{}

// filterMsg shows one category (or all, for -1) on the product screen.
type filterMsg struct {
	categoryID int
}

type generateRequestMsg struct {
	requests []labels.Request
	merge    bool
	fillPage bool
}

// catalogReloadedMsg follows a reload of the workbook from disk.
type catalogReloadedMsg struct {
	err error
}

func switchTo(s Screen) tea.Cmd {
	return func() tea.Msg { return screenTransitionMsg{screen: s} }
}

func goBack() tea.Msg {
	return goBackMsg{}
}

// Options configures the TUI.
type Options struct {
	// Start is the first screen; products when empty.
	Start Screen
	// WatchWorkbook reloads the catalog when the workbook changes on disk.
	WatchWorkbook bool
	// Scan replaces station discovery, mostly for tests.
	Scan ScanFunc
}

// AppModel is the top-level coordinator model that manages screen
// transitions.
type AppModel struct {
	CurrentScreen  Screen
	PreviousScreen Screen

	Products   ProductsModel
	Categories CategoriesModel
	Generate   GenerateModel
	Logs       LogsModel
	Stations   StationsModel

	// Notice is a one-line message shown on the product screen, such as a
	// reload notification.
	Notice string

	Width  int
	Height int

	app     *app.App
	opts    Options
	ctx     context.Context
	reloads chan error
	log     *zap.Logger
}

// NewAppModel creates the application model. ctx bounds background work
// such as the workbook watcher and running generations.
func NewAppModel(ctx context.Context, a *app.App, opts Options) AppModel {
	if opts.Start == "" {
		opts.Start = ScreenProducts
	}
	store := a.Store
	m := AppModel{
		CurrentScreen: ScreenProducts,
		Products:      NewProductsModel(store.Products(), store.Categories(), a.Config.Labels.DefaultQuantity, a.Config.Labels.Merge),
		Categories:    NewCategoriesModel(store.Categories(), store.CategoryCounts()),
		Generate:      NewGenerateModel(nil, a.TemplateName()),
		Logs:          NewLogsModel(logging.GetJournal()),
		Stations:      NewStationsModel(opts.Scan),
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		app:           a,
		opts:          opts,
		ctx:           ctx,
		reloads:       make(chan error, 1),
		log:           logging.Named("tui"),
	}
	if w := store.Warnings(); len(w) > 0 {
		m.Notice = fmt.Sprintf("%d workbook warning(s); see logs", len(w))
	}
	if opts.Start != ScreenProducts && opts.Start != ScreenGenerate {
		m.CurrentScreen = opts.Start
	}
	return m
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.opts.WatchWorkbook {
		cmds = append(cmds, m.startWatch, waitForReload(m.reloads))
	}
	if m.CurrentScreen == ScreenStations {
		cmds = append(cmds, m.Stations.Init())
	}
	return tea.Batch(cmds...)
}

// startWatch runs the workbook watcher until the context ends.
func (m AppModel) startWatch() tea.Msg {
	go func() {
		err := m.app.Store.Watch(m.ctx, func(err error) {
			select {
			case m.reloads <- err:
			default:
			}
		})
		if err != nil {
			m.log.Warn("Workbook watcher stopped", zap.Error(err))
		}
	}()
	return nil
}

func waitForReload(reloads <-chan error) tea.Cmd {
	return func() tea.Msg {
		return catalogReloadedMsg{err: <-reloads}
	}
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m.broadcast(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case screenTransitionMsg:
		return m.transitionTo(msg.screen)

	case goBackMsg:
		return m.transitionTo(ScreenProducts)

	case filterMsg:
		m.Products.SetFilter(msg.categoryID)
		return m.transitionTo(ScreenProducts)

	case generateRequestMsg:
		return m.startGeneration(msg)

	case catalogReloadedMsg:
		m.reloadCatalog(msg.err)
		return m, waitForReload(m.reloads)
	}

	return m.updateCurrentScreen(msg)
}

// broadcast passes a message to every screen.
func (m AppModel) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var updated tea.Model
	var cmd tea.Cmd

	updated, cmd = m.Products.Update(msg)
	m.Products = updated.(ProductsModel)
	cmds = append(cmds, cmd)
	updated, cmd = m.Categories.Update(msg)
	m.Categories = updated.(CategoriesModel)
	cmds = append(cmds, cmd)
	updated, cmd = m.Generate.Update(msg)
	m.Generate = updated.(GenerateModel)
	cmds = append(cmds, cmd)
	updated, cmd = m.Logs.Update(msg)
	m.Logs = updated.(LogsModel)
	cmds = append(cmds, cmd)
	updated, cmd = m.Stations.Update(msg)
	m.Stations = updated.(StationsModel)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// updateCurrentScreen routes updates to the currently active screen.
// Results of background work go to the screen that started it.
func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var updated tea.Model
	var cmd tea.Cmd

	screen := m.CurrentScreen
	switch msg.(type) {
	case generationEventMsg, generationDoneMsg:
		screen = ScreenGenerate
	case scanCompleteMsg, healthMsg:
		screen = ScreenStations
	case tea.KeyMsg:
		if screen == ScreenProducts {
			m.Notice = ""
		}
	}

	switch screen {
	case ScreenProducts:
		updated, cmd = m.Products.Update(msg)
		m.Products = updated.(ProductsModel)
	case ScreenCategories:
		updated, cmd = m.Categories.Update(msg)
		m.Categories = updated.(CategoriesModel)
	case ScreenGenerate:
		updated, cmd = m.Generate.Update(msg)
		m.Generate = updated.(GenerateModel)
	case ScreenLogs:
		updated, cmd = m.Logs.Update(msg)
		m.Logs = updated.(LogsModel)
	case ScreenStations:
		updated, cmd = m.Stations.Update(msg)
		m.Stations = updated.(StationsModel)
	}
	return m, cmd
}

// transitionTo transitions to a new screen
func (m AppModel) transitionTo(screen Screen) (tea.Model, tea.Cmd) {
	m.PreviousScreen = m.CurrentScreen
	m.CurrentScreen = screen

	var cmd tea.Cmd
	switch screen {
	case ScreenCategories:
		m.Categories.Reload(m.app.Store.Categories(), m.app.Store.CategoryCounts())
	case ScreenLogs:
		m.Logs.Refresh()
	case ScreenStations:
		if len(m.Stations.Stations) == 0 && !m.Stations.Scanning {
			m.Stations.Scanning = true
		}
		if m.Stations.Scanning {
			cmd = m.Stations.Init()
		}
	}
	return m, cmd
}

// startGeneration builds a generator from the configured template and
// switches to the progress screen.
func (m AppModel) startGeneration(req generateRequestMsg) (tea.Model, tea.Cmd) {
	gen, err := m.app.Generator("", func(o *labels.Options) {
		o.Merge = req.merge
		o.FillPage = req.fillPage
	})
	m.Generate = NewGenerateModel(req.requests, m.app.TemplateName())
	m.Generate.Width, m.Generate.Height = m.Width, m.Height
	m.Generate.Progress.SetWidth(max(m.Width-8, MinTerminalWidth-8))
	m.PreviousScreen = m.CurrentScreen
	m.CurrentScreen = ScreenGenerate

	if err != nil {
		m.log.Warn("Cannot start generation", zap.Error(err))
		m.Generate.Err = err
		return m, nil
	}

	m.log.Info("Generating labels from TUI",
		zap.Int("products", len(req.requests)),
		zap.Bool("merge", req.merge),
		zap.Bool("fill_page", req.fillPage))
	cmd := m.Generate.Start(m.ctx, gen)
	return m, cmd
}

func (m *AppModel) reloadCatalog(err error) {
	if err != nil {
		m.Notice = "Workbook reload failed: " + err.Error()
		return
	}
	store := m.app.Store
	m.Products.Reload(store.Products(), store.Categories())
	m.Categories.Reload(store.Categories(), store.CategoryCounts())
	m.Notice = "Workbook reloaded from disk"
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenProducts:
		if m.Notice != "" && m.Products.Status == "" {
			p := m.Products
			p.Status = m.Notice
			return p.View()
		}
		return m.Products.View()
	case ScreenCategories:
		return m.Categories.View()
	case ScreenGenerate:
		return m.Generate.View()
	case ScreenLogs:
		return m.Logs.View()
	case ScreenStations:
		return m.Stations.View()
	default:
		return "Unknown screen"
	}
}

// Run starts the TUI on the terminal and blocks until the user quits.
func Run(ctx context.Context, a *app.App, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewAppModel(ctx, a, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
