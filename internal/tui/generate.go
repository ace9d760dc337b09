package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/labelgen/internal/app"
	"github.com/muurk/labelgen/internal/catalog"
	"github.com/muurk/labelgen/internal/labels"
	"github.com/muurk/labelgen/internal/logging"
	"github.com/muurk/labelgen/internal/ui"
)

// Messages for the generation run
type generationEventMsg labels.Event

type generationDoneMsg struct {
	result *labels.Result
	err    error
}

// generationKeyMap defines key bindings for the generation screen
type generationKeyMap struct {
	Cancel key.Binding
	Back   key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k generationKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Cancel, k.Back, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k generationKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// GenerateModel runs one generation and shows its progress, then the
// result.
type GenerateModel struct {
	Running bool
	Result  *labels.Result
	Err     error

	Requests []labels.Request
	Template string
	Started  time.Time

	Width    int
	Height   int
	Progress *ui.Progress
	Spinner  spinner.Model
	Help     help.Model
	Keys     generationKeyMap

	events chan tea.Msg
	cancel context.CancelFunc
	report labels.ProgressFunc
}

// NewGenerateModel prepares a run; Start launches it.
func NewGenerateModel(reqs []labels.Request, template string) GenerateModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return GenerateModel{
		Requests: reqs,
		Template: template,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		Progress: ui.NewProgress("Generating labels", app.GenerationSteps...).SetWidth(DefaultWidth - 8),
		Spinner:  s,
		Help:     help.New(),
		Keys: generationKeyMap{
			Cancel: key.NewBinding(key.WithKeys("esc", "ctrl+x"), key.WithHelp("esc", "cancel")),
			Back:   key.NewBinding(key.WithKeys("enter", "b"), key.WithHelp("enter", "back to products")),
			Quit:   key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		},
	}
}

// Start runs gen in the background. Events arrive as generationEventMsg
// followed by one generationDoneMsg.
func (m *GenerateModel) Start(ctx context.Context, gen *labels.Generator) tea.Cmd {
	ctx, cancel := context.WithCancel(ctx)
	events := make(chan tea.Msg, 64)
	m.events = events
	m.cancel = cancel
	m.Running = true
	m.Started = time.Now()

	reqs := m.Requests
	m.report = app.StepReporter(m.Progress.UpdateStep)

	go func() {
		defer close(events)
		res, err := gen.Generate(ctx, reqs, func(ev labels.Event) {
			select {
			case events <- generationEventMsg(ev):
			case <-ctx.Done():
			}
		})
		if err != nil {
			logging.Named("tui").Warn("Generation failed", zap.Error(err))
		}
		events <- generationDoneMsg{result: res, err: err}
	}()

	// Step updates are applied on the update loop, not the worker.
	return tea.Batch(waitForEvent(events), m.Spinner.Tick)
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

// Init implements tea.Model.
func (m GenerateModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m GenerateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.SetWidth(msg.Width - 8)
		return m, nil

	case generationEventMsg:
		ev := labels.Event(msg)
		if m.report != nil {
			m.report(ev)
		}
		m.Progress.SetPercent(ev.Percent / 100)
		return m, waitForEvent(m.events)

	case generationDoneMsg:
		m.Running = false
		m.Result = msg.result
		m.Err = msg.err
		if m.cancel != nil {
			m.cancel()
		}
		if msg.err != nil && m.Progress.Current > 0 {
			m.Progress.FailStep(m.Progress.Current, catalog.GetShortErrorMessage(msg.err))
		}
		return m, nil

	case spinner.TickMsg:
		if !m.Running {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Cancel) && m.Running:
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		case key.Matches(msg, m.Keys.Back) && !m.Running:
			return m, switchTo(ScreenProducts)
		case key.Matches(msg, m.Keys.Quit) && !m.Running:
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the generation screen
func (m GenerateModel) View() string {
	var b strings.Builder

	if m.Running {
		b.WriteString(RenderTitle(m.Spinner.View() + " Generating labels"))
	} else {
		b.WriteString(RenderTitle("Label generation"))
	}
	b.WriteString("\n")
	b.WriteString(StatusStyle.Render(fmt.Sprintf("Template: %s   Products: %d", m.Template, len(m.Requests))))
	b.WriteString("\n\n")
	b.WriteString(m.Progress.Render())
	b.WriteString("\n")

	if !m.Running {
		b.WriteString(m.resultBox())
	}

	helpText := m.Help.View(m.Keys)
	return RenderApplicationContainer(b.String(), helpText, m.Width, m.Height)
}

func (m GenerateModel) resultBox() string {
	width := max(m.Width-8, MinTerminalWidth-8)
	if m.Err != nil {
		tips := []string{
			"Check that the template has a label table",
			"Close the output document if it is open in a word processor",
		}
		var catErr *catalog.CatalogError
		if errors.As(m.Err, &catErr) {
			tips = ui.HintLines(catalog.GetTroubleshootingHint(m.Err))
		}
		return ui.NewFailureResult("Label generation failed", m.Err, tips).SetWidth(width).Render()
	}
	if m.Result == nil {
		return ""
	}

	files := make([]string, len(m.Result.Files))
	for i, f := range m.Result.Files {
		files[i] = filepath.Base(f)
	}
	details := []ui.Detail{
		{Key: "Files", Value: strings.Join(files, ", ")},
		{Key: "Pages", Value: fmt.Sprint(m.Result.Pages)},
		{Key: "Labels", Value: fmt.Sprint(m.Result.Labels)},
		{Key: "Duration", Value: m.Result.Duration.Round(time.Millisecond).String()},
	}
	if len(m.Result.Files) > 0 {
		details = append(details, ui.Detail{Key: "Folder", Value: filepath.Dir(m.Result.Files[0])})
	}
	if len(m.Result.MissingImages) > 0 {
		details = append(details, ui.Detail{Key: "Text only", Value: strings.Join(m.Result.MissingImages, ", ")})
		return ui.NewWarningResult(m.Result.Message(), details...).SetWidth(width).Render()
	}
	return ui.NewSuccessResult(m.Result.Message(), details...).SetWidth(width).Render()
}
