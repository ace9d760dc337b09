// Package app wires configuration, workspace, workbook store, barcode
// renderer and label generator together. The CLI, the TUI and the label
// station server all start from an App.
package app

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/muurk/labelgen/internal/barcode"
	"github.com/muurk/labelgen/internal/catalog"
	"github.com/muurk/labelgen/internal/config"
	"github.com/muurk/labelgen/internal/files"
	"github.com/muurk/labelgen/internal/labels"
	"github.com/muurk/labelgen/internal/logging"
)

// Overrides replaces configured locations, typically from command flags.
type Overrides struct {
	Workspace string // Base directory
	Workbook  string // Workbook path, used as given
	Template  string // Template name or path
}

// App holds the long-lived components of one labelgen process.
type App struct {
	Config    *config.Registry
	Workspace *files.Workspace
	Store     *catalog.Store
	Renderer  *barcode.Renderer

	template string
	log      *zap.Logger
}

// New opens the workspace and workbook described by reg. Logging should be
// initialised before calling New so components pick up the right logger.
func New(reg *config.Registry, ov Overrides) (*App, error) {
	base := reg.Workspace.BaseDir
	if ov.Workspace != "" {
		base = ov.Workspace
	}
	ws, err := files.New(base)
	if err != nil {
		return nil, err
	}

	workbook := ov.Workbook
	if workbook == "" {
		workbook = ws.DataPath(reg.Workspace.DataFile)
	}

	store, err := catalog.Open(workbook, catalog.StoreOptions{
		HistoryDir: catalog.HistoryDirFor(workbook),
	})
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	renderer, err := barcode.NewRenderer(BarcodeOptions(reg))
	if err != nil {
		return nil, fmt.Errorf("barcode options: %w", err)
	}

	tpl := reg.Workspace.Template
	if ov.Template != "" {
		tpl = ov.Template
	}

	a := &App{
		Config:    reg,
		Workspace: ws,
		Store:     store,
		Renderer:  renderer,
		template:  tpl,
		log:       logging.Named("app"),
	}
	a.log.Debug("Application ready",
		zap.String("workspace", ws.Base),
		zap.String("workbook", workbook),
		zap.String("template", tpl))
	return a, nil
}

// BarcodeOptions converts the barcode section of the configuration.
func BarcodeOptions(reg *config.Registry) barcode.Options {
	b := reg.Barcode
	return barcode.Options{
		DPI:            b.DPI,
		ModuleWidthMM:  b.ModuleWidthMM,
		ModuleHeightMM: b.ModuleHeightMM,
		QuietZoneMM:    b.QuietZoneMM,
		FontSizePt:     b.FontSizePt,
		TextDistanceMM: b.TextDistanceMM,
		ShowText:       b.ShowText,
	}
}

// LabelOptions converts the label section of the configuration and points
// output at the workspace output directory.
func (a *App) LabelOptions() labels.Options {
	l := a.Config.Labels
	return labels.Options{
		Merge:          l.Merge,
		OutputDir:      a.Workspace.OutputDir(),
		FontName:       l.FontName,
		FontSizePt:     l.FontSizePt,
		ImageWidthIn:   l.ImageWidthIn,
		ImageHeightIn:  l.ImageHeightIn,
		CurrencySuffix: l.CurrencySuffix,
	}
}

// TemplateName is the template used when none is given explicitly.
func (a *App) TemplateName() string {
	return a.template
}

// LoadTemplate resolves and parses a template. An empty name selects the
// configured one.
func (a *App) LoadTemplate(name string) (*labels.Template, error) {
	if name == "" {
		name = a.template
	}
	path, err := a.Workspace.ResolveTemplate(name)
	if err != nil {
		return nil, err
	}
	return labels.LoadTemplate(path)
}

// Generator builds a label generator. mutate may adjust the options derived
// from the configuration and may be nil.
func (a *App) Generator(templateName string, mutate func(*labels.Options)) (*labels.Generator, error) {
	tpl, err := a.LoadTemplate(templateName)
	if err != nil {
		return nil, err
	}
	opts := a.LabelOptions()
	if mutate != nil {
		mutate(&opts)
	}
	return labels.NewGenerator(tpl, a.Renderer, opts), nil
}

// LogDir returns the directory for the daily log file, or "" when file
// logging is disabled.
func LogDir(reg *config.Registry, workspace string) string {
	p := reg.Preferences
	if !p.LogToFile || p.LogDir == "" {
		return ""
	}
	if filepath.IsAbs(p.LogDir) {
		return p.LogDir
	}
	if workspace == "" {
		workspace = reg.Workspace.BaseDir
	}
	return filepath.Join(workspace, p.LogDir)
}

// InitLogging configures the global logger for an interactive or server
// process: console output at level, the daily file sink from preferences
// and, when journal is set, the in-memory journal.
func InitLogging(reg *config.Registry, level, workspace string, journal bool) error {
	return logging.InitializeWithOptions(logging.Options{
		Level:   level,
		FileDir: LogDir(reg, workspace),
		Journal: journal,
	})
}
