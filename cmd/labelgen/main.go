// Labelgen manages a small shop's product catalog and prints barcode label
// sheets from it.
//
// The catalog lives in an Excel workbook (a "type" sheet of categories and
// a "product" sheet of products). Labels are laid out on a Word template
// whose first table is the label grid; every cell receives a Code128
// barcode of the product's PPON code plus its name and price.
//
// Usage:
//
//	labelgen [command] [flags]
//
// Running without arguments opens the interactive terminal UI.
// See 'labelgen --help' for available commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/labelgen/internal/app"
	"github.com/muurk/labelgen/internal/catalog"
	"github.com/muurk/labelgen/internal/config"
	"github.com/muurk/labelgen/internal/logging"
	"github.com/muurk/labelgen/internal/tui"
	"github.com/muurk/labelgen/internal/ui"
	"github.com/muurk/labelgen/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath   string
	workspaceDir string
	workbookPath string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "labelgen",
	Short: "Barcode label generator",
	Long: `Manage a product catalog and print Code128 barcode label sheets.

Products and categories are kept in an Excel workbook. Label sheets are
written as Word documents based on a template whose first table is the
label grid.

If no command is specified, the interactive terminal UI will launch.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&workspaceDir, "workspace", "", "Workspace directory holding templates/, data/ and output/")
	rootCmd.PersistentFlags().StringVar(&workbookPath, "workbook", "", "Workbook path (overrides the configured data file)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, compact, json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Console log level (debug, info, warn, error)")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(versionCmd)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal UI.

The product screen lists the catalog with a label quantity per product.
Select products, adjust quantities and press g to generate label sheets.
The workbook is reloaded automatically when it changes on disk.`,
	Example: `  # Launch the TUI (also the default with no command)
  labelgen
  labelgen tui

  # Use a workbook outside the workspace
  labelgen tui --workbook ~/shop/products.xlsx`,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	reg, err := loadConfig()
	if err != nil {
		return err
	}
	// The console sink would draw over the UI, so only the journal and the
	// file sink are attached.
	if err := app.InitLogging(reg, "", workspaceDir, true); err != nil {
		return fmt.Errorf("failed to initialise logging: %w", err)
	}
	a, err := newApp(reg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	return tui.Run(ctx, a, tui.Options{WatchWorkbook: true})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "labelgen %s (commit: %s)\n", version.Version, version.Commit)
	},
}

// loadConfig reads the user configuration, honouring --config.
func loadConfig() (*config.Registry, error) {
	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	reg, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return reg, nil
}

// openLogging loads the configuration and starts console logging at
// --log-level, for commands that do not need the workbook.
func openLogging() (*config.Registry, error) {
	reg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := app.InitLogging(reg, logLevel, workspaceDir, false); err != nil {
		return nil, fmt.Errorf("failed to initialise logging: %w", err)
	}
	return reg, nil
}

// openApp is openLogging followed by opening the workspace and workbook.
func openApp() (*app.App, error) {
	reg, err := openLogging()
	if err != nil {
		return nil, err
	}
	return newApp(reg)
}

func newApp(reg *config.Registry) (*app.App, error) {
	a, err := app.New(reg, app.Overrides{
		Workspace: workspaceDir,
		Workbook:  workbookPath,
	})
	if err != nil {
		return nil, err
	}
	for _, w := range a.Store.Warnings() {
		logging.Warn("Workbook: " + w)
	}
	return a, nil
}

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func printer(cmd *cobra.Command) *ui.Printer {
	return ui.NewPrinter(cmd.OutOrStdout())
}

// catalogFailure prints a catalog error box with its troubleshooting hint
// and returns err so the command exits non-zero.
func catalogFailure(cmd *cobra.Command, title string, err error) error {
	if outputFormat != "json" {
		printer(cmd).PrintError(title, err, ui.HintLines(catalog.GetTroubleshootingHint(err)))
	}
	return err
}

// confirmDestructive asks for confirmation when the preferences require it.
// yes skips the prompt.
func confirmDestructive(cmd *cobra.Command, a *app.App, yes bool, title string, warnings []string) bool {
	if yes || !a.Config.Preferences.ConfirmDestructive {
		return true
	}
	return ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), title, warnings, "yes")
}
