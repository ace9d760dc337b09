package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/labelgen/internal/app"
	"github.com/muurk/labelgen/internal/catalog"
	"github.com/muurk/labelgen/internal/config"
	"github.com/muurk/labelgen/internal/files"
	"github.com/muurk/labelgen/internal/logging"
	"github.com/muurk/labelgen/internal/ui"
)

// Workspace command flags
var (
	backupDest  string
	olderThan   time.Duration
	logsLevel   string
	logsModule  string
	logsLimit   int
	logsFile    string
	forceConfig bool
)

func init() {
	rootCmd.AddCommand(workbookCmd)
	workbookCmd.AddCommand(workbookBackupCmd, workbookUndoCmd, workbookHistoryCmd, workbookCheckCmd)
	workbookBackupCmd.Flags().StringVarP(&backupDest, "output", "o", "", "Backup path (default: next to the workbook)")

	rootCmd.AddCommand(outputCmd)
	outputCmd.AddCommand(outputListCmd, outputCleanCmd)
	outputCleanCmd.Flags().DurationVar(&olderThan, "older-than", 0, "Only remove documents older than this, e.g. 168h")
	outputCleanCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(logsShowCmd, logsExportCmd)
	for _, c := range []*cobra.Command{logsShowCmd, logsExportCmd} {
		c.Flags().StringVar(&logsLevel, "level", "info", "Minimum level (debug, info, warn, error)")
		c.Flags().StringVar(&logsModule, "module", "", "Only this module, e.g. catalog or labels")
		c.Flags().StringVar(&logsFile, "file", "", "Log file to read (default: newest in the log directory)")
	}
	logsShowCmd.Flags().IntVar(&logsLimit, "limit", 50, "Show at most this many entries (0 = all)")

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd, configSetCmd, configPathCmd)
	configInitCmd.Flags().BoolVar(&forceConfig, "force", false, "Overwrite an existing config file")
}

// ---- workbook ----

var workbookCmd = &cobra.Command{
	Use:   "workbook",
	Short: "Back up, check and undo changes to the workbook",
	Long: `Back up, check and undo changes to the workbook.

Every change made through labelgen first saves a snapshot of the workbook,
so the most recent changes can be undone even from a later session.`,
}

var workbookBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the workbook to a timestamped backup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		dest, err := a.Store.Backup(backupDest)
		if err != nil {
			return catalogFailure(cmd, "Backup failed", err)
		}
		printer(cmd).PrintSuccess("Workbook backed up",
			ui.Detail{Key: "Workbook", Value: a.Store.Path()},
			ui.Detail{Key: "Backup", Value: dest})
		return nil
	},
}

var workbookUndoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the most recent change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		snap, err := a.Store.Undo()
		if err != nil {
			return catalogFailure(cmd, "Cannot undo", err)
		}
		printer(cmd).PrintSuccess("Change undone",
			ui.Detail{Key: "Change", Value: snap.Description},
			ui.Detail{Key: "Made at", Value: snap.Timestamp.Format(time.DateTime)},
			ui.Detail{Key: "Remaining", Value: strconv.Itoa(a.Store.History().Len())})
		return nil
	},
}

var workbookHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List changes that can be undone",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		snaps := a.Store.History().List()
		if len(snaps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No changes to undo.")
			return nil
		}
		rows := make([][]string, 0, len(snaps))
		// newest first, the order undo applies them
		for i := len(snaps) - 1; i >= 0; i-- {
			rows = append(rows, []string{snaps[i].Timestamp.Format(time.DateTime), snaps[i].Description})
		}
		printer(cmd).PrintTable([]string{"Time", "Change"}, rows)
		return nil
	},
}

var workbookCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate every category and product",
	Long: `Validate the workbook: rows that could not be read, invalid names,
IDs and prices, and values that are valid but print badly on a label.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}

		var problems, warnings []string
		warnings = append(warnings, a.Store.Warnings()...)
		for _, c := range a.Store.Categories() {
			if err := catalog.ValidateCategoryName(c.Name); err != nil {
				problems = append(problems, fmt.Sprintf("category %d: %s", c.ID, catalog.GetShortErrorMessage(err)))
			}
		}
		for _, p := range a.Store.Products() {
			warn, errs := catalog.SeparateWarningsAndErrors(catalog.ValidateProduct(p))
			for _, e := range errs {
				problems = append(problems, fmt.Sprintf("%s %s: %s", p.Code(), p.Name, catalog.GetShortErrorMessage(e)))
			}
			for _, w := range warn {
				warnings = append(warnings, fmt.Sprintf("%s %s: %s", p.Code(), p.Name, strings.TrimPrefix(catalog.GetShortErrorMessage(w), "warning: ")))
			}
		}

		if outputFormat == "json" {
			return printJSON(cmd, map[string]any{
				"workbook": a.Store.Path(),
				"errors":   problems,
				"warnings": warnings,
			})
		}

		p := printer(cmd)
		if len(warnings) > 0 {
			p.PrintListing("Warnings", warnings)
		}
		summary := []ui.Detail{
			{Key: "Workbook", Value: a.Store.Path()},
			{Key: "Categories", Value: strconv.Itoa(len(a.Store.Categories()))},
			{Key: "Products", Value: strconv.Itoa(len(a.Store.Products()))},
			{Key: "Warnings", Value: strconv.Itoa(len(warnings))},
		}
		if len(problems) > 0 {
			err := fmt.Errorf("%d problem(s) found", len(problems))
			p.PrintError("Workbook has problems", err, problems)
			return err
		}
		p.PrintSuccess("Workbook is valid", summary...)
		return nil
	},
}

// ---- output ----

var outputCmd = &cobra.Command{
	Use:   "output",
	Short: "List and clean generated documents",
}

var outputListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generated documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		outputs, err := a.Workspace.ListOutputs()
		if err != nil {
			return err
		}
		switch outputFormat {
		case "json":
			return printJSON(cmd, outputs)
		case "compact":
			for _, f := range outputs {
				fmt.Fprintln(cmd.OutOrStdout(), f.Path)
			}
			return nil
		}
		if len(outputs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No documents in %s\n", a.Workspace.OutputDir())
			return nil
		}
		var total int64
		rows := make([][]string, len(outputs))
		for i, f := range outputs {
			rows[i] = []string{f.Name, files.HumanSize(f.Size), f.ModTime.Format(time.DateTime)}
			total += f.Size
		}
		p := printer(cmd)
		p.PrintTable([]string{"Document", "Size", "Modified"}, rows)
		p.Printf("%d document(s), %s in %s\n", len(outputs), files.HumanSize(total), a.Workspace.OutputDir())
		return nil
	},
}

var outputCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated documents",
	Example: `  # Everything
  labelgen output clean

  # Older than a week, no prompt
  labelgen output clean --older-than 168h -y`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		scope := "All documents"
		if olderThan > 0 {
			scope = "Documents older than " + olderThan.String()
		}
		if !confirmDestructive(cmd, a, assumeYes, "Clean output directory",
			[]string{scope + " in " + a.Workspace.OutputDir() + " will be deleted"}) {
			return nil
		}
		removed, err := a.Workspace.CleanOutput(olderThan)
		if err != nil {
			return err
		}
		printer(cmd).PrintSuccess("Output cleaned",
			ui.Detail{Key: "Removed", Value: strconv.Itoa(len(removed))},
			ui.Detail{Key: "Folder", Value: a.Workspace.OutputDir()})
		return nil
	},
}

// ---- logs ----

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Read the daily log files",
	Long: `Read the daily log files written when preferences.log_to_file is on.

Files are named labelgen_YYYYMMDD.log and hold one JSON object per line.`,
}

// logEntries reads the selected log file through the filter flags.
func logEntries(limit int) ([]logging.Entry, string, error) {
	path := logsFile
	if path == "" {
		reg, err := loadConfig()
		if err != nil {
			return nil, "", err
		}
		dir := app.LogDir(reg, workspaceDir)
		if dir == "" {
			return nil, "", errors.New("file logging is disabled; set preferences.log_to_file to true")
		}
		found, err := logging.ListLogFiles(dir)
		if err != nil {
			return nil, "", err
		}
		if len(found) == 0 {
			return nil, "", fmt.Errorf("no log files in %s", dir)
		}
		path = found[0]
	}
	entries, err := logging.ReadLogFile(path, logging.Filter{Level: logsLevel, Module: logsModule, Limit: limit})
	return entries, path, err
}

var logsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show recent log entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, path, err := logEntries(logsLimit)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return printJSON(cmd, entries)
		}
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = e.String()
		}
		if outputFormat == "compact" {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			return nil
		}
		printer(cmd).PrintListing(filepath.Base(path), lines)
		return nil
	},
}

var logsExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write log entries to a text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, path, err := logEntries(0)
		if err != nil {
			return err
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if err := logging.Export(f, entries); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		printer(cmd).PrintSuccess("Logs exported",
			ui.Detail{Key: "Source", Value: path},
			ui.Detail{Key: "Entries", Value: strconv.Itoa(len(entries))},
			ui.Detail{Key: "File", Value: args[0]})
		return nil
	},
}

// ---- config ----

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadConfig()
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return printJSON(cmd, reg)
		}
		data, err := yaml.Marshal(reg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			config.SetConfigPath(configPath)
		}
		path, err := config.CreateDefaultConfig(forceConfig)
		if err != nil {
			return err
		}
		printer(cmd).PrintSuccess("Config created", ui.Detail{Key: "File", Value: path})
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: "Change one setting and save the config file.\n\nKeys:\n  " +
		strings.Join(config.Keys(), "\n  "),
	Example: `  labelgen config set labels.default_quantity 3
  labelgen config set workspace.base_dir ~/shop`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := reg.Set(args[0], args[1]); err != nil {
			return err
		}
		var problems, warnings []string
		for _, e := range reg.Validate() {
			if strings.HasPrefix(e.Error(), "warning:") {
				warnings = append(warnings, e.Error())
			} else {
				problems = append(problems, e.Error())
			}
		}
		if len(problems) > 0 {
			err := errors.New("configuration is invalid, not saved")
			printer(cmd).PrintError("Cannot set "+args[0], err, problems)
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		details := []ui.Detail{{Key: args[0], Value: args[1]}}
		if len(warnings) > 0 {
			for _, w := range warnings {
				details = append(details, ui.Detail{Key: "Warning", Value: strings.TrimPrefix(w, "warning: ")})
			}
			printer(cmd).PrintWarning("Setting saved with warnings", details...)
			return nil
		}
		printer(cmd).PrintSuccess("Setting saved", details...)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			config.SetConfigPath(configPath)
		}
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}
