package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/labelgen/internal/api"
	"github.com/muurk/labelgen/internal/app"
	"github.com/muurk/labelgen/internal/discovery"
	"github.com/muurk/labelgen/internal/labels"
	"github.com/muurk/labelgen/internal/logging"
	"github.com/muurk/labelgen/internal/station"
	"github.com/muurk/labelgen/internal/ui"
)

// Remote command flags
var (
	stationURL   string
	stationName  string
	scanTimeout  int
	downloadDir  string
	remoteMerge  bool
	remoteOutput string
)

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.PersistentFlags().StringVar(&stationURL, "url", "", "Station URL (skips discovery)")
	remoteCmd.PersistentFlags().StringVar(&stationName, "station", "", "Station instance name to discover")
	remoteCmd.PersistentFlags().IntVar(&scanTimeout, "timeout", 0, "Discovery timeout in seconds (default: preferences.discover_timeout)")

	remoteCmd.AddCommand(remoteScanCmd, remoteInfoCmd, remoteProductsCmd, remoteTemplatesCmd, remoteLogsCmd, remoteBarcodeCmd, remoteGenerateCmd)

	remoteLogsCmd.Flags().StringVar(&logsLevel, "level", "info", "Minimum level (debug, info, warn, error)")
	remoteLogsCmd.Flags().StringVar(&logsModule, "module", "", "Only this module, e.g. catalog or server")
	remoteLogsCmd.Flags().IntVar(&logsLimit, "limit", 50, "Show at most this many entries")
	remoteBarcodeCmd.Flags().StringVarP(&barcodeOutput, "output", "o", "", "PNG file to write (default: <code>.png)")

	remoteProductsCmd.Flags().StringVar(&selectCategory, "category", "", "Only list this category (name or ID)")

	remoteGenerateCmd.Flags().StringArrayVar(&selectItems, "item", nil, "Select a product as category:id[:quantity] (repeatable)")
	remoteGenerateCmd.Flags().IntVar(&labelQuantity, "quantity", 0, "Labels per product (default: station default)")
	remoteGenerateCmd.Flags().BoolVar(&fillPage, "fill-page", false, "Fill one whole page per product")
	remoteGenerateCmd.Flags().BoolVar(&remoteMerge, "merge", false, "Write all pages into one document (default: station setting)")
	remoteGenerateCmd.Flags().StringVar(&labelTemplate, "template", "", "Template name on the station")
	remoteGenerateCmd.Flags().StringVar(&remoteOutput, "output", "", "File name of the merged document")
	remoteGenerateCmd.Flags().StringVar(&downloadDir, "dest", "", "Download folder (default: workspace output directory)")
	_ = remoteGenerateCmd.MarkFlagRequired("item")
}

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Work with label stations on the network",
	Long: `Work with label stations: labelgen-server instances on the local network.

Stations are found via mDNS (` + discovery.ServiceType + `). Use --url to
reach a station directly, or --station to pick one by name.`,
}

func discoverTimeout() time.Duration {
	if scanTimeout > 0 {
		return time.Duration(scanTimeout) * time.Second
	}
	if reg, err := loadConfig(); err == nil && reg.Preferences.DiscoverTimeout > 0 {
		return time.Duration(reg.Preferences.DiscoverTimeout) * time.Second
	}
	return discovery.DefaultScanTimeout
}

// stationClient returns a client for --url, the named --station, or the
// only station on the network.
func stationClient(ctx context.Context) (*station.Client, error) {
	if stationURL != "" {
		return station.NewClientWithURL(stationURL), nil
	}

	scanner := discovery.NewScanner()
	scanner.Timeout = discoverTimeout()
	if stationName != "" {
		st, err := scanner.Find(ctx, stationName)
		if err != nil {
			return nil, err
		}
		return station.NewClient(st), nil
	}

	stations, err := scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	switch len(stations) {
	case 0:
		return nil, errors.New("no label station found; start labelgen-server or pass --url")
	case 1:
		return station.NewClient(stations[0]), nil
	default:
		names := make([]string, len(stations))
		for i, st := range stations {
			names[i] = st.Instance
		}
		return nil, fmt.Errorf("%d stations found (%s); choose one with --station", len(stations), strings.Join(names, ", "))
	}
}

func remoteFailure(cmd *cobra.Command, title string, err error) error {
	if outputFormat != "json" {
		printer(cmd).PrintError(title, err, ui.HintLines(station.GetTroubleshootingHint(err)))
	}
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var remoteScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find label stations on the network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openLogging(); err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		timeout := discoverTimeout()
		if outputFormat != "json" {
			fmt.Fprintf(cmd.OutOrStdout(), "Scanning for label stations (timeout: %s)...\n\n", timeout)
		}
		stations, err := discovery.Scan(ctx, timeout)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		if outputFormat == "json" {
			return printJSON(cmd, stations)
		}
		if len(stations) == 0 {
			printer(cmd).PrintError("No stations found", errors.New("no "+discovery.ServiceType+" services answered"), []string{
				"Start 'labelgen-server' on a machine in this network",
				"Check that server.advertise is true on the station",
				"mDNS is often blocked between Wi-Fi and wired segments; try --url",
				"Try a longer --timeout",
			})
			return nil
		}

		rows := make([][]string, len(stations))
		for i, st := range stations {
			status := "unreachable"
			c := station.NewClient(st)
			c.SetRetry(0, 0)
			c.SetTimeout(3 * time.Second)
			if h, err := c.Health(ctx); err == nil {
				status = fmt.Sprintf("%s, %d products", h.Status, h.Products)
			}
			rows[i] = []string{st.Instance, st.BaseURL(), st.Version, status}
		}
		printer(cmd).PrintTable([]string{"Station", "URL", "Version", "Status"}, rows)
		return nil
	},
}

var remoteProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "List a station's products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openLogging(); err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		c, err := stationClient(ctx)
		if err != nil {
			return remoteFailure(cmd, "No station", err)
		}
		products, err := c.Products(ctx, selectCategory)
		if err != nil {
			return remoteFailure(cmd, "Cannot list products", err)
		}

		switch outputFormat {
		case "json":
			return printJSON(cmd, products)
		case "compact":
			for _, p := range products {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s / %s  %s\n", p.Code, p.CategoryName, p.Name, p.DisplayPrice)
			}
			return nil
		}
		rows := make([][]string, len(products))
		for i, p := range products {
			rows[i] = []string{p.Code, p.CategoryName, strconv.Itoa(p.ID), p.Name, p.DisplayPrice}
		}
		printer(cmd).PrintTable([]string{"Code", "Category", "ID", "Name", "Price"}, rows)
		fmt.Fprintf(cmd.OutOrStdout(), "%d product(s) on %s\n", len(products), c.BaseURL)
		return nil
	},
}

var remoteInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show a station's version and status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openLogging(); err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		c, err := stationClient(ctx)
		if err != nil {
			return remoteFailure(cmd, "No station", err)
		}
		v, err := c.Version(ctx)
		if err != nil {
			return remoteFailure(cmd, "Station unreachable", err)
		}
		h, err := c.Health(ctx)
		if err != nil {
			return remoteFailure(cmd, "Station unreachable", err)
		}
		if outputFormat == "json" {
			return printJSON(cmd, map[string]any{"url": c.BaseURL, "version": v, "health": h})
		}
		printer(cmd).PrintSuccess("Station "+h.Status,
			ui.Detail{Key: "URL", Value: c.BaseURL},
			ui.Detail{Key: "Version", Value: fmt.Sprintf("%s (commit: %s)", v.Version, v.Commit)},
			ui.Detail{Key: "Workbook", Value: h.Workbook},
			ui.Detail{Key: "Products", Value: strconv.Itoa(h.Products)},
			ui.Detail{Key: "Clients", Value: strconv.Itoa(h.Clients)})
		return nil
	},
}

var remoteTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the templates a station can print with",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openLogging(); err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		c, err := stationClient(ctx)
		if err != nil {
			return remoteFailure(cmd, "No station", err)
		}
		tpls, err := c.Templates(ctx)
		if err != nil {
			return remoteFailure(cmd, "Cannot list templates", err)
		}
		if outputFormat == "json" {
			return printJSON(cmd, tpls)
		}
		rows := make([][]string, len(tpls))
		for i, t := range tpls {
			name := t.Name
			if t.Default {
				name += " *"
			}
			grid := fmt.Sprintf("%d×%d, %d per page", t.Rows, t.Cols, t.Capacity)
			if t.Error != "" {
				grid = t.Error
			}
			rows[i] = []string{name, grid}
		}
		printer(cmd).PrintTable([]string{"Template", "Grid"}, rows)
		return nil
	},
}

var remoteLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show a station's recent log entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openLogging(); err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		c, err := stationClient(ctx)
		if err != nil {
			return remoteFailure(cmd, "No station", err)
		}
		entries, err := c.Logs(ctx, logsLevel, logsModule, logsLimit)
		if err != nil {
			return remoteFailure(cmd, "Cannot read logs", err)
		}
		if outputFormat == "json" {
			return printJSON(cmd, entries)
		}
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = logging.Entry{Time: e.Time, Level: e.Level, Module: e.Module, Message: e.Message, Fields: e.Fields}.String()
		}
		printer(cmd).PrintListing(c.BaseURL, lines)
		return nil
	},
}

var remoteBarcodeCmd = &cobra.Command{
	Use:   "barcode <code>",
	Short: "Download a barcode image rendered by a station",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openLogging(); err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		c, err := stationClient(ctx)
		if err != nil {
			return remoteFailure(cmd, "No station", err)
		}
		data, err := c.Barcode(ctx, args[0])
		if err != nil {
			return remoteFailure(cmd, "Cannot render barcode", err)
		}
		dest := barcodeOutput
		if dest == "" {
			dest = labels.SafeFileName(args[0]) + ".png"
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return err
		}
		printer(cmd).PrintSuccess("Barcode saved",
			ui.Detail{Key: "Code", Value: args[0]},
			ui.Detail{Key: "File", Value: dest})
		return nil
	},
}

// remoteSteps mirror the job lifecycle on the station.
var remoteSteps = []string{"Submit job", "Generate on station", "Download documents"}

var remoteGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate labels on a station and download them",
	Example: `  labelgen remote generate --item "Phone straps:1:3" --item "Phone straps:2"
  labelgen remote generate --url http://192.168.0.20:8780 --item 0:1 --fill-page`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openLogging()
		if err != nil {
			return err
		}

		req := api.LabelRequest{FillPage: fillPage, Template: labelTemplate, OutputName: remoteOutput}
		if cmd.Flags().Changed("merge") {
			req.Merge = &remoteMerge
		}
		for _, s := range selectItems {
			sel, err := app.ParseSelection(s)
			if err != nil {
				return err
			}
			if sel.Quantity == 0 {
				sel.Quantity = labelQuantity
			}
			req.Items = append(req.Items, api.LabelItem{Category: sel.Category, ID: sel.ProductID, Quantity: sel.Quantity})
		}
		if err := api.Validate(req); err != nil {
			return err
		}

		dest := downloadDir
		if dest == "" {
			a, err := newApp(reg)
			if err != nil {
				return err
			}
			dest = a.Workspace.OutputDir()
		}

		ctx, stop := signalContext()
		defer stop()
		c, err := stationClient(ctx)
		if err != nil {
			return remoteFailure(cmd, "No station", err)
		}

		runner := ui.NewRunner(ui.RunnerConfig{
			Title:   "Remote Label Generation",
			Command: "labelgen remote generate",
			Params: []ui.Detail{
				{Key: "Station", Value: c.BaseURL},
				{Key: "Products", Value: strconv.Itoa(len(req.Items))},
				{Key: "Download to", Value: dest},
			},
			StepNames: remoteSteps,
			Output:    cmd.OutOrStdout(),
			Hint:      station.GetTroubleshootingHint,
		})
		return runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Detail, error) {
			onStep(1, ui.StepRunning, "Sending request")
			job, err := c.SubmitLabels(ctx, req)
			if err != nil {
				onStep(1, ui.StepFailed, station.GetShortErrorMessage(err))
				return nil, err
			}
			onStep(1, ui.StepComplete, "Job "+job.ID)

			job, err = c.WaitForJob(ctx, job.ID, func(j *api.Job) {
				msg := j.Message
				if msg == "" {
					msg = string(j.Status)
				}
				onStep(2, ui.StepRunning, fmt.Sprintf("%3.0f%% %s", j.Percent, msg))
			})
			if err != nil {
				onStep(2, ui.StepFailed, station.GetShortErrorMessage(err))
				return nil, err
			}
			onStep(2, ui.StepComplete, fmt.Sprintf("%d label(s) on %d page(s)", job.Labels, job.Pages))

			var saved []string
			for i, name := range job.Files {
				onStep(3, ui.StepRunning, fmt.Sprintf("%d/%d %s", i+1, len(job.Files), name))
				path, err := c.Download(ctx, job.ID, name, dest)
				if err != nil {
					onStep(3, ui.StepFailed, station.GetShortErrorMessage(err))
					return nil, err
				}
				saved = append(saved, path)
			}
			onStep(3, ui.StepComplete, fmt.Sprintf("%d file(s)", len(saved)))

			details := []ui.Detail{
				{Key: "Job", Value: job.ID},
				{Key: "Files", Value: strings.Join(job.Files, ", ")},
				{Key: "Pages", Value: strconv.Itoa(job.Pages)},
				{Key: "Labels", Value: strconv.Itoa(job.Labels)},
				{Key: "Folder", Value: dest},
			}
			if len(job.MissingImages) > 0 {
				details = append(details, ui.Detail{Key: "Text only", Value: strings.Join(job.MissingImages, ", ")})
			}
			return details, nil
		})
	},
}
