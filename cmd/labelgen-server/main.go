// Labelgen-server runs a label station: an HTTP service that shares one
// product workbook with the other machines in a shop.
//
// Clients list and edit the catalog through a JSON API, submit label jobs
// and download the generated documents. Progress and catalog changes are
// pushed over a WebSocket feed, and the station announces itself via mDNS
// so 'labelgen remote' finds it without configuration.
//
// Usage:
//
//	labelgen-server server [flags]
//
// See 'labelgen-server server --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/labelgen/internal/app"
	"github.com/muurk/labelgen/internal/config"
	"github.com/muurk/labelgen/internal/logging"
	"github.com/muurk/labelgen/internal/server"
	"github.com/muurk/labelgen/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "labelgen-server",
	Short: "Labelgen label station",
	Long: `A label station serving one product workbook to the local network.

Note: For catalog editing and label printing on this machine, use the
'labelgen' utility.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}

// Server command and flags
var (
	configPath   string
	workspaceDir string
	workbookPath string
	certPath     string
	keyPath      string
	host         string
	port         int
	instance     string
	noAdvertise  bool
	noWatch      bool
	logLevel     string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the label station",
	Long: `Start the label station.

Settings come from the server section of the labelgen config file; flags
override them. The station serves plain HTTP unless both --cert and --key
are given.

The workbook is watched for changes, so edits made in a spreadsheet
program are picked up and pushed to connected clients.`,
	Example: `  # Start with the configured workspace and port
  labelgen-server server

  # Custom port and debug logging
  labelgen-server server --port 9000 --log-level debug

  # HTTPS with your own certificate
  labelgen-server server --cert fullchain.pem --key privkey.pem

  # Serve a specific workbook without mDNS
  labelgen-server server --workbook /srv/shop/items.xlsx --no-advertise`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().StringVar(&configPath, "config", "", "Config file (default: user config dir)")
	serverCmd.Flags().StringVar(&workspaceDir, "workspace", "", "Workspace directory holding templates/, data/ and output/")
	serverCmd.Flags().StringVar(&workbookPath, "workbook", "", "Workbook path (overrides the configured data file)")
	serverCmd.Flags().StringVar(&certPath, "cert", "", "Path to TLS certificate file")
	serverCmd.Flags().StringVar(&keyPath, "key", "", "Path to TLS private key file")
	serverCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	serverCmd.Flags().IntVar(&port, "port", 0, "Server port (default: server.port)")
	serverCmd.Flags().StringVar(&instance, "instance", "", "mDNS instance name (default: server.instance)")
	serverCmd.Flags().BoolVar(&noAdvertise, "no-advertise", false, "Do not announce the station via mDNS")
	serverCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the workbook when it changes on disk")
	serverCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Validate: Either both cert and key are provided, or neither
	if (certPath != "" && keyPath == "") || (certPath == "" && keyPath != "") {
		return fmt.Errorf("both --cert and --key must be provided together, or neither")
	}
	if certPath != "" {
		if _, err := os.Stat(certPath); os.IsNotExist(err) {
			return fmt.Errorf("certificate file not found: %s", certPath)
		}
		if _, err := os.Stat(keyPath); os.IsNotExist(err) {
			return fmt.Errorf("private key file not found: %s", keyPath)
		}
	}

	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	reg, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The journal backs /api/logs.
	if err := app.InitLogging(reg, logLevel, workspaceDir, true); err != nil {
		return fmt.Errorf("failed to initialise logging: %w", err)
	}
	defer logging.Close()

	cfg := server.ConfigFrom(reg)
	if host != "" {
		cfg.Host = host
	}
	if port != 0 {
		cfg.Port = port
	}
	if certPath != "" {
		cfg.CertPath, cfg.KeyPath = certPath, keyPath
	}
	if instance != "" {
		cfg.Instance = instance
	}
	if noAdvertise {
		cfg.Advertise = false
	}
	if noWatch {
		cfg.WatchWorkbook = false
	}

	a, err := app.New(reg, app.Overrides{Workspace: workspaceDir, Workbook: workbookPath})
	if err != nil {
		return err
	}
	if err := a.Workspace.EnsureDirectories(); err != nil {
		return err
	}

	srv, err := server.New(cfg, a)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("labelgen-server %s (commit: %s)\n", version.Version, version.Commit)
	},
}
