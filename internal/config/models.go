package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int          `yaml:"version"`
	Workspace   *Workspace   `yaml:"workspace,omitempty"`
	Barcode     *Barcode     `yaml:"barcode,omitempty"`
	Labels      *Labels      `yaml:"labels,omitempty"`
	Server      *Server      `yaml:"server,omitempty"`
	Preferences *Preferences `yaml:"preferences,omitempty"`
}

// Workspace locates the data workbook, templates and output directory.
type Workspace struct {
	BaseDir  string `yaml:"base_dir"`  // Holds templates/, data/, output/
	DataFile string `yaml:"data_file"` // Workbook name, resolved via data/
	Template string `yaml:"template"`  // Template name, resolved via templates/
}

// Barcode holds the symbol rendering options.
type Barcode struct {
	DPI            int     `yaml:"dpi"`
	ModuleWidthMM  float64 `yaml:"module_width_mm"`
	ModuleHeightMM float64 `yaml:"module_height_mm"`
	QuietZoneMM    float64 `yaml:"quiet_zone_mm"`
	FontSizePt     float64 `yaml:"font_size_pt"`
	TextDistanceMM float64 `yaml:"text_distance_mm"`
	ShowText       bool    `yaml:"show_text"`
}

// Labels holds the label sheet options.
type Labels struct {
	Merge           bool    `yaml:"merge"`            // One document for all pages
	FontName        string  `yaml:"font_name"`        // Label text font
	FontSizePt      float64 `yaml:"font_size_pt"`     // Label text size
	ImageWidthIn    float64 `yaml:"image_width_in"`   // Barcode picture width on the label
	ImageHeightIn   float64 `yaml:"image_height_in"`  // Barcode picture height on the label
	CurrencySuffix  string  `yaml:"currency_suffix"`  // Appended to the price
	DefaultQuantity int     `yaml:"default_quantity"` // Copies per product when not given
}

// Server holds label station settings.
type Server struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Advertise bool   `yaml:"advertise"` // Announce via mDNS
	Instance  string `yaml:"instance"`  // mDNS instance name
	CertFile  string `yaml:"cert_file,omitempty"`
	KeyFile   string `yaml:"key_file,omitempty"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	ConfirmDestructive bool   `yaml:"confirm_destructive"` // Ask before clean/delete
	LogToFile          bool   `yaml:"log_to_file"`         // Enable the daily log file
	LogDir             string `yaml:"log_dir"`             // Relative to the workspace base dir
	DiscoverTimeout    int    `yaml:"discover_timeout"`    // mDNS discovery timeout in seconds
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	r := &Registry{Version: 1}
	r.applyDefaults()
	return r
}

// applyDefaults fills in any section missing from a loaded file.
func (r *Registry) applyDefaults() {
	if r.Workspace == nil {
		r.Workspace = &Workspace{
			BaseDir:  ".",
			DataFile: "items.xlsx",
			Template: "3677.docx",
		}
	}
	if r.Barcode == nil {
		r.Barcode = &Barcode{
			DPI:            300,
			ModuleWidthMM:  0.2,
			ModuleHeightMM: 15,
			QuietZoneMM:    6.5,
			FontSizePt:     10,
			TextDistanceMM: 5,
			ShowText:       true,
		}
	}
	if r.Labels == nil {
		r.Labels = &Labels{
			Merge:           false,
			FontName:        "맑은 고딕",
			FontSizePt:      6,
			ImageWidthIn:    1.2,
			ImageHeightIn:   0.6,
			CurrencySuffix:  "₩",
			DefaultQuantity: 1,
		}
	}
	if r.Server == nil {
		r.Server = &Server{
			Port:      8780,
			Advertise: true,
			Instance:  "labelgen",
		}
	}
	if r.Preferences == nil {
		r.Preferences = &Preferences{
			ConfirmDestructive: true,
			LogToFile:          true,
			LogDir:             "logs",
			DiscoverTimeout:    5,
		}
	}
}

// settable lists the keys accepted by Set, in display order.
var settable = []string{
	"workspace.base_dir",
	"workspace.data_file",
	"workspace.template",
	"barcode.dpi",
	"barcode.module_width_mm",
	"barcode.module_height_mm",
	"barcode.quiet_zone_mm",
	"barcode.font_size_pt",
	"barcode.text_distance_mm",
	"barcode.show_text",
	"labels.merge",
	"labels.font_name",
	"labels.font_size_pt",
	"labels.image_width_in",
	"labels.image_height_in",
	"labels.currency_suffix",
	"labels.default_quantity",
	"server.host",
	"server.port",
	"server.advertise",
	"server.instance",
	"server.cert_file",
	"server.key_file",
	"preferences.confirm_destructive",
	"preferences.log_to_file",
	"preferences.log_dir",
	"preferences.discover_timeout",
}

// Keys returns the dotted keys accepted by Set.
func Keys() []string {
	return append([]string(nil), settable...)
}

// Set assigns a value by dotted key, e.g. "barcode.dpi" = "600".
// The registry is not validated or saved.
func (r *Registry) Set(key, value string) error {
	r.applyDefaults()

	var err error
	switch strings.ToLower(key) {
	case "workspace.base_dir":
		r.Workspace.BaseDir = value
	case "workspace.data_file":
		r.Workspace.DataFile = value
	case "workspace.template":
		r.Workspace.Template = value
	case "barcode.dpi":
		r.Barcode.DPI, err = strconv.Atoi(value)
	case "barcode.module_width_mm":
		r.Barcode.ModuleWidthMM, err = strconv.ParseFloat(value, 64)
	case "barcode.module_height_mm":
		r.Barcode.ModuleHeightMM, err = strconv.ParseFloat(value, 64)
	case "barcode.quiet_zone_mm":
		r.Barcode.QuietZoneMM, err = strconv.ParseFloat(value, 64)
	case "barcode.font_size_pt":
		r.Barcode.FontSizePt, err = strconv.ParseFloat(value, 64)
	case "barcode.text_distance_mm":
		r.Barcode.TextDistanceMM, err = strconv.ParseFloat(value, 64)
	case "barcode.show_text":
		r.Barcode.ShowText, err = strconv.ParseBool(value)
	case "labels.merge":
		r.Labels.Merge, err = strconv.ParseBool(value)
	case "labels.font_name":
		r.Labels.FontName = value
	case "labels.font_size_pt":
		r.Labels.FontSizePt, err = strconv.ParseFloat(value, 64)
	case "labels.image_width_in":
		r.Labels.ImageWidthIn, err = strconv.ParseFloat(value, 64)
	case "labels.image_height_in":
		r.Labels.ImageHeightIn, err = strconv.ParseFloat(value, 64)
	case "labels.currency_suffix":
		r.Labels.CurrencySuffix = value
	case "labels.default_quantity":
		r.Labels.DefaultQuantity, err = strconv.Atoi(value)
	case "server.host":
		r.Server.Host = value
	case "server.port":
		r.Server.Port, err = strconv.Atoi(value)
	case "server.advertise":
		r.Server.Advertise, err = strconv.ParseBool(value)
	case "server.instance":
		r.Server.Instance = value
	case "server.cert_file":
		r.Server.CertFile = value
	case "server.key_file":
		r.Server.KeyFile = value
	case "preferences.confirm_destructive":
		r.Preferences.ConfirmDestructive, err = strconv.ParseBool(value)
	case "preferences.log_to_file":
		r.Preferences.LogToFile, err = strconv.ParseBool(value)
	case "preferences.log_dir":
		r.Preferences.LogDir = value
	case "preferences.discover_timeout":
		r.Preferences.DiscoverTimeout, err = strconv.Atoi(value)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	return nil
}

// Validate checks option ranges. Entries prefixed "warning:" are advisory.
func (r *Registry) Validate() []error {
	r.applyDefaults()
	var errs []error

	if r.Workspace.DataFile == "" {
		errs = append(errs, fmt.Errorf("workspace.data_file must not be empty"))
	}
	if r.Workspace.Template == "" {
		errs = append(errs, fmt.Errorf("workspace.template must not be empty"))
	}

	b := r.Barcode
	if b.DPI < 100 || b.DPI > 600 {
		errs = append(errs, fmt.Errorf("barcode.dpi must be between 100 and 600 (got %d)", b.DPI))
	}
	if b.ModuleWidthMM < 0.05 || b.ModuleWidthMM > 1 {
		errs = append(errs, fmt.Errorf("barcode.module_width_mm must be between 0.05 and 1 (got %g)", b.ModuleWidthMM))
	}
	if b.ModuleHeightMM < 1 || b.ModuleHeightMM > 50 {
		errs = append(errs, fmt.Errorf("barcode.module_height_mm must be between 1 and 50 (got %g)", b.ModuleHeightMM))
	}
	if b.QuietZoneMM < 0 || b.QuietZoneMM > 20 {
		errs = append(errs, fmt.Errorf("barcode.quiet_zone_mm must be between 0 and 20 (got %g)", b.QuietZoneMM))
	}
	if b.FontSizePt < 0 || b.FontSizePt > 32 {
		errs = append(errs, fmt.Errorf("barcode.font_size_pt must be between 0 and 32 (got %g)", b.FontSizePt))
	}

	l := r.Labels
	if l.DefaultQuantity < 1 || l.DefaultQuantity > 999 {
		errs = append(errs, fmt.Errorf("labels.default_quantity must be between 1 and 999 (got %d)", l.DefaultQuantity))
	}
	if l.ImageWidthIn <= 0 || l.ImageHeightIn <= 0 {
		errs = append(errs, fmt.Errorf("labels.image_width_in and labels.image_height_in must be positive"))
	}
	if l.FontSizePt <= 0 {
		errs = append(errs, fmt.Errorf("labels.font_size_pt must be positive (got %g)", l.FontSizePt))
	} else if l.FontSizePt > 14 {
		errs = append(errs, fmt.Errorf("warning: labels.font_size_pt %g is large for a label cell", l.FontSizePt))
	}
	if l.FontName == "" {
		errs = append(errs, fmt.Errorf("warning: labels.font_name is empty, the template default font will be used"))
	}

	if r.Server.Port < 1 || r.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535 (got %d)", r.Server.Port))
	}
	if (r.Server.CertFile == "") != (r.Server.KeyFile == "") {
		errs = append(errs, fmt.Errorf("server.cert_file and server.key_file must be set together"))
	}

	return errs
}
