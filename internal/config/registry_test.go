package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "labelgen") {
		t.Errorf("GetConfigDir() = %v, should contain 'labelgen'", configDir)
	}

	switch runtime.GOOS {
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	case "linux":
		if os.Getenv("XDG_CONFIG_HOME") == "" && !strings.Contains(configDir, ".config") {
			t.Errorf("Linux config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestSetConfigPathOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	SetConfigPath(path)
	t.Cleanup(func() { SetConfigPath("") })

	got, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if got != path {
		t.Errorf("GetConfigPath() = %v, want %v", got, path)
	}

	reg, err := LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}
	if reg.Workspace.DataFile != "items.xlsx" {
		t.Errorf("default DataFile = %q, want items.xlsx", reg.Workspace.DataFile)
	}
}

func TestNewRegistryDefaults(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	wantBarcode := &Barcode{
		DPI:            300,
		ModuleWidthMM:  0.2,
		ModuleHeightMM: 15,
		QuietZoneMM:    6.5,
		FontSizePt:     10,
		TextDistanceMM: 5,
		ShowText:       true,
	}
	if diff := cmp.Diff(wantBarcode, reg.Barcode); diff != "" {
		t.Errorf("default barcode options mismatch (-want +got):\n%s", diff)
	}

	if reg.Workspace.Template != "3677.docx" {
		t.Errorf("default template = %q, want 3677.docx", reg.Workspace.Template)
	}
	if reg.Labels.DefaultQuantity != 1 {
		t.Errorf("default quantity = %d, want 1", reg.Labels.DefaultQuantity)
	}
	if errs := reg.Validate(); len(errs) != 0 {
		t.Errorf("default registry should validate, got %v", errs)
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	reg.Barcode.DPI = 600
	reg.Labels.Merge = true
	reg.Workspace.BaseDir = "/srv/labels"

	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after save")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# labelgen configuration file") {
		t.Error("saved config should start with the header comment")
	}

	loaded, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if diff := cmp.Diff(reg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRegistryPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "version: 1\nbarcode:\n  dpi: 200\n  module_width_mm: 0.3\n  module_height_mm: 10\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if reg.Barcode.DPI != 200 {
		t.Errorf("DPI = %d, want 200", reg.Barcode.DPI)
	}
	if reg.Labels == nil || reg.Server == nil || reg.Preferences == nil {
		t.Error("missing sections should be filled with defaults")
	}
}

func TestLoadRegistryErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"wrong version", "version: 2\n"},
		{"invalid yaml", "version: [1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadRegistryFrom(path); err == nil {
				t.Error("LoadRegistryFrom() expected error")
			}
		})
	}
}

func TestRegistrySet(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(*Registry) bool
	}{
		{"barcode.dpi", "450", false, func(r *Registry) bool { return r.Barcode.DPI == 450 }},
		{"labels.merge", "true", false, func(r *Registry) bool { return r.Labels.Merge }},
		{"labels.font_name", "Noto Sans KR", false, func(r *Registry) bool { return r.Labels.FontName == "Noto Sans KR" }},
		{"server.port", "9000", false, func(r *Registry) bool { return r.Server.Port == 9000 }},
		{"BARCODE.QUIET_ZONE_MM", "3.5", false, func(r *Registry) bool { return r.Barcode.QuietZoneMM == 3.5 }},
		{"barcode.dpi", "high", true, nil},
		{"labels.merge", "maybe", true, nil},
		{"nope.key", "1", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			reg := NewRegistry()
			err := reg.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(reg) {
				t.Errorf("Set(%q, %q) did not apply", tt.key, tt.value)
			}
		})
	}
}

func TestRegistryValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Registry)
		wantErrs  int
		wantFirst string
	}{
		{"dpi too low", func(r *Registry) { r.Barcode.DPI = 50 }, 1, "barcode.dpi"},
		{"dpi too high", func(r *Registry) { r.Barcode.DPI = 1200 }, 1, "barcode.dpi"},
		{"quantity zero", func(r *Registry) { r.Labels.DefaultQuantity = 0 }, 1, "labels.default_quantity"},
		{"cert without key", func(r *Registry) { r.Server.CertFile = "cert.pem" }, 1, "server.cert_file"},
		{"large font warns", func(r *Registry) { r.Labels.FontSizePt = 20 }, 1, "warning:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			tt.mutate(reg)
			errs := reg.Validate()
			if len(errs) != tt.wantErrs {
				t.Fatalf("Validate() returned %d errors, want %d: %v", len(errs), tt.wantErrs, errs)
			}
			if !strings.HasPrefix(errs[0].Error(), tt.wantFirst) {
				t.Errorf("Validate()[0] = %q, want prefix %q", errs[0], tt.wantFirst)
			}
		})
	}
}

func TestKeysCoverSet(t *testing.T) {
	reg := NewRegistry()
	for _, key := range Keys() {
		value := "1"
		switch {
		case strings.HasSuffix(key, "merge"), strings.HasSuffix(key, "show_text"),
			strings.HasSuffix(key, "advertise"), strings.HasSuffix(key, "confirm_destructive"),
			strings.HasSuffix(key, "log_to_file"):
			value = "true"
		}
		if err := reg.Set(key, value); err != nil {
			t.Errorf("Set(%q) error = %v", key, err)
		}
	}
}
