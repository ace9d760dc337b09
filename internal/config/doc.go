// Package config provides user configuration management for labelgen.
//
// The configuration is a YAML file holding workspace paths, barcode rendering
// options, label layout options, label station settings and preferences.
// Missing sections are filled with defaults on load, so a partial file is
// valid.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/labelgen/config.yaml or $HOME/.config/labelgen/config.yaml
//   - macOS: $HOME/.config/labelgen/config.yaml
//   - Windows: %LOCALAPPDATA%\labelgen\config.yaml
//
// The --config flag overrides the location through SetConfigPath.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    return err
//	}
//	if err := registry.Set("barcode.dpi", "600"); err != nil {
//	    return err
//	}
//	if err := registry.Save(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
