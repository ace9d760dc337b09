package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/labelgen/internal/logging"
)

// Subdirectory names under the workspace base.
const (
	TemplateDirName = "templates"
	DataDirName     = "data"
	OutputDirName   = "output"
)

// ErrNotFound is returned when a resource cannot be located in any of the
// search locations.
var ErrNotFound = errors.New("file not found")

// ErrInvalidName is returned for names that carry a directory part.
var ErrInvalidName = errors.New("not a plain file name")

// Workspace is the directory tree labelgen works in.
type Workspace struct {
	Base string
	log  *zap.Logger
}

// OutputFile describes one generated document.
type OutputFile struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// New returns a workspace rooted at base. The path is made absolute.
func New(base string) (*Workspace, error) {
	if base == "" {
		base = "."
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	return &Workspace{Base: abs, log: logging.Named("files")}, nil
}

func (w *Workspace) TemplateDir() string { return filepath.Join(w.Base, TemplateDirName) }
func (w *Workspace) DataDir() string     { return filepath.Join(w.Base, DataDirName) }
func (w *Workspace) OutputDir() string   { return filepath.Join(w.Base, OutputDirName) }

// EnsureDirectories creates the template, data and output directories.
func (w *Workspace) EnsureDirectories() error {
	for _, dir := range []string{w.TemplateDir(), w.DataDir(), w.OutputDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// ResolveTemplate finds a template by name.
func (w *Workspace) ResolveTemplate(name string) (string, error) {
	return w.resolve(name, w.TemplateDir())
}

// TemplateFile returns the template called name inside the template
// directory. Unlike ResolveTemplate it searches nowhere else and accepts
// only a bare file name.
func (w *Workspace) TemplateFile(name string) (string, error) {
	if !IsBaseName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	p := filepath.Join(w.TemplateDir(), name)
	if info, err := os.Stat(p); err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return p, nil
}

// IsBaseName reports whether name is a plain file name with no directory
// part on any platform.
func IsBaseName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, `/\:`+"\x00")
}

// ResolveData finds a data file by name.
func (w *Workspace) ResolveData(name string) (string, error) {
	return w.resolve(name, w.DataDir())
}

// DataPath is where a data file of this name lives, whether or not it
// exists yet. An existing file anywhere on the search path wins.
func (w *Workspace) DataPath(name string) string {
	if p, err := w.ResolveData(name); err == nil {
		return p
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(w.DataDir(), name)
}

// resolve looks in dir, the base directory and the base's parent, in that
// order. Absolute paths are only checked for existence.
func (w *Workspace) resolve(name, dir string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrNotFound)
	}

	var candidates []string
	if filepath.IsAbs(name) {
		candidates = []string{name}
	} else {
		candidates = []string{
			filepath.Join(dir, name),
			filepath.Join(w.Base, name),
			filepath.Join(filepath.Dir(w.Base), name),
		}
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			w.log.Debug("Resolved file", zap.String("name", name), zap.String("path", c))
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s (searched %s)", ErrNotFound, name, strings.Join(candidates, ", "))
}

// ListTemplates returns the .docx files in the template directory.
func (w *Workspace) ListTemplates() ([]OutputFile, error) {
	return listDocx(w.TemplateDir())
}

// ListOutputs returns generated documents, newest first.
func (w *Workspace) ListOutputs() ([]OutputFile, error) {
	out, err := listDocx(w.OutputDir())
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}

func listDocx(dir string) ([]OutputFile, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var out []OutputFile
	for _, e := range entries {
		// Word leaves ~$ lock files next to open documents.
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".docx") || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, OutputFile{
			Name:    e.Name(),
			Path:    filepath.Join(dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CleanOutput removes generated documents. With olderThan > 0 only files
// last modified before that age are removed. It returns the removed names.
func (w *Workspace) CleanOutput(olderThan time.Duration) ([]string, error) {
	files, err := listDocx(w.OutputDir())
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-olderThan)
	var removed []string
	for _, f := range files {
		if olderThan > 0 && f.ModTime.After(cutoff) {
			continue
		}
		if err := os.Remove(f.Path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", f.Name, err)
		}
		removed = append(removed, f.Name)
	}

	w.log.Info("Cleaned output directory", zap.Int("removed", len(removed)))
	return removed, nil
}

// HumanSize formats a byte count with one decimal: 1536 -> "1.5 KB".
func HumanSize(n int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", v, units[i])
}
