package files

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	base := filepath.Join(t.TempDir(), "ws")
	ws, err := New(base)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := ws.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}
	return ws
}

func touch(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	ws := newTestWorkspace(t)
	for _, dir := range []string{ws.TemplateDir(), ws.DataDir(), ws.OutputDir()} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s should exist as a directory", dir)
		}
	}
}

func TestResolveSearchOrder(t *testing.T) {
	ws := newTestWorkspace(t)
	parent := filepath.Dir(ws.Base)

	tests := []struct {
		name  string
		setup func() string
	}{
		{"in subdirectory", func() string {
			p := filepath.Join(ws.DataDir(), "a.xlsx")
			touch(t, p, 1)
			touch(t, filepath.Join(ws.Base, "a.xlsx"), 1)
			return p
		}},
		{"in base", func() string {
			p := filepath.Join(ws.Base, "b.xlsx")
			touch(t, p, 1)
			touch(t, filepath.Join(parent, "b.xlsx"), 1)
			return p
		}},
		{"in parent", func() string {
			p := filepath.Join(parent, "c.xlsx")
			touch(t, p, 1)
			return p
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := tt.setup()
			got, err := ws.ResolveData(filepath.Base(want))
			if err != nil {
				t.Fatalf("ResolveData() error = %v", err)
			}
			if got != want {
				t.Errorf("ResolveData() = %s, want %s", got, want)
			}
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	ws := newTestWorkspace(t)

	_, err := ws.ResolveTemplate("missing.docx")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveTemplate() error = %v, want ErrNotFound", err)
	}
	if _, err := ws.ResolveTemplate(""); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveTemplate(\"\") error = %v, want ErrNotFound", err)
	}

	// Directories never match.
	if err := os.MkdirAll(filepath.Join(ws.TemplateDir(), "dir.docx"), 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.ResolveTemplate("dir.docx"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveTemplate(dir) error = %v, want ErrNotFound", err)
	}
}

func TestTemplateFile(t *testing.T) {
	ws := newTestWorkspace(t)
	inside := filepath.Join(ws.TemplateDir(), "small.docx")
	touch(t, inside, 1)
	touch(t, filepath.Join(ws.Base, "base.docx"), 1)

	got, err := ws.TemplateFile("small.docx")
	if err != nil {
		t.Fatalf("TemplateFile() error = %v", err)
	}
	if got != inside {
		t.Errorf("TemplateFile() = %s, want %s", got, inside)
	}

	// ResolveTemplate would find this one in the base directory.
	if _, err := ws.TemplateFile("base.docx"); !errors.Is(err, ErrNotFound) {
		t.Errorf("TemplateFile(base.docx) error = %v, want ErrNotFound", err)
	}

	for _, name := range []string{"", "..", "../base.docx", "sub/small.docx", `sub\small.docx`, inside} {
		if _, err := ws.TemplateFile(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("TemplateFile(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestDataPath(t *testing.T) {
	ws := newTestWorkspace(t)

	if got, want := ws.DataPath("items.xlsx"), filepath.Join(ws.DataDir(), "items.xlsx"); got != want {
		t.Errorf("DataPath() for new file = %s, want %s", got, want)
	}

	existing := filepath.Join(ws.Base, "items.xlsx")
	touch(t, existing, 1)
	if got := ws.DataPath("items.xlsx"); got != existing {
		t.Errorf("DataPath() = %s, want existing %s", got, existing)
	}
}

func TestListOutputs(t *testing.T) {
	ws := newTestWorkspace(t)

	touch(t, filepath.Join(ws.OutputDir(), "old.docx"), 10)
	touch(t, filepath.Join(ws.OutputDir(), "new.docx"), 2048)
	touch(t, filepath.Join(ws.OutputDir(), "notes.txt"), 1)
	touch(t, filepath.Join(ws.OutputDir(), "~$new.docx"), 1)

	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(ws.OutputDir(), "old.docx"), past, past); err != nil {
		t.Fatal(err)
	}

	files, err := ws.ListOutputs()
	if err != nil {
		t.Fatalf("ListOutputs() error = %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"new.docx", "old.docx"}, names); diff != "" {
		t.Errorf("ListOutputs() mismatch (-want +got):\n%s", diff)
	}
	if files[0].Size != 2048 {
		t.Errorf("Size = %d, want 2048", files[0].Size)
	}
}

func TestCleanOutput(t *testing.T) {
	ws := newTestWorkspace(t)

	touch(t, filepath.Join(ws.OutputDir(), "old.docx"), 1)
	touch(t, filepath.Join(ws.OutputDir(), "new.docx"), 1)
	touch(t, filepath.Join(ws.OutputDir(), "keep.txt"), 1)
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(ws.OutputDir(), "old.docx"), past, past); err != nil {
		t.Fatal(err)
	}

	removed, err := ws.CleanOutput(24 * time.Hour)
	if err != nil {
		t.Fatalf("CleanOutput() error = %v", err)
	}
	if diff := cmp.Diff([]string{"old.docx"}, removed); diff != "" {
		t.Errorf("CleanOutput(24h) mismatch (-want +got):\n%s", diff)
	}

	removed, err = ws.CleanOutput(0)
	if err != nil {
		t.Fatalf("CleanOutput() error = %v", err)
	}
	if diff := cmp.Diff([]string{"new.docx"}, removed); diff != "" {
		t.Errorf("CleanOutput(0) mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(ws.OutputDir(), "keep.txt")); err != nil {
		t.Error("non-docx files must be left alone")
	}
}

func TestListTemplatesMissingDir(t *testing.T) {
	ws, err := New(filepath.Join(t.TempDir(), "nothing"))
	if err != nil {
		t.Fatal(err)
	}
	files, err := ws.ListTemplates()
	if err != nil || len(files) != 0 {
		t.Errorf("ListTemplates() = %v, %v; want empty, nil", files, err)
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.0 B"},
		{512, "512.0 B"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 << 40, "3.0 TB"},
		{2048 << 40, "2048.0 TB"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := HumanSize(tt.in); got != tt.want {
				t.Errorf("HumanSize(%d) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
