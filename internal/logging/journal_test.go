package logging

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestJournalRingEviction(t *testing.T) {
	j := NewJournal(3)
	for i := 0; i < 5; i++ {
		j.Add(Entry{Level: "info", Message: fmt.Sprintf("msg %d", i)})
	}

	if j.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", j.Len())
	}

	var got []string
	for _, e := range j.Entries(Filter{}) {
		got = append(got, e.Message)
	}
	want := []string{"msg 2", "msg 3", "msg 4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	j.Clear()
	if j.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", j.Len())
	}
}

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		entry  Entry
		want   bool
	}{
		{"empty filter", Filter{}, Entry{Level: "debug"}, true},
		{"level below minimum", Filter{Level: "warn"}, Entry{Level: "info"}, false},
		{"level at minimum", Filter{Level: "warn"}, Entry{Level: "warn"}, true},
		{"level above minimum", Filter{Level: "warn"}, Entry{Level: "error"}, true},
		{"exact module", Filter{Module: "catalog"}, Entry{Module: "catalog"}, true},
		{"child module", Filter{Module: "catalog"}, Entry{Module: "catalog.watch"}, true},
		{"prefix is not a parent", Filter{Module: "cat"}, Entry{Module: "catalog"}, false},
		{"other module", Filter{Module: "labels"}, Entry{Module: "catalog"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tt.entry); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterLimit(t *testing.T) {
	entries := []Entry{{Message: "a"}, {Message: "b"}, {Message: "c"}}
	got := Filter{Limit: 2}.Apply(entries)
	if len(got) != 2 || got[0].Message != "b" || got[1].Message != "c" {
		t.Errorf("Apply() with Limit 2 = %v, want newest two", got)
	}
}

func TestJournalCoreCapturesFields(t *testing.T) {
	j := NewJournal(10)
	log := zap.New(NewJournalCore(j, zapcore.InfoLevel)).Named("labels")

	log.Debug("dropped")
	log.With(zap.String("job", "abc")).Info("generated", zap.Int("pages", 2))

	entries := j.Entries(Filter{})
	if len(entries) != 1 {
		t.Fatalf("journal has %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Module != "labels" || e.Message != "generated" || e.Level != "info" {
		t.Errorf("entry = %+v", e)
	}
	want := map[string]string{"job": "abc", "pages": "2"}
	if diff := cmp.Diff(want, e.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestEntryString(t *testing.T) {
	e := Entry{
		Time:    time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
		Level:   "warn",
		Module:  "catalog",
		Message: "row skipped",
		Fields:  map[string]string{"row": "4", "reason": "empty name"},
	}
	want := "[2025-03-04 05:06:07] [WARN] catalog: row skipped reason=empty name row=4"
	if got := e.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFileSinkRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := InitializeWithOptions(Options{FileDir: dir, FileLevel: "debug"}); err != nil {
		t.Fatalf("InitializeWithOptions() error = %v", err)
	}
	t.Cleanup(func() {
		Close()
		_ = Initialize("")
	})

	Named("catalog").Info("product added", zap.String("code", "PPON-3000012"))
	Named("labels").Warn("image missing")
	Sync()

	path := LogFilePath(dir, time.Now())
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("log file not created: %v", err)
	}

	entries, err := ReadLogFile(path, Filter{Module: "catalog"})
	if err != nil {
		t.Fatalf("ReadLogFile() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("ReadLogFile() returned %d entries, want 1", len(entries))
	}
	if entries[0].Fields["code"] != "PPON-3000012" {
		t.Errorf("code field = %q", entries[0].Fields["code"])
	}

	var buf bytes.Buffer
	if err := Export(&buf, entries); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(buf.String(), "[INFO] catalog: product added") {
		t.Errorf("Export() = %q", buf.String())
	}

	files, err := ListLogFiles(dir)
	if err != nil || len(files) != 1 || filepath.Base(files[0]) != filepath.Base(path) {
		t.Errorf("ListLogFiles() = %v, %v", files, err)
	}
}
