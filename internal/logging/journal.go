package logging

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// DefaultJournalSize is the number of entries the journal retains.
const DefaultJournalSize = 1000

// Entry is one captured log record.
type Entry struct {
	Time    time.Time         `json:"time"`
	Level   string            `json:"level"`
	Module  string            `json:"module,omitempty"`
	Message string            `json:"msg"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// String renders the entry as "[2006-01-02 15:04:05] [LEVEL] module: message k=v".
func (e Entry) String() string {
	var sb strings.Builder
	sb.WriteString("[" + e.Time.Format("2006-01-02 15:04:05") + "] ")
	sb.WriteString("[" + strings.ToUpper(e.Level) + "] ")
	if e.Module != "" {
		sb.WriteString(e.Module + ": ")
	}
	sb.WriteString(e.Message)

	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(" " + k + "=" + e.Fields[k])
		}
	}
	return sb.String()
}

// Filter selects entries. Zero values match everything.
type Filter struct {
	// Level is the minimum level ("debug", "info", "warn", "error").
	Level string
	// Module matches the logger name or any of its parents ("catalog"
	// matches "catalog.store").
	Module string
	// Limit keeps only the newest N matches.
	Limit int
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	if f.Level != "" && ParseLevel(e.Level) < ParseLevel(f.Level) {
		return false
	}
	if f.Module != "" && e.Module != f.Module && !strings.HasPrefix(e.Module, f.Module+".") {
		return false
	}
	return true
}

// Apply filters entries, preserving order, then applies Limit.
func (f Filter) Apply(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

// Journal is a fixed-size ring of log entries, safe for concurrent use.
type Journal struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
}

// NewJournal creates a journal that keeps the last size entries.
func NewJournal(size int) *Journal {
	if size <= 0 {
		size = DefaultJournalSize
	}
	return &Journal{entries: make([]Entry, size)}
}

// Add appends an entry, evicting the oldest when full.
func (j *Journal) Add(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries[j.next] = e
	j.next = (j.next + 1) % len(j.entries)
	if j.next == 0 {
		j.full = true
	}
}

// Len returns the number of retained entries.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.full {
		return len(j.entries)
	}
	return j.next
}

// Entries returns matching entries, oldest first.
func (j *Journal) Entries(f Filter) []Entry {
	j.mu.RLock()
	var all []Entry
	if j.full {
		all = make([]Entry, 0, len(j.entries))
		all = append(all, j.entries[j.next:]...)
		all = append(all, j.entries[:j.next]...)
	} else {
		all = append([]Entry(nil), j.entries[:j.next]...)
	}
	j.mu.RUnlock()

	return f.Apply(all)
}

// Clear drops all entries.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.entries {
		j.entries[i] = Entry{}
	}
	j.next = 0
	j.full = false
}

// journalCore adapts a Journal to zapcore.Core.
type journalCore struct {
	zapcore.LevelEnabler
	journal *Journal
	fields  []zapcore.Field
}

// NewJournalCore returns a zap core that records into j.
func NewJournalCore(j *Journal, level zapcore.LevelEnabler) zapcore.Core {
	return &journalCore{LevelEnabler: level, journal: j}
}

func (c *journalCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &journalCore{
		LevelEnabler: c.LevelEnabler,
		journal:      c.journal,
		fields:       make([]zapcore.Field, 0, len(c.fields)+len(fields)),
	}
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *journalCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *journalCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	var flat map[string]string
	if len(enc.Fields) > 0 {
		flat = make(map[string]string, len(enc.Fields))
		for k, v := range enc.Fields {
			flat[k] = fmt.Sprint(v)
		}
	}

	c.journal.Add(Entry{
		Time:    ent.Time,
		Level:   ent.Level.String(),
		Module:  ent.LoggerName,
		Message: ent.Message,
		Fields:  flat,
	})
	return nil
}

func (c *journalCore) Sync() error {
	return nil
}
