package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultHistorySize is how many mutations can be undone.
const DefaultHistorySize = 10

// Snapshot is the workbook as it was before one mutation.
type Snapshot struct {
	// Data is the complete workbook file. Empty for persisted snapshots
	// until Load is called.
	Data []byte

	// Timestamp when this snapshot was taken
	Timestamp time.Time

	// Description of the mutation that followed
	Description string

	// path of the persisted copy, if any
	path string
}

// Load returns the snapshot bytes, reading the persisted copy if needed.
func (s *Snapshot) Load() ([]byte, error) {
	if s.Data != nil || s.path == "" {
		return s.Data, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, NewWorkbookError("failed to read snapshot", err)
	}
	return data, nil
}

// History keeps the most recent workbook snapshots for undo. When created
// with a directory, snapshots are also written there so a later process
// can undo changes made by an earlier one.
type History struct {
	// snapshots stores workbook snapshots, oldest first.
	// Limited to maxSnapshots to prevent unbounded growth
	snapshots []*Snapshot

	// maxSnapshots is the maximum number of snapshots to retain
	maxSnapshots int

	// dir holds persisted snapshots; empty keeps them in memory only
	dir string

	// mutex protects concurrent access to snapshots
	mutex sync.RWMutex
}

// NewHistory creates an in-memory history that keeps at most max snapshots.
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{
		snapshots:    make([]*Snapshot, 0, max),
		maxSnapshots: max,
	}
}

// OpenHistory creates a history persisted in dir and loads what is there.
func OpenHistory(dir string, max int) (*History, error) {
	h := NewHistory(max)
	h.dir = dir

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, NewWorkbookError("failed to create history directory", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.xlsx"))
	if err != nil {
		return nil, NewWorkbookError("failed to list history", err)
	}
	sort.Strings(matches)

	for _, path := range matches {
		stamp := strings.TrimSuffix(filepath.Base(path), ".xlsx")
		nanos, err := strconv.ParseInt(stamp, 10, 64)
		if err != nil {
			continue
		}
		desc, _ := os.ReadFile(strings.TrimSuffix(path, ".xlsx") + ".txt")
		h.snapshots = append(h.snapshots, &Snapshot{
			Timestamp:   time.Unix(0, nanos),
			Description: strings.TrimSpace(string(desc)),
			path:        path,
		})
	}
	h.trimLocked()
	return h, nil
}

// Push records a snapshot, evicting the oldest when full.
func (h *History) Push(data []byte, description string) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	snap := &Snapshot{
		Data:        data,
		Timestamp:   time.Now(),
		Description: description,
	}

	if h.dir != "" {
		nanos := snap.Timestamp.UnixNano()
		base := filepath.Join(h.dir, fmt.Sprintf("%019d", nanos))
		for {
			if _, err := os.Stat(base + ".xlsx"); os.IsNotExist(err) {
				break
			}
			nanos++
			base = filepath.Join(h.dir, fmt.Sprintf("%019d", nanos))
		}
		if err := os.WriteFile(base+".xlsx", data, 0644); err != nil {
			return NewWorkbookError("failed to persist snapshot", err)
		}
		_ = os.WriteFile(base+".txt", []byte(description+"\n"), 0644)
		snap.path = base + ".xlsx"
	}

	h.snapshots = append(h.snapshots, snap)
	h.trimLocked()
	return nil
}

func (h *History) trimLocked() {
	for len(h.snapshots) > h.maxSnapshots {
		h.removeFiles(h.snapshots[0])
		h.snapshots = h.snapshots[1:]
	}
}

func (h *History) removeFiles(s *Snapshot) {
	if s.path == "" {
		return
	}
	os.Remove(s.path)
	os.Remove(strings.TrimSuffix(s.path, ".xlsx") + ".txt")
}

// Latest returns the most recent snapshot, or nil if no snapshots exist
func (h *History) Latest() *Snapshot {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if len(h.snapshots) == 0 {
		return nil
	}
	return h.snapshots[len(h.snapshots)-1]
}

// Peek returns the most recent snapshot with its data loaded, leaving it
// in the history. Returns nil when the history is empty.
func (h *History) Peek() (*Snapshot, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if len(h.snapshots) == 0 {
		return nil, nil
	}
	last := h.snapshots[len(h.snapshots)-1]
	if last.Data == nil {
		data, err := last.Load()
		if err != nil {
			return nil, err
		}
		last.Data = data
	}
	return last, nil
}

// Discard removes snap from the history once it has been applied.
func (h *History) Discard(snap *Snapshot) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for i, s := range h.snapshots {
		if s == snap {
			h.snapshots = append(h.snapshots[:i], h.snapshots[i+1:]...)
			h.removeFiles(s)
			return
		}
	}
}

// List returns all snapshots in chronological order (oldest first)
func (h *History) List() []*Snapshot {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	result := make([]*Snapshot, len(h.snapshots))
	copy(result, h.snapshots)
	return result
}

// Len returns the number of snapshots.
func (h *History) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.snapshots)
}

// Clear removes all saved snapshots
func (h *History) Clear() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, s := range h.snapshots {
		h.removeFiles(s)
	}
	h.snapshots = make([]*Snapshot, 0, h.maxSnapshots)
}
