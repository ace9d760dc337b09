package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ReadLogFile parses a JSON-lines log file written by the file sink and
// returns the entries that pass f. Lines that are not JSON are skipped.
func ReadLogFile(path string, f Filter) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		e, ok := parseLine([]byte(line))
		if !ok {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	return f.Apply(entries), nil
}

func parseLine(line []byte) (Entry, bool) {
	var raw map[string]interface{}
	if err := json.Unmarshal(line, &raw); err != nil {
		return Entry{}, false
	}

	e := Entry{}
	if v, ok := raw["time"].(string); ok {
		if t, err := time.Parse("2006-01-02T15:04:05.000Z0700", v); err == nil {
			e.Time = t
		}
	}
	e.Level, _ = raw["level"].(string)
	e.Module, _ = raw["module"].(string)
	e.Message, _ = raw["msg"].(string)

	for k, v := range raw {
		switch k {
		case "time", "level", "module", "msg", "caller":
			continue
		}
		if e.Fields == nil {
			e.Fields = make(map[string]string)
		}
		e.Fields[k] = fmt.Sprint(v)
	}
	return e, e.Message != "" || e.Level != ""
}

// ListLogFiles returns the daily log files in dir, newest first.
func ListLogFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "labelgen_*.log"))
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

// Export writes entries as plain text, one per line.
func Export(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := bw.WriteString(e.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
