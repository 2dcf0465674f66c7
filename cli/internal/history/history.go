// Package history records generated messages to .gitai/history.jsonl, one
// JSON object per line. The log lets a user recover a message they discarded
// and shows how often generation fell back to the heuristic. The file is
// bounded: appends past the cap rewrite the file keeping only the newest
// records (atomic via temp + rename).
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gitai/cli/internal/erruser"
)

const (
	historyFilename = "history.jsonl"
	// DefaultMaxRecords caps the active file; the oldest lines are dropped
	// on rotation.
	DefaultMaxRecords = 500
	// maxLineSize bounds a single record line; PR descriptions are small, so
	// 1MB is generous.
	maxLineSize = 1 << 20
)

// Record is one line in .gitai/history.jsonl.
type Record struct {
	At         string `json:"at"` // RFC3339
	Mode       string `json:"mode"`
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
	Provenance string `json:"provenance"`
	Message    string `json:"message"`
	// FilesChanged and Truncated describe the change-set the message covers.
	FilesChanged int  `json:"files_changed,omitempty"`
	Truncated    bool `json:"truncated,omitempty"`
}

// NewRecord stamps a record with the current time.
func NewRecord(mode, provider, model, provenance, message string, filesChanged int, truncated bool) Record {
	return Record{
		At:           time.Now().UTC().Format(time.RFC3339),
		Mode:         mode,
		Provider:     provider,
		Model:        model,
		Provenance:   provenance,
		Message:      message,
		FilesChanged: filesChanged,
		Truncated:    truncated,
	}
}

// Append writes one record to stateDir/history.jsonl, creating the directory
// and file if missing. When maxRecords > 0 and the file grows past it, the
// file is rewritten keeping only the newest maxRecords lines.
func Append(stateDir string, record Record, maxRecords int) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return erruser.New("Could not create the .gitai directory.", err)
	}
	path := filepath.Join(stateDir, historyFilename)
	line, err := json.Marshal(record)
	if err != nil {
		return erruser.New("Could not record message history.", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return erruser.New("Could not record message history.", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return erruser.New("Could not record message history.", err)
	}
	if err := f.Close(); err != nil {
		return erruser.New("Could not record message history.", err)
	}

	if maxRecords > 0 {
		return rotateIfNeeded(path, maxRecords)
	}
	return nil
}

// ReadRecords returns all records from stateDir, oldest first. A missing
// file yields an empty slice.
func ReadRecords(stateDir string) ([]Record, error) {
	lines, err := readLines(filepath.Join(stateDir, historyFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, erruser.New("Could not read message history.", err)
	}
	var out []Record
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, erruser.New("Message history is corrupted.", fmt.Errorf("invalid history line: %w", err))
		}
		out = append(out, rec)
	}
	return out, nil
}

// Recent returns the newest n records, newest first.
func Recent(stateDir string, n int) ([]Record, error) {
	recs, err := ReadRecords(stateDir)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

// rotateIfNeeded rewrites path with only the last maxRecords lines when the
// file has grown past the cap. The rewrite is atomic (temp + rename).
func rotateIfNeeded(path string, maxRecords int) error {
	lines, err := readLines(path)
	if err != nil {
		return erruser.New("Could not read history for rotation.", err)
	}
	if len(lines) <= maxRecords {
		return nil
	}
	keep := lines[len(lines)-maxRecords:]
	dir := filepath.Dir(path)

	f, err := os.CreateTemp(dir, "history.*.tmp")
	if err != nil {
		return erruser.New("Could not rotate history file.", err)
	}
	tmpPath := f.Name()
	defer func() { _ = os.Remove(tmpPath) }()
	for _, l := range keep {
		if _, err := f.WriteString(l + "\n"); err != nil {
			_ = f.Close()
			return erruser.New("Could not rotate history file.", err)
		}
	}
	if err := f.Close(); err != nil {
		return erruser.New("Could not rotate history file.", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return erruser.New("Could not rotate history file.", err)
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
