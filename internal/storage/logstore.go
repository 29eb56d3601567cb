package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/valter-silva-au/wbs-gantt/pkg/models"
)

// LogStore holds the labor log corpus as append-only JSONL, one
// models.LogEntry per line.
type LogStore interface {
	Append(entry models.LogEntry) error
	ReadAll() ([]models.LogEntry, error)
	Path() string
}

type jsonlLogStore struct {
	path string
	mu   sync.Mutex
}

// NewLogStore creates a LogStore backed by the JSONL file at path. The file
// is created on first Append.
func NewLogStore(path string) LogStore {
	return &jsonlLogStore{path: path}
}

func (s *jsonlLogStore) Path() string { return s.path }

func (s *jsonlLogStore) Append(entry models.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Engineer == "" {
		return fmt.Errorf("appending log entry: engineer must not be empty")
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshalling log entry: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("appending log entry: creating directory: %w", err)
	}
	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return fmt.Errorf("appending log entry: %w", err)
	}
	defer func() { _ = unlock() }()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log store: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing log entry: %w", err)
	}
	return nil
}

// ReadAll returns every well-formed record. The corpus comes from an
// upstream time-entry system, so malformed lines are skipped rather than
// failing the whole read.
func (s *jsonlLogStore) ReadAll() ([]models.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening log store for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []models.LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry models.LogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue // skip malformed lines
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning log store: %w", err)
	}
	return entries, nil
}
