package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// ErrNotFound is returned by Load when there is no ledger and the store
// was told not to create one.
var ErrNotFound = errors.New("ledger not found")

// ErrSkipRun is returned by Load when there is no ledger and the store was
// told to skip the run. Callers should treat the batch as a no-op.
var ErrSkipRun = errors.New("ledger not found, skipping run")

// MissingPolicy decides what Load does when the backing file does not exist.
type MissingPolicy int

const (
	// MissingCreate starts from an empty ledger. The file appears on the first Save.
	MissingCreate MissingPolicy = iota
	// MissingSkip makes Load return ErrSkipRun.
	MissingSkip
	// MissingFail makes Load return ErrNotFound.
	MissingFail
)

// ParseMissingPolicy maps the config spelling of a policy to its value.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch s {
	case "create", "":
		return MissingCreate, nil
	case "skip":
		return MissingSkip, nil
	case "fail":
		return MissingFail, nil
	}
	return MissingCreate, fmt.Errorf("unknown missing-ledger policy %q", s)
}

// Store loads and persists ledger entries.
type Store interface {
	Load() ([]string, error)
	// Save writes existing followed by newItems and returns the combined list.
	Save(existing, newItems []string) ([]string, error)
}

// FileStore keeps the ledger as a JSON array of strings in a single file.
type FileStore struct {
	path    string
	missing MissingPolicy
}

func NewFileStore(path string, missing MissingPolicy) *FileStore {
	return &FileStore{path: path, missing: missing}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to open ledger file %s: %w", s.path, err)
		}
		switch s.missing {
		case MissingSkip:
			logger.Warn("Ledger file not found, skipping run", slog.String("path", s.path))
			return nil, ErrSkipRun
		case MissingFail:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		logger.Info("Ledger file not found, starting with an empty ledger", slog.String("path", s.path))
		return []string{}, nil
	}
	defer f.Close()

	var entries []string
	if err := json.NewDecoder(f).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode ledger file %s: %w", s.path, err)
	}
	if entries == nil {
		entries = []string{}
	}
	logger.Debug("Loaded ledger", slog.String("path", s.path), slog.Int("entries", len(entries)))
	return entries, nil
}

// Save overwrites the ledger file. The data is written to a temporary file
// next to the target and then renamed over it.
func (s *FileStore) Save(existing, newItems []string) ([]string, error) {
	all := slices.Concat(existing, newItems)
	if all == nil {
		all = []string{}
	}
	data, err := json.Marshal(all)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dir %s: %w", dir, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write ledger file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return nil, fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	logger.Debug("Saved ledger",
		slog.String("path", s.path),
		slog.Int("entries", len(all)),
		slog.Int("added", len(newItems)))
	return all, nil
}

// Memory is a Store backed by a slice. The zero value is an empty ledger.
type Memory struct {
	mu      sync.Mutex
	entries []string
	saves   int
}

func NewMemory(entries ...string) *Memory {
	return &Memory{entries: slices.Clone(entries)}
}

func (m *Memory) Load() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		return []string{}, nil
	}
	return slices.Clone(m.entries), nil
}

func (m *Memory) Save(existing, newItems []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = slices.Concat(existing, newItems)
	m.saves++
	return slices.Clone(m.entries), nil
}

// Saves reports how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
