package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File permission constants, matching the database package.
const (
	dirPermissions  = 0750
	filePermissions = 0600
)

// Logger is the minimal logging interface the store needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Store persists cache records to a single JSON file.
//
// A Store is owned by exactly one session; the internal mutex only
// serialises saves triggered from concurrent device updates within
// that session. Two processes sharing one cache file is unsupported.
type Store struct {
	path     string
	disabled bool
	mu       sync.Mutex
	logger   Logger
}

// NewStore creates a cache store for the given file path.
// If disabled is true, Load always returns a fresh record and Save is
// a no-op.
func NewStore(path string, disabled bool) *Store {
	return &Store{
		path:     path,
		disabled: disabled,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Load reads the cache file and merges it into a freshly generated
// template record.
//
// Recovery behaviour:
//   - Missing file: returns a fresh record.
//   - Zero-length file (crashed write of an older version): the file
//     is deleted and a fresh record returned.
//   - Undecodable file: logged, fresh record returned. The next Save
//     replaces the corrupt file.
//
// Merging into the template means fields introduced after the cache
// file was written are backfilled without losing stored values.
func (s *Store) Load() (*Record, error) {
	rec := NewRecord()
	if s.disabled {
		return rec, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no cache file, starting fresh", "path", s.path)
		return rec, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrLoadFailed, s.path, err)
	}

	if len(data) == 0 {
		s.logger.Warn("cache file is empty, removing it", "path", s.path)
		if rmErr := os.Remove(s.path); rmErr != nil {
			return nil, fmt.Errorf("%w: removing empty cache: %w", ErrLoadFailed, rmErr)
		}
		return rec, nil
	}

	var loaded map[string]any
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warn("cache file is corrupt, starting fresh", "path", s.path, "error", err)
		return rec, nil
	}

	base, err := rec.asMap()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	merged, err := recordFromMap(Merge(base, loaded))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	s.logger.Debug("cache loaded", "path", s.path, "devices", len(merged.Devices))
	return merged, nil
}

// Save writes the record to the cache file.
//
// The record is written to a temporary file in the same directory and
// renamed over the target, so a crash mid-write cannot leave a
// truncated cache.
func (s *Store) Save(rec *Record) error {
	if s.disabled {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encoding record: %w", ErrSaveFailed, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("%w: creating cache directory: %w", ErrSaveFailed, err)
	}

	tmp, err := os.CreateTemp(dir, ".nightbell-cache-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %w", ErrSaveFailed, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing temp file: %w", ErrSaveFailed, err)
	}
	if err := tmp.Chmod(filePermissions); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: setting permissions: %w", ErrSaveFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing temp file: %w", ErrSaveFailed, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: replacing cache file: %w", ErrSaveFailed, err)
	}

	return nil
}

// Path returns the cache file path.
func (s *Store) Path() string {
	return s.path
}
