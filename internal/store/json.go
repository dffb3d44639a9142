package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pbaille/dreamlog/internal/domain"
)

// JSONStore keeps the collection in a single JSON file
type JSONStore struct {
	path   string
	logger *zap.Logger
}

// NewJSONStore creates a store backed by the file at path. The file is
// created on first save.
func NewJSONStore(path string, logger *zap.Logger) *JSONStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONStore{path: path, logger: logger}
}

// Path returns the backing file location
func (s *JSONStore) Path() string {
	return s.path
}

// LoadAll reads the file. A missing file is an empty collection.
func (s *JSONStore) LoadAll() ([]domain.Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}

	entries, issues, err := domain.DecodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	logIssues(s.logger, s.path, issues)

	return entries, nil
}

// SaveAll writes the collection through a temp file and rename so a failed
// write never leaves a truncated file behind
func (s *JSONStore) SaveAll(entries []domain.Entry) error {
	data, err := domain.EncodeEntries(entries)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save entries: %w", err)
	}
	s.logger.Debug("Saved entries", zap.String("path", s.path), zap.Int("count", len(entries)))
	return nil
}

// Clear deletes the file
func (s *JSONStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear entries: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only open during LoadAll and SaveAll
func (s *JSONStore) Close() error {
	return nil
}

func writeFileAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp_entries_*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write([]byte("\n")); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
