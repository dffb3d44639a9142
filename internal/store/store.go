package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pbaille/dreamlog/internal/domain"
)

// Repository persists the whole entry collection as one unit
type Repository interface {
	// LoadAll returns every stored entry in insertion order, or an empty
	// collection when nothing has been stored yet
	LoadAll() ([]domain.Entry, error)
	// SaveAll atomically replaces the stored collection
	SaveAll(entries []domain.Entry) error
	// Clear removes every stored entry
	Clear() error
	Close() error
}

// Backend names
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open creates the repository for the named backend
func Open(backend, path string, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch backend {
	case BackendJSON, "":
		return NewJSONStore(path, logger), nil
	case BackendSQLite:
		return NewSQLiteStore(path, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func logIssues(logger *zap.Logger, path string, issues []domain.Issue) {
	for _, issue := range issues {
		logger.Warn("Stored record partially unreadable, using defaults",
			zap.String("path", path),
			zap.Int("record", issue.Index),
			zap.String("field", issue.Field),
			zap.Error(issue.Err),
		)
	}
}
