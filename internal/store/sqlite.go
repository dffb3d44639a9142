package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pbaille/dreamlog/internal/domain"
)

//go:embed schema.sql
var schema string

// SQLiteStore handles database operations
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLiteStore with the given database path
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath, logger: logger}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadAll returns every entry in insertion order
func (s *SQLiteStore) LoadAll() ([]domain.Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, date, dream, mood_score, mood_label, type, topics, mood_detail
		FROM entries
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.Entry{}
	var issues []domain.Issue
	for i := 0; rows.Next(); i++ {
		var (
			e                    domain.Entry
			date, category       string
			topicsJSON, detailJS string
		)
		if err := rows.Scan(&e.ID, &date, &e.Text, &e.MoodScore, &e.MoodLabel, &category, &topicsJSON, &detailJS); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		if date != "" {
			d, err := domain.ParseDate(date)
			if err != nil {
				issues = append(issues, domain.Issue{Index: i, Field: "date", Err: err})
			}
			e.Date = d
		}

		cat, ok := domain.ParseCategory(category)
		if !ok {
			issues = append(issues, domain.Issue{Index: i, Field: "type", Err: fmt.Errorf("unknown category %q", category)})
		}
		e.Category = cat

		if err := json.Unmarshal([]byte(topicsJSON), &e.Topics); err != nil {
			issues = append(issues, domain.Issue{Index: i, Field: "topics", Err: err})
		}
		if e.Topics == nil {
			e.Topics = []string{}
		}

		vec, err := domain.ParseEmotionDetail(json.RawMessage(detailJS))
		if err != nil {
			issues = append(issues, domain.Issue{Index: i, Field: "mood_detail", Err: err})
		}
		e.Emotions = vec

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	logIssues(s.logger, s.path, issues)
	return entries, nil
}

// SaveAll replaces every row inside one transaction
func (s *SQLiteStore) SaveAll(entries []domain.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO entries (position, id, date, dream, mood_score, mood_label, type, topics, mood_detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		e = domain.Normalize(e)
		topics, err := json.Marshal(e.Topics)
		if err != nil {
			return fmt.Errorf("encode topics: %w", err)
		}
		detail, err := json.Marshal(e.Emotions)
		if err != nil {
			return fmt.Errorf("encode mood_detail: %w", err)
		}

		if _, err := stmt.Exec(i, e.ID, e.Date.String(), e.Text, e.MoodScore, e.MoodLabel, string(e.Category), string(topics), string(detail)); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.logger.Debug("Saved entries", zap.String("path", s.path), zap.Int("count", len(entries)))
	return nil
}

// Clear deletes every row
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	return nil
}
