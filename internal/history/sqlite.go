// Package history stores generated insights in SQLite so past summaries,
// explanations and conversions can be listed later.
package history

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/repoexplorer/internal/explorer"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
)

// DefaultLimit caps list queries that pass a non-positive limit.
const DefaultLimit = 50

// SQLiteStore persists insights using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "open sqlite database").
			WithContext("path", dbPath).
			Build()
	}
	if dbPath == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryStorage, "initialize schema").
			WithContext("path", dbPath).
			Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS insights (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		repository TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '',
		source_language TEXT NOT NULL DEFAULT '',
		target_language TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_insights_repository ON insights(repository);
	CREATE INDEX IF NOT EXISTS idx_insights_created_at ON insights(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores one insight. CreatedAt defaults to the current time.
func (s *SQLiteStore) Record(ctx context.Context, in explorer.Insight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := in.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO insights (session_id, kind, repository, path, source_language, target_language, model, text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.SessionID, string(in.Kind), in.Repository, in.Path, in.SourceLanguage, in.TargetLanguage,
		in.Model, in.Text, created.UnixMilli(),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "insert insight").Build()
	}
	return nil
}

// List returns the most recent insights, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]explorer.Insight, error) {
	return s.query(ctx,
		"SELECT id, session_id, kind, repository, path, source_language, target_language, model, text, created_at FROM insights ORDER BY id DESC LIMIT ?",
		normalizeLimit(limit))
}

// ListByRepository returns the most recent insights of one repository ("owner/name"), newest first.
func (s *SQLiteStore) ListByRepository(ctx context.Context, fullName string, limit int) ([]explorer.Insight, error) {
	return s.query(ctx,
		"SELECT id, session_id, kind, repository, path, source_language, target_language, model, text, created_at FROM insights WHERE repository = ? COLLATE NOCASE ORDER BY id DESC LIMIT ?",
		fullName, normalizeLimit(limit))
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]explorer.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "query insights").Build()
	}
	defer func() { _ = rows.Close() }()

	insights := make([]explorer.Insight, 0)
	for rows.Next() {
		var in explorer.Insight
		var kind string
		var createdMilli int64
		if err := rows.Scan(&in.ID, &in.SessionID, &kind, &in.Repository, &in.Path,
			&in.SourceLanguage, &in.TargetLanguage, &in.Model, &in.Text, &createdMilli); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "scan insight").Build()
		}
		in.Kind = explorer.InsightKind(kind)
		in.CreatedAt = time.UnixMilli(createdMilli).UTC()
		insights = append(insights, in)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "iterate insights").Build()
	}
	return insights, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
