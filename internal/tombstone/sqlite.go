package tombstone

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/gigmatch/livesync/internal/dbx"
	"github.com/gigmatch/livesync/internal/logging"
	"github.com/gigmatch/livesync/internal/tombstone/migrations"
)

// SQLiteStore persists tombstones in a local sqlite database and mirrors them
// in an in-memory set so IsTombstoned never touches disk.
//
// Writes happen synchronously inside Add, before the network mutation that
// triggered them, so a crash right after a reject never loses the tombstone.
// A failed write degrades to session-only suppression: the memory set is
// already updated, the failure is logged as a warning.
type SQLiteStore struct {
	db  dbx.DBTX
	log logging.Logger

	mu    sync.RWMutex
	cache map[string]map[string]struct{}
}

func NewSQLiteStore(db dbx.DBTX, log logging.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:    db,
		log:   log.With("module", "tombstone"),
		cache: make(map[string]map[string]struct{}),
	}
}

// RunMigrations applies the embedded sqlite migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the tombstone database at dsn and returns a
// migrated store.
func Open(ctx context.Context, dsn string, log logging.Logger) (*SQLiteStore, *sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open tombstone db: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}

	return NewSQLiteStore(db, log), db, nil
}

func (s *SQLiteStore) IsTombstoned(scope, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cache[scope][id]
	return ok
}

func (s *SQLiteStore) Add(ctx context.Context, scope, id string) error {
	s.mu.Lock()
	ids, ok := s.cache[scope]
	if !ok {
		ids = make(map[string]struct{})
		s.cache[scope] = ids
	}
	_, present := ids[id]
	ids[id] = struct{}{}
	s.mu.Unlock()

	if present {
		return nil
	}

	query := `INSERT INTO tombstones (scope_id, record_id) VALUES (?, ?)
		ON CONFLICT(scope_id, record_id) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, scope, id); err != nil {
		// Session-local suppression still holds; only persistence across
		// reloads is at risk.
		s.log.Warn(ctx, "tombstone write failed", "scope", scope, "id", id, "error", err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, scope, id string) error {
	s.mu.Lock()
	delete(s.cache[scope], id)
	s.mu.Unlock()

	query := `DELETE FROM tombstones WHERE scope_id = ? AND record_id = ?`
	if _, err := s.db.ExecContext(ctx, query, scope, id); err != nil {
		return fmt.Errorf("failed to delete tombstone: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadAll(ctx context.Context, scope string) (map[string]struct{}, error) {
	query := `SELECT record_id FROM tombstones WHERE scope_id = ?`
	rows, err := s.db.QueryContext(ctx, query, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to select tombstones: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	cached, ok := s.cache[scope]
	if !ok {
		cached = make(map[string]struct{}, len(ids))
		s.cache[scope] = cached
	}
	for id := range ids {
		cached[id] = struct{}{}
	}
	// Tombstones added this session but not yet visible in the query result
	// (or not persisted at all) stay suppressed.
	for id := range cached {
		ids[id] = struct{}{}
	}
	s.mu.Unlock()

	return ids, nil
}
