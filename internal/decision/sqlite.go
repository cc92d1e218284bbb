package decision

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/cull/internal/config"
	"github.com/hpungsan/cull/internal/errors"
)

// currentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const currentSchemaVersion = 1

// SQLiteStore is the document-style backend: one row per handle with the
// decision and an updated_at timestamp. Save relies on sqlite's atomic
// upsert, so concurrent writers cannot corrupt the mapping and the last
// write to commit wins.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the decision database at dbPath
// and runs schema migrations. The returned store wraps a connection pool
// opened once and reused across requests.
func OpenSQLite(dbPath string, cfg *config.Config) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	_ = os.Chmod(dir, 0700)

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	if cfg != nil {
		if cfg.DBMaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.DBMaxOpenConns)
		}
		if cfg.DBMaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.DBMaxIdleConns)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS decisions (
		  handle     TEXT PRIMARY KEY,
		  decision   TEXT NOT NULL,
		  updated_at INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// getUserVersion returns the current schema version (user_version pragma).
func getUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// setUserVersion sets the schema version (user_version pragma).
func setUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

// LoadAll implements Store.
func (s *SQLiteStore) LoadAll(ctx context.Context) (map[string]Decision, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT handle, decision FROM decisions`)
	if err != nil {
		return nil, errors.NewStore(err)
	}
	defer rows.Close()

	decisions := map[string]Decision{}
	for rows.Next() {
		var handle, d string
		if err := rows.Scan(&handle, &d); err != nil {
			return nil, errors.NewStore(err)
		}
		decisions[handle] = Decision(d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStore(err)
	}
	return decisions, nil
}

// Save implements Store using a single atomic upsert keyed by handle.
func (s *SQLiteStore) Save(ctx context.Context, handle string, d Decision) error {
	if handle == "" {
		return errors.NewInvalidRequest("handle is required")
	}
	if !d.Valid() {
		return errors.NewInvalidRequest(fmt.Sprintf("decision must be %q or %q", Keep, Delete))
	}

	query := `
		INSERT INTO decisions (handle, decision, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(handle) DO UPDATE SET
			decision = excluded.decision,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, handle, string(d), time.Now().Unix()); err != nil {
		return errors.NewStore(err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, handle string) (Decision, bool, error) {
	var d string
	err := s.db.QueryRowContext(ctx,
		`SELECT decision FROM decisions WHERE handle = ?`, handle).Scan(&d)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewStore(err)
	}
	return Decision(d), true, nil
}

// UpdatedAt returns the last write time for handle, for callers that
// surface the richer document shape. False when no entry exists.
func (s *SQLiteStore) UpdatedAt(ctx context.Context, handle string) (time.Time, bool, error) {
	var unix int64
	err := s.db.QueryRowContext(ctx,
		`SELECT updated_at FROM decisions WHERE handle = ?`, handle).Scan(&unix)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.NewStore(err)
	}
	return time.Unix(unix, 0), true, nil
}

// Delete implements Store. Removing an absent handle succeeds.
func (s *SQLiteStore) Delete(ctx context.Context, handle string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM decisions WHERE handle = ?`, handle); err != nil {
		return errors.NewStore(err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
