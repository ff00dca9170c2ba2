// Package sqlstore persists loom entities in a SQLite database.
//
// Each entity table materializes the columns queries filter or join by and
// keeps the complete entity as a JSON blob in a data column. Materialized
// columns are derived from the blob and recomputed on every write; the blob
// is the source of truth. Partial updates go through a read-merge-write
// sequence inside one transaction, so concurrent patches to the same row
// serialize at the store rather than interleaving at the field level.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/loom-sh/loom/internal/domain"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// Store bundles the entity stores sharing one database handle.
type Store struct {
	db    *sql.DB
	clock domain.Clock

	Sessions *SessionStore
	Tasks    *TaskStore
	Messages *MessageStore
	Repos    *RepoStore
	Boards   *BoardStore
}

// Ensure Store implements the initializer port.
var _ domain.StoreInitializer = (*Store)(nil)

// Open opens (creating if necessary) the database at path.
func Open(path string, clock domain.Clock) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The driver serializes writers; a single connection avoids
	// SQLITE_BUSY on concurrent transactions.
	db.SetMaxOpenConns(1)

	if clock == nil {
		clock = domain.RealClock{}
	}

	s := &Store{db: db, clock: clock}
	s.Sessions = &SessionStore{store: s}
	s.Tasks = &TaskStore{store: s}
	s.Messages = &MessageStore{store: s}
	s.Repos = &RepoStore{store: s}
	s.Boards = &BoardStore{store: s}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates all tables and indexes if they don't exist.
func (s *Store) Initialize(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := createTables(tx); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	if err := setSchemaVersion(tx, SchemaVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Version returns the schema version recorded in the database, or 0 for an
// uninitialized database.
func (s *Store) Version(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx,
		"SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query schema version: %w", err)
	}
	return version, nil
}

func createTables(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version    INTEGER NOT NULL,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id             TEXT PRIMARY KEY,
			created_at             INTEGER NOT NULL,
			updated_at             INTEGER,
			status                 TEXT NOT NULL,
			agent                  TEXT NOT NULL,
			parent_session_id      TEXT,
			forked_from_session_id TEXT,
			data                   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS sessions_status_idx ON sessions(status)`,
		`CREATE INDEX IF NOT EXISTS sessions_agent_idx ON sessions(agent)`,
		`CREATE INDEX IF NOT EXISTS sessions_parent_idx ON sessions(parent_session_id)`,
		`CREATE INDEX IF NOT EXISTS sessions_forked_idx ON sessions(forked_from_session_id)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			task_id      TEXT PRIMARY KEY,
			session_id   TEXT NOT NULL,
			created_at   INTEGER NOT NULL,
			completed_at INTEGER,
			status       TEXT NOT NULL,
			data         TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS tasks_session_idx ON tasks(session_id)`,
		`CREATE INDEX IF NOT EXISTS tasks_status_idx ON tasks(status)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			task_id    TEXT,
			type       TEXT NOT NULL,
			role       TEXT NOT NULL,
			idx        INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			data       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS messages_session_idx ON messages(session_id, idx)`,
		`CREATE INDEX IF NOT EXISTS messages_task_idx ON messages(task_id)`,
		`CREATE TABLE IF NOT EXISTS repos (
			repo_id    TEXT PRIMARY KEY,
			slug       TEXT NOT NULL UNIQUE,
			created_at INTEGER NOT NULL,
			updated_at INTEGER,
			data       TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS boards (
			board_id   TEXT PRIMARY KEY,
			slug       TEXT UNIQUE,
			name       TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER,
			data       TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	var current int
	err := tx.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&current)
	if err == nil && current >= version {
		return nil
	}
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}
