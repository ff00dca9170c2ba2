package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
	"github.com/loom-sh/loom/internal/merge"
)

// DefaultAgent is the agent kind assigned when a create doesn't name one.
const DefaultAgent = "claude-code"

// SessionStore persists sessions.
type SessionStore struct {
	store *Store
}

var _ domain.SessionStore = (*SessionStore)(nil)

// Insert creates a session row, assigning an ID and defaults for any
// zero-valued fields. A session carrying both a spawn parent and a fork
// origin is rejected at this boundary.
func (s *SessionStore) Insert(ctx context.Context, sess *domain.Session) error {
	if err := s.prepare(sess); err != nil {
		return err
	}
	return s.insert(ctx, s.store.db, sess)
}

// InsertChild atomically inserts child and appends its ID to the parent's
// genealogy children list. parentID may be a short prefix.
func (s *SessionStore) InsertChild(ctx context.Context, child *domain.Session, parentID string) error {
	if err := s.prepare(child); err != nil {
		return err
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	fullParent, err := resolveID(ctx, tx, sessionSpec, parentID)
	if err != nil {
		return err
	}
	parentRaw, err := rowData(ctx, tx, sessionSpec, fullParent)
	if err != nil {
		return err
	}

	var parent domain.Session
	if err := decodeJSON(parentRaw, &parent); err != nil {
		return fmt.Errorf("decode parent session: %w", err)
	}

	if err := s.insert(ctx, tx, child); err != nil {
		return err
	}

	children := append(append([]string{}, parent.Genealogy.Children...), child.ID)
	genealogy, err := merge.ToMap(parent.Genealogy)
	if err != nil {
		return fmt.Errorf("encode parent genealogy: %w", err)
	}
	genealogy["children"] = children

	fullID, blob, err := patchRow(ctx, tx, sessionSpec, fullParent,
		domain.Patch{"genealogy": genealogy}, s.store.clock.Now())
	if err != nil {
		return err
	}
	if err := s.materialize(ctx, tx, fullID, blob); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get retrieves a session by full ID or short prefix.
func (s *SessionStore) Get(ctx context.Context, idOrPrefix string) (*domain.Session, error) {
	var sess domain.Session
	if err := getEntity(ctx, s.store.db, sessionSpec, idOrPrefix, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// List retrieves sessions matching the filter, newest last.
func (s *SessionStore) List(ctx context.Context, filter domain.SessionFilter) ([]*domain.Session, error) {
	if filter.Board != "" {
		return s.listByBoard(ctx, filter)
	}

	query := "SELECT data FROM sessions"
	var args []any
	switch {
	case filter.Status != "" && filter.Agent != "":
		query += " WHERE status = ? AND agent = ?"
		args = append(args, string(filter.Status), filter.Agent)
	case filter.Status != "":
		query += " WHERE status = ?"
		args = append(args, string(filter.Status))
	case filter.Agent != "":
		query += " WHERE agent = ?"
		args = append(args, filter.Agent)
	}
	query += " ORDER BY created_at"

	return s.query(ctx, query, args...)
}

// listByBoard resolves the board's session list and loads those rows.
// Board references are soft; IDs pointing at deleted sessions are skipped.
func (s *SessionStore) listByBoard(ctx context.Context, filter domain.SessionFilter) ([]*domain.Session, error) {
	var board domain.Board
	if err := getEntity(ctx, s.store.db, boardSpec, filter.Board, &board); err != nil {
		return nil, err
	}

	var sessions []*domain.Session
	for _, id := range board.Sessions {
		sess, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if filter.Status != "" && sess.Status != filter.Status {
			continue
		}
		if filter.Agent != "" && sess.Agent != filter.Agent {
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Children returns sessions whose spawn parent or fork origin is id.
func (s *SessionStore) Children(ctx context.Context, id string) ([]*domain.Session, error) {
	fullID, err := resolveID(ctx, s.store.db, sessionSpec, id)
	if err != nil {
		return nil, err
	}
	return s.query(ctx,
		`SELECT data FROM sessions
		 WHERE parent_session_id = ? OR forked_from_session_id = ?
		 ORDER BY created_at`, fullID, fullID)
}

// Patch applies a deep-merge partial update and returns the result.
func (s *SessionStore) Patch(ctx context.Context, id string, patch domain.Patch) (*domain.Session, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	fullID, blob, err := patchRow(ctx, tx, sessionSpec, id, patch, s.store.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.materialize(ctx, tx, fullID, blob); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	var sess domain.Session
	if err := decodeJSON(blob, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Delete removes a session. Genealogy children are not cascaded: they keep
// their upward reference to the deleted ID and become roots.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, s.store.db, sessionSpec, id)
}

// prepare fills defaults and validates invariants before any insert.
func (s *SessionStore) prepare(sess *domain.Session) error {
	if sess.Genealogy.HasDualParentage() {
		return &domain.InvalidStateError{
			Reason: "session cannot be both a fork and a spawn of different sessions",
		}
	}
	if sess.ID == "" {
		sess.ID = identity.New()
	}
	if sess.Status == "" {
		sess.Status = domain.SessionIdle
	}
	if !domain.ValidSessionStatus(sess.Status) {
		return &domain.InvalidStateError{Reason: fmt.Sprintf("unknown session status %q", sess.Status)}
	}
	if sess.Agent == "" {
		sess.Agent = DefaultAgent
	}
	if sess.Concepts == nil {
		sess.Concepts = []string{}
	}
	if sess.Tasks == nil {
		sess.Tasks = []string{}
	}
	if sess.Genealogy.Children == nil {
		sess.Genealogy.Children = []string{}
	}
	now := s.store.clock.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now
	return nil
}

func (s *SessionStore) insert(ctx context.Context, q querier, sess *domain.Session) error {
	blob, err := encodeJSON(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO sessions
		 (session_id, created_at, updated_at, status, agent, parent_session_id, forked_from_session_id, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, unixMS(sess.CreatedAt), unixMS(sess.UpdatedAt), string(sess.Status), sess.Agent,
		nullable(sess.Genealogy.Parent), nullable(sess.Genealogy.ForkedFrom), blob)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// materialize recomputes the filter columns from a merged blob.
func (s *SessionStore) materialize(ctx context.Context, tx *sql.Tx, fullID string, blob []byte) error {
	var sess domain.Session
	if err := decodeJSON(blob, &sess); err != nil {
		return fmt.Errorf("decode merged session: %w", err)
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE sessions
		 SET updated_at = ?, status = ?, agent = ?, parent_session_id = ?, forked_from_session_id = ?, data = ?
		 WHERE session_id = ?`,
		unixMS(sess.UpdatedAt), string(sess.Status), sess.Agent,
		nullable(sess.Genealogy.Parent), nullable(sess.Genealogy.ForkedFrom), blob, fullID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (s *SessionStore) query(ctx context.Context, query string, args ...any) ([]*domain.Session, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*domain.Session
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		var sess domain.Session
		if err := decodeJSON(raw, &sess); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		sessions = append(sessions, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	return sessions, nil
}
