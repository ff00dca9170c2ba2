package sqlstore

import (
	"context"
	"fmt"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
)

// MessageStore persists conversation messages.
type MessageStore struct {
	store *Store
}

var _ domain.MessageStore = (*MessageStore)(nil)

// InsertBatch inserts messages in one transaction. Batches are the unit of
// commit for transcript import: earlier batches stay committed when a later
// one fails.
func (s *MessageStore) InsertBatch(ctx context.Context, ms []*domain.Message) error {
	if len(ms) == 0 {
		return nil
	}
	for _, m := range ms {
		if m.SessionID == "" {
			return &domain.InvalidStateError{Reason: "message requires a session_id"}
		}
		if m.ID == "" {
			m.ID = identity.New()
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range ms {
		blob, err := encodeJSON(m)
		if err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO messages (message_id, session_id, task_id, type, role, idx, created_at, data)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.SessionID, nullable(m.TaskID), string(m.Type), string(m.Role),
			m.Index, unixMS(m.Timestamp), blob)
		if err != nil {
			return fmt.Errorf("insert message %d: %w", m.Index, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get retrieves a message by full ID or short prefix.
func (s *MessageStore) Get(ctx context.Context, idOrPrefix string) (*domain.Message, error) {
	var m domain.Message
	if err := getEntity(ctx, s.store.db, messageSpec, idOrPrefix, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListBySession returns a session's messages in index order.
func (s *MessageStore) ListBySession(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	return s.query(ctx,
		"SELECT data FROM messages WHERE session_id = ? ORDER BY idx", sessionID)
}

// ListByTask returns the messages linked to a task, in index order.
func (s *MessageStore) ListByTask(ctx context.Context, taskID string) ([]*domain.Message, error) {
	return s.query(ctx,
		"SELECT data FROM messages WHERE task_id = ? ORDER BY idx", taskID)
}

// ListByRange returns a session's messages with indices in [start, end].
func (s *MessageStore) ListByRange(ctx context.Context, sessionID string, start, end int) ([]*domain.Message, error) {
	return s.query(ctx,
		"SELECT data FROM messages WHERE session_id = ? AND idx BETWEEN ? AND ? ORDER BY idx",
		sessionID, start, end)
}

// LinkTasks sets task_id on each linked message, in one transaction per
// call. Callers batch links the same way they batch inserts.
func (s *MessageStore) LinkTasks(ctx context.Context, links []domain.MessageLink) error {
	if len(links) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, link := range links {
		raw, err := rowData(ctx, tx, messageSpec, link.MessageID)
		if err != nil {
			return err
		}
		var m domain.Message
		if err := decodeJSON(raw, &m); err != nil {
			return fmt.Errorf("decode message: %w", err)
		}
		m.TaskID = link.TaskID
		blob, err := encodeJSON(&m)
		if err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE messages SET task_id = ?, data = ? WHERE message_id = ?",
			link.TaskID, blob, link.MessageID); err != nil {
			return fmt.Errorf("link message %s: %w", link.MessageID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes a message.
func (s *MessageStore) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, s.store.db, messageSpec, id)
}

func (s *MessageStore) query(ctx context.Context, query string, args ...any) ([]*domain.Message, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ms []*domain.Message
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		var m domain.Message
		if err := decodeJSON(raw, &m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		ms = append(ms, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	return ms, nil
}
