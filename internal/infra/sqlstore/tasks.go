package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
)

// TaskStore persists tasks.
type TaskStore struct {
	store *Store
}

var _ domain.TaskStore = (*TaskStore)(nil)

// Insert creates a task row, assigning an ID if needed.
func (s *TaskStore) Insert(ctx context.Context, t *domain.Task) error {
	if err := s.prepare(t); err != nil {
		return err
	}
	return insertTask(ctx, s.store.db, t)
}

// InsertBatch inserts tasks in one transaction, so a batch commits or
// fails as a unit and can be retried whole.
func (s *TaskStore) InsertBatch(ctx context.Context, ts []*domain.Task) error {
	if len(ts) == 0 {
		return nil
	}
	for _, t := range ts {
		if err := s.prepare(t); err != nil {
			return err
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range ts {
		if err := insertTask(ctx, tx, t); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get retrieves a task by full ID or short prefix.
func (s *TaskStore) Get(ctx context.Context, idOrPrefix string) (*domain.Task, error) {
	var t domain.Task
	if err := getEntity(ctx, s.store.db, taskSpec, idOrPrefix, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// List retrieves tasks matching the filter, ordered by creation.
func (s *TaskStore) List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	query := "SELECT data FROM tasks"
	var args []any
	switch {
	case filter.SessionID != "" && filter.Status != "":
		query += " WHERE session_id = ? AND status = ?"
		args = append(args, filter.SessionID, string(filter.Status))
	case filter.SessionID != "":
		query += " WHERE session_id = ?"
		args = append(args, filter.SessionID)
	case filter.Status != "":
		query += " WHERE status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY created_at"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		var t domain.Task
		if err := decodeJSON(raw, &t); err != nil {
			return nil, fmt.Errorf("decode task: %w", err)
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	return tasks, nil
}

// Patch applies a deep-merge partial update and returns the result.
func (s *TaskStore) Patch(ctx context.Context, id string, patch domain.Patch) (*domain.Task, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	fullID, blob, err := patchRow(ctx, tx, taskSpec, id, patch, s.store.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := materializeTask(ctx, tx, fullID, blob); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	var t domain.Task
	if err := decodeJSON(blob, &t); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &t, nil
}

// Delete removes a task.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, s.store.db, taskSpec, id)
}

func (s *TaskStore) prepare(t *domain.Task) error {
	if t.SessionID == "" {
		return &domain.InvalidStateError{Reason: "task requires a session_id"}
	}
	if t.ID == "" {
		t.ID = identity.New()
	}
	if t.Status == "" {
		t.Status = domain.TaskCreated
	}
	if !domain.ValidTaskStatus(t.Status) {
		return &domain.InvalidStateError{Reason: fmt.Sprintf("unknown task status %q", t.Status)}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.store.clock.Now()
	}
	return nil
}

func insertTask(ctx context.Context, q querier, t *domain.Task) error {
	blob, err := encodeJSON(t)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO tasks (task_id, session_id, created_at, completed_at, status, data)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.SessionID, unixMS(t.CreatedAt), nullableMS(t.CompletedAt), string(t.Status), blob)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func materializeTask(ctx context.Context, tx *sql.Tx, fullID string, blob []byte) error {
	var t domain.Task
	if err := decodeJSON(blob, &t); err != nil {
		return fmt.Errorf("decode merged task: %w", err)
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE tasks SET session_id = ?, completed_at = ?, status = ?, data = ? WHERE task_id = ?`,
		t.SessionID, nullableMS(t.CompletedAt), string(t.Status), blob, fullID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}
