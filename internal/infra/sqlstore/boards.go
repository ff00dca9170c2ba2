package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
)

// BoardStore persists boards.
type BoardStore struct {
	store *Store
}

var _ domain.BoardStore = (*BoardStore)(nil)

// Insert creates a board row.
func (s *BoardStore) Insert(ctx context.Context, b *domain.Board) error {
	if b.Name == "" {
		return &domain.InvalidStateError{Reason: "board requires a name"}
	}
	if b.Slug != "" && !domain.ValidSlug(b.Slug) {
		return &domain.InvalidStateError{Reason: fmt.Sprintf("invalid board slug %q", b.Slug)}
	}
	if b.ID == "" {
		b.ID = identity.New()
	}
	if b.Sessions == nil {
		b.Sessions = []string{}
	}
	now := s.store.clock.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	blob, err := encodeJSON(b)
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx,
		`INSERT INTO boards (board_id, slug, name, created_at, updated_at, data) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, nullable(b.Slug), b.Name, unixMS(b.CreatedAt), unixMS(b.UpdatedAt), blob)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.AlreadyExistsError{Entity: "board", Key: b.Slug}
		}
		return fmt.Errorf("insert board: %w", err)
	}
	return nil
}

// Get retrieves a board by full ID or short prefix.
func (s *BoardStore) Get(ctx context.Context, idOrPrefix string) (*domain.Board, error) {
	var b domain.Board
	if err := getEntity(ctx, s.store.db, boardSpec, idOrPrefix, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBySlug retrieves a board by its slug.
func (s *BoardStore) GetBySlug(ctx context.Context, slug string) (*domain.Board, error) {
	var raw []byte
	err := s.store.db.QueryRowContext(ctx,
		"SELECT data FROM boards WHERE slug = ?", slug).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: "board", Ref: slug}
	}
	if err != nil {
		return nil, fmt.Errorf("read board by slug: %w", err)
	}
	var b domain.Board
	if err := decodeJSON(raw, &b); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	return &b, nil
}

// List returns all boards ordered by creation.
func (s *BoardStore) List(ctx context.Context) ([]*domain.Board, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT data FROM boards ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("query boards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var boards []*domain.Board
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan board row: %w", err)
		}
		var b domain.Board
		if err := decodeJSON(raw, &b); err != nil {
			return nil, fmt.Errorf("decode board: %w", err)
		}
		boards = append(boards, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query boards: %w", err)
	}
	return boards, nil
}

// Patch applies a deep-merge partial update and returns the result.
func (s *BoardStore) Patch(ctx context.Context, id string, patch domain.Patch) (*domain.Board, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	fullID, blob, err := patchRow(ctx, tx, boardSpec, id, patch, s.store.clock.Now())
	if err != nil {
		return nil, err
	}

	var b domain.Board
	if err := decodeJSON(blob, &b); err != nil {
		return nil, fmt.Errorf("decode merged board: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE boards SET slug = ?, name = ?, updated_at = ?, data = ? WHERE board_id = ?",
		nullable(b.Slug), b.Name, unixMS(b.UpdatedAt), blob, fullID); err != nil {
		return nil, fmt.Errorf("update board: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &b, nil
}

// Delete removes a board. Member sessions are untouched.
func (s *BoardStore) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, s.store.db, boardSpec, id)
}
