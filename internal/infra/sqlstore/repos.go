package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
)

// RepoStore persists repositories and their worktree descriptors.
type RepoStore struct {
	store *Store
}

var _ domain.RepoStore = (*RepoStore)(nil)

// Insert creates a repo row. Slugs are unique; a duplicate fails with
// AlreadyExists rather than a raw constraint error.
func (s *RepoStore) Insert(ctx context.Context, r *domain.Repo) error {
	if !domain.ValidSlug(r.Slug) {
		return &domain.InvalidStateError{Reason: fmt.Sprintf("invalid repo slug %q", r.Slug)}
	}
	if r.ID == "" {
		r.ID = identity.New()
	}
	if r.Name == "" {
		r.Name = r.Slug
	}
	if r.Worktrees == nil {
		r.Worktrees = []domain.Worktree{}
	}
	now := s.store.clock.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	blob, err := encodeJSON(r)
	if err != nil {
		return fmt.Errorf("encode repo: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx,
		`INSERT INTO repos (repo_id, slug, created_at, updated_at, data) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Slug, unixMS(r.CreatedAt), unixMS(r.UpdatedAt), blob)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.AlreadyExistsError{Entity: "repo", Key: r.Slug}
		}
		return fmt.Errorf("insert repo: %w", err)
	}
	return nil
}

// Get retrieves a repo by full ID or short prefix.
func (s *RepoStore) Get(ctx context.Context, idOrPrefix string) (*domain.Repo, error) {
	var r domain.Repo
	if err := getEntity(ctx, s.store.db, repoSpec, idOrPrefix, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetBySlug retrieves a repo by its unique slug.
func (s *RepoStore) GetBySlug(ctx context.Context, slug string) (*domain.Repo, error) {
	var raw []byte
	err := s.store.db.QueryRowContext(ctx,
		"SELECT data FROM repos WHERE slug = ?", slug).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: "repo", Ref: slug}
	}
	if err != nil {
		return nil, fmt.Errorf("read repo by slug: %w", err)
	}
	var r domain.Repo
	if err := decodeJSON(raw, &r); err != nil {
		return nil, fmt.Errorf("decode repo: %w", err)
	}
	return &r, nil
}

// List returns all repos ordered by creation.
func (s *RepoStore) List(ctx context.Context) ([]*domain.Repo, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT data FROM repos ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("query repos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var repos []*domain.Repo
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan repo row: %w", err)
		}
		var r domain.Repo
		if err := decodeJSON(raw, &r); err != nil {
			return nil, fmt.Errorf("decode repo: %w", err)
		}
		repos = append(repos, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query repos: %w", err)
	}
	return repos, nil
}

// Patch applies a deep-merge partial update and returns the result.
func (s *RepoStore) Patch(ctx context.Context, id string, patch domain.Patch) (*domain.Repo, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	fullID, blob, err := patchRow(ctx, tx, repoSpec, id, patch, s.store.clock.Now())
	if err != nil {
		return nil, err
	}

	var r domain.Repo
	if err := decodeJSON(blob, &r); err != nil {
		return nil, fmt.Errorf("decode merged repo: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE repos SET slug = ?, updated_at = ?, data = ? WHERE repo_id = ?",
		r.Slug, unixMS(r.UpdatedAt), blob, fullID); err != nil {
		return nil, fmt.Errorf("update repo: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &r, nil
}

// Delete removes a repo row. On-disk cleanup is the lifecycle manager's
// concern, not the store's.
func (s *RepoStore) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, s.store.db, repoSpec, id)
}

// isUniqueViolation detects a sqlite unique-constraint failure without
// depending on driver error codes.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
