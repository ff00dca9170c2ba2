package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
	"github.com/loom-sh/loom/internal/merge"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// tableSpec names the parts of a query shared helpers need.
type tableSpec struct {
	entity string // entity kind for error messages, e.g. "session"
	table  string
	idCol  string
}

var (
	sessionSpec = tableSpec{entity: "session", table: "sessions", idCol: "session_id"}
	taskSpec    = tableSpec{entity: "task", table: "tasks", idCol: "task_id"}
	messageSpec = tableSpec{entity: "message", table: "messages", idCol: "message_id"}
	repoSpec    = tableSpec{entity: "repo", table: "repos", idCol: "repo_id"}
	boardSpec   = tableSpec{entity: "board", table: "boards", idCol: "board_id"}
)

// resolveID turns a full ID or short prefix into the full stored ID.
// Full-length inputs bypass the scan entirely.
func resolveID(ctx context.Context, q querier, spec tableSpec, idOrPrefix string) (string, error) {
	if identity.IsFull(idOrPrefix) {
		return idOrPrefix, nil
	}

	pattern := escapeLike(identity.Normalize(idOrPrefix)) + "%"
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE replace(%s, '-', '') LIKE ? ESCAPE '\'`, spec.idCol, spec.table, spec.idCol)
	rows, err := q.QueryContext(ctx, query, pattern)
	if err != nil {
		return "", fmt.Errorf("scan %s prefix: %w", spec.entity, err)
	}
	defer func() { _ = rows.Close() }()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan %s id: %w", spec.entity, err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("scan %s prefix: %w", spec.entity, err)
	}

	switch len(matches) {
	case 0:
		return "", &domain.NotFoundError{Entity: spec.entity, Ref: idOrPrefix}
	case 1:
		return matches[0], nil
	default:
		return "", &domain.AmbiguousError{Entity: spec.entity, Prefix: idOrPrefix, Matches: matches}
	}
}

// escapeLike neutralizes LIKE metacharacters in a user-typed prefix so
// "ab%" matches the literal characters, not an arbitrary-width pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// rowData fetches the JSON blob for a fully resolved ID.
func rowData(ctx context.Context, q querier, spec tableSpec, fullID string) ([]byte, error) {
	query := fmt.Sprintf("SELECT data FROM %s WHERE %s = ?", spec.table, spec.idCol)
	var raw []byte
	err := q.QueryRowContext(ctx, query, fullID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: spec.entity, Ref: fullID}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s row: %w", spec.entity, err)
	}
	return raw, nil
}

// getEntity resolves idOrPrefix and decodes the row blob into out.
func getEntity(ctx context.Context, q querier, spec tableSpec, idOrPrefix string, out any) error {
	fullID, err := resolveID(ctx, q, spec, idOrPrefix)
	if err != nil {
		return err
	}
	raw, err := rowData(ctx, q, spec, fullID)
	if err != nil {
		return err
	}
	if err := decodeJSON(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", spec.entity, err)
	}
	return nil
}

// patchRow applies a deep-merge patch to one row inside tx and returns the
// merged blob. The caller re-materializes its filter columns from it.
func patchRow(ctx context.Context, tx *sql.Tx, spec tableSpec, idOrPrefix string, patch domain.Patch, now time.Time) (string, []byte, error) {
	fullID, err := resolveID(ctx, tx, spec, idOrPrefix)
	if err != nil {
		return "", nil, err
	}
	raw, err := rowData(ctx, tx, spec, fullID)
	if err != nil {
		return "", nil, err
	}

	base, err := merge.DecodeMap(raw)
	if err != nil {
		return "", nil, fmt.Errorf("decode %s blob: %w", spec.entity, err)
	}

	merged := merge.Merge(base, patch)
	merged["last_updated"] = now.UTC().Format(time.RFC3339Nano)

	out, err := encodeJSON(merged)
	if err != nil {
		return "", nil, fmt.Errorf("encode merged %s: %w", spec.entity, err)
	}
	return fullID, out, nil
}

// deleteRow removes a row, resolving short prefixes first.
func deleteRow(ctx context.Context, q querier, spec tableSpec, idOrPrefix string) error {
	fullID, err := resolveID(ctx, q, spec, idOrPrefix)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", spec.table, spec.idCol)
	res, err := q.ExecContext(ctx, query, fullID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", spec.entity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", spec.entity, err)
	}
	if n == 0 {
		return &domain.NotFoundError{Entity: spec.entity, Ref: idOrPrefix}
	}
	return nil
}

// unixMS converts a time to the millisecond epoch used by materialized
// timestamp columns.
func unixMS(t time.Time) int64 {
	return t.UnixMilli()
}

func nullableMS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
