package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loom-sh/loom/internal/domain"
)

// testClock is a fixed clock so timestamps are deterministic.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestStore(t *testing.T) *Store {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)}
	s, err := Open(filepath.Join(t.TempDir(), "loom.db"), clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestInitialize_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Second initialize must not fail or bump the version.
	require.NoError(t, s.Initialize(ctx))

	v, err := s.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, SchemaVersion, v)
}

func TestStore_RoundTripAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loom.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Initialize(ctx))

	sess := &domain.Session{Description: "persisted"}
	require.NoError(t, s.Sessions.Insert(ctx, sess))
	require.NoError(t, s.Close())

	s2, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	got, err := s2.Sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, "persisted", got.Description)
}
