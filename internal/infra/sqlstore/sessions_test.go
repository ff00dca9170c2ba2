package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
)

func TestSessions_InsertDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := &domain.Session{Description: "first"}
	require.NoError(t, s.Sessions.Insert(ctx, sess))

	got, err := s.Sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionIdle, got.Status)
	assert.Equal(t, DefaultAgent, got.Agent)
	assert.Equal(t, []string{}, got.Tasks)
	assert.Equal(t, []string{}, got.Genealogy.Children)
	assert.True(t, identity.IsFull(got.ID))
}

func TestSessions_InsertRejectsDualParentage(t *testing.T) {
	s := newTestStore(t)

	err := s.Sessions.Insert(context.Background(), &domain.Session{
		Genealogy: domain.Genealogy{
			Parent:     identity.New(),
			ForkedFrom: identity.New(),
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSessions_GetByShortPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := &domain.Session{}
	require.NoError(t, s.Sessions.Insert(ctx, sess))

	got, err := s.Sessions.Get(ctx, identity.Short(sess.ID, 8))
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	_, err = s.Sessions.Get(ctx, "ffffffff")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessions_PrefixWildcardsMatchLiterally(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := &domain.Session{}
	require.NoError(t, s.Sessions.Insert(ctx, sess))

	// LIKE metacharacters in a typed prefix must not widen the match set.
	for _, ref := range []string{"%", "____", identity.Short(sess.ID, 4) + "%"} {
		_, err := s.Sessions.Get(ctx, ref)
		assert.ErrorIs(t, err, domain.ErrNotFound, "ref %q", ref)
	}

	// The plain prefix still resolves.
	got, err := s.Sessions.Get(ctx, identity.Short(sess.ID, 8))
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestSessions_PatchDeepMergeKeepsSiblings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := &domain.Session{
		GitState: domain.GitState{Ref: "main", BaseSHA: "abc", CurrentSHA: "abc"},
	}
	require.NoError(t, s.Sessions.Insert(ctx, sess))

	got, err := s.Sessions.Patch(ctx, sess.ID, domain.Patch{
		"git_state": map[string]any{"current_sha": "def" + domain.DirtySuffix},
	})
	require.NoError(t, err)

	assert.Equal(t, "main", got.GitState.Ref, "untouched nested field survives")
	assert.Equal(t, "abc", got.GitState.BaseSHA)
	assert.Equal(t, "def-dirty", got.GitState.CurrentSHA)
	assert.Equal(t, "def", domain.CleanSHA(got.GitState.CurrentSHA))
}

func TestSessions_PatchStatusUpdatesFilterColumn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := &domain.Session{}
	require.NoError(t, s.Sessions.Insert(ctx, sess))

	_, err := s.Sessions.Patch(ctx, sess.ID, domain.Patch{"status": "running"})
	require.NoError(t, err)

	running, err := s.Sessions.List(ctx, domain.SessionFilter{Status: domain.SessionRunning})
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, sess.ID, running[0].ID)
}

func TestSessions_InsertChildLinksParent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parent := &domain.Session{}
	require.NoError(t, s.Sessions.Insert(ctx, parent))

	child := &domain.Session{
		Genealogy: domain.Genealogy{ForkedFrom: parent.ID},
	}
	require.NoError(t, s.Sessions.InsertChild(ctx, child, parent.ID))

	gotParent, err := s.Sessions.Get(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{child.ID}, gotParent.Genealogy.Children)

	children, err := s.Sessions.Children(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)
}

func TestSessions_InsertChildMissingParent(t *testing.T) {
	s := newTestStore(t)

	child := &domain.Session{}
	err := s.Sessions.InsertChild(context.Background(), child, identity.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The child must not have been inserted either.
	_, getErr := s.Sessions.Get(context.Background(), child.ID)
	assert.ErrorIs(t, getErr, domain.ErrNotFound)
}

func TestSessions_DeleteDoesNotCascadeChildren(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parent := &domain.Session{}
	require.NoError(t, s.Sessions.Insert(ctx, parent))

	fork := &domain.Session{Genealogy: domain.Genealogy{ForkedFrom: parent.ID}}
	require.NoError(t, s.Sessions.InsertChild(ctx, fork, parent.ID))
	spawn := &domain.Session{Genealogy: domain.Genealogy{Parent: parent.ID}}
	require.NoError(t, s.Sessions.InsertChild(ctx, spawn, parent.ID))

	require.NoError(t, s.Sessions.Delete(ctx, parent.ID))

	// Children survive and keep their upward reference to the deleted ID.
	gotFork, err := s.Sessions.Get(ctx, fork.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, gotFork.Genealogy.ForkedFrom)

	gotSpawn, err := s.Sessions.Get(ctx, spawn.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, gotSpawn.Genealogy.Parent)
}

func TestSessions_ListByBoard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &domain.Session{}
	b := &domain.Session{}
	require.NoError(t, s.Sessions.Insert(ctx, a))
	require.NoError(t, s.Sessions.Insert(ctx, b))

	board := &domain.Board{Name: "Experiments", Slug: "experiments",
		Sessions: []string{a.ID, identity.New()}} // second ID is dangling
	require.NoError(t, s.Boards.Insert(ctx, board))

	got, err := s.Sessions.List(ctx, domain.SessionFilter{Board: board.ID})
	require.NoError(t, err)
	require.Len(t, got, 1, "dangling board references are skipped")
	assert.Equal(t, a.ID, got[0].ID)
}
