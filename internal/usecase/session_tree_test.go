package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
	"github.com/loom-sh/loom/internal/testutil"
)

// chain builds root -> mid -> leaf via spawn links and returns all three.
func chain(t *testing.T, store *testutil.MockSessionStore) (root, mid, leaf *domain.Session) {
	t.Helper()
	ctx := context.Background()
	root = seedSession(t, store)

	spawn := NewSpawnSession(store, testClock(), testutil.NopLogger{})
	midOut, err := spawn.Execute(ctx, SpawnSessionInput{ParentID: root.ID})
	require.NoError(t, err)
	leafOut, err := spawn.Execute(ctx, SpawnSessionInput{ParentID: midOut.Session.ID})
	require.NoError(t, err)
	return root, midOut.Session, leafOut.Session
}

func TestAncestorsClosestFirst(t *testing.T) {
	store := testutil.NewMockSessionStore()
	root, mid, leaf := chain(t, store)
	uc := NewSessionTree(store, testutil.NopLogger{})

	out, err := uc.Ancestors(context.Background(), SessionTreeInput{SessionID: leaf.ID})
	require.NoError(t, err)

	require.Len(t, out.Ancestors, 2)
	assert.Equal(t, mid.ID, out.Ancestors[0].ID)
	assert.Equal(t, root.ID, out.Ancestors[1].ID)
}

func TestAncestorsOfRootIsEmpty(t *testing.T) {
	store := testutil.NewMockSessionStore()
	root := seedSession(t, store)
	uc := NewSessionTree(store, testutil.NopLogger{})

	out, err := uc.Ancestors(context.Background(), SessionTreeInput{SessionID: root.ID})
	require.NoError(t, err)
	assert.Empty(t, out.Ancestors)
}

func TestAncestorsEndsAtDeletedParent(t *testing.T) {
	store := testutil.NewMockSessionStore()
	root, mid, leaf := chain(t, store)
	require.NoError(t, store.Delete(context.Background(), root.ID))
	uc := NewSessionTree(store, testutil.NopLogger{})

	// Deletion does not cascade: the dangling upward link ends the chain.
	out, err := uc.Ancestors(context.Background(), SessionTreeInput{SessionID: leaf.ID})
	require.NoError(t, err)
	require.Len(t, out.Ancestors, 1)
	assert.Equal(t, mid.ID, out.Ancestors[0].ID)

	// A child whose direct parent is gone is simply a root again.
	out, err = uc.Ancestors(context.Background(), SessionTreeInput{SessionID: mid.ID})
	require.NoError(t, err)
	assert.Empty(t, out.Ancestors)
}

func TestAncestorsFollowsForkOrigin(t *testing.T) {
	store := testutil.NewMockSessionStore()
	parent := seedSession(t, store)
	forked, err := NewForkSession(store, testClock(), testutil.NopLogger{}).
		Execute(context.Background(), ForkSessionInput{ParentID: parent.ID})
	require.NoError(t, err)
	uc := NewSessionTree(store, testutil.NopLogger{})

	out, err := uc.Ancestors(context.Background(), SessionTreeInput{SessionID: forked.Session.ID})
	require.NoError(t, err)
	require.Len(t, out.Ancestors, 1)
	assert.Equal(t, parent.ID, out.Ancestors[0].ID)
}

func TestAncestorsTerminatesOnCycle(t *testing.T) {
	store := testutil.NewMockSessionStore()
	ctx := context.Background()

	a := &domain.Session{ID: identity.New(), Genealogy: domain.Genealogy{}}
	b := &domain.Session{ID: identity.New(), Genealogy: domain.Genealogy{Parent: a.ID}}
	a.Genealogy.Parent = b.ID
	store.Sessions[a.ID] = a
	store.Sessions[b.ID] = b

	uc := NewSessionTree(store, testutil.NopLogger{})
	out, err := uc.Ancestors(ctx, SessionTreeInput{SessionID: a.ID})
	require.NoError(t, err)
	require.Len(t, out.Ancestors, 1)
	assert.Equal(t, b.ID, out.Ancestors[0].ID)
}

func TestDescendantsBreadthFirst(t *testing.T) {
	store := testutil.NewMockSessionStore()
	root, mid, leaf := chain(t, store)
	uc := NewSessionTree(store, testutil.NopLogger{})

	out, err := uc.Descendants(context.Background(), SessionTreeInput{SessionID: root.ID})
	require.NoError(t, err)

	require.Len(t, out.Descendants, 2)
	ids := []string{out.Descendants[0].ID, out.Descendants[1].ID}
	assert.Contains(t, ids, mid.ID)
	assert.Contains(t, ids, leaf.ID)
}

func TestDescendantsSkipsDeletedChildren(t *testing.T) {
	store := testutil.NewMockSessionStore()
	root, mid, leaf := chain(t, store)
	require.NoError(t, store.Delete(context.Background(), mid.ID))

	uc := NewSessionTree(store, testutil.NopLogger{})
	out, err := uc.Descendants(context.Background(), SessionTreeInput{SessionID: root.ID})
	require.NoError(t, err)

	// The deleted middle session is skipped; its subtree is unreachable from
	// the root but the leaf itself still exists as a re-rooted survivor.
	assert.Empty(t, out.Descendants)
	assert.Contains(t, store.Sessions, leaf.ID)
}
