package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
	"github.com/loom-sh/loom/internal/testutil"
)

func testClock() *testutil.MockClock {
	return &testutil.MockClock{NowTime: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func seedSession(t *testing.T, store *testutil.MockSessionStore) *domain.Session {
	t.Helper()
	s := &domain.Session{
		ID:     identity.New(),
		Status: domain.SessionRunning,
		Agent:  "claude-code",
		Repo: &domain.RepoContext{
			RepoID:          "repo-1",
			RepoSlug:        "superset",
			WorktreeName:    "feature-x",
			Cwd:             "/work/feature-x",
			ManagedWorktree: true,
		},
		GitState: domain.GitState{
			Ref:        "feature-x",
			BaseSHA:    "aaa111",
			CurrentSHA: "bbb222",
		},
		Genealogy: domain.Genealogy{Children: []string{}},
		Concepts:  []string{"concept-1"},
		Tasks:     []string{"task-1", "task-2"},
	}
	require.NoError(t, store.Insert(context.Background(), s))
	return s
}

func TestForkSessionCopiesParentContext(t *testing.T) {
	store := testutil.NewMockSessionStore()
	parent := seedSession(t, store)
	uc := NewForkSession(store, testClock(), testutil.NopLogger{})

	out, err := uc.Execute(context.Background(), ForkSessionInput{
		ParentID: parent.ID,
		Prompt:   "try the other approach",
		TaskID:   "task-2",
	})
	require.NoError(t, err)

	child := out.Session
	assert.NotEqual(t, parent.ID, child.ID)
	assert.Equal(t, domain.SessionIdle, child.Status)
	assert.Equal(t, parent.Agent, child.Agent)
	assert.Equal(t, parent.GitState, child.GitState)
	assert.Equal(t, parent.Concepts, child.Concepts)
	require.NotNil(t, child.Repo)
	assert.Equal(t, *parent.Repo, *child.Repo)
	assert.Empty(t, child.Tasks, "task history is not inherited")

	assert.Equal(t, parent.ID, child.Genealogy.ForkedFrom)
	assert.Equal(t, "task-2", child.Genealogy.ForkPointTask)
	assert.Empty(t, child.Genealogy.Parent)
	assert.Equal(t, "try the other approach", child.Description)
}

func TestForkSessionLinksParentChildren(t *testing.T) {
	store := testutil.NewMockSessionStore()
	parent := seedSession(t, store)
	uc := NewForkSession(store, testClock(), testutil.NopLogger{})

	out, err := uc.Execute(context.Background(), ForkSessionInput{ParentID: parent.ID})
	require.NoError(t, err)

	stored := store.Sessions[parent.ID]
	assert.Equal(t, []string{out.Session.ID}, stored.Genealogy.Children)
}

func TestForkSessionParentNotFound(t *testing.T) {
	store := testutil.NewMockSessionStore()
	uc := NewForkSession(store, testClock(), testutil.NopLogger{})

	_, err := uc.Execute(context.Background(), ForkSessionInput{ParentID: identity.New()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestForkSessionAcceptsShortPrefix(t *testing.T) {
	store := testutil.NewMockSessionStore()
	parent := seedSession(t, store)
	uc := NewForkSession(store, testClock(), testutil.NopLogger{})

	out, err := uc.Execute(context.Background(), ForkSessionInput{
		ParentID: identity.Short(parent.ID, identity.ShortLength),
	})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, out.Session.Genealogy.ForkedFrom)
}

func TestForkSessionDoesNotAliasParentSlices(t *testing.T) {
	store := testutil.NewMockSessionStore()
	parent := seedSession(t, store)
	uc := NewForkSession(store, testClock(), testutil.NopLogger{})

	out, err := uc.Execute(context.Background(), ForkSessionInput{ParentID: parent.ID})
	require.NoError(t, err)

	out.Session.Concepts[0] = "mutated"
	assert.Equal(t, "concept-1", parent.Concepts[0])
}
