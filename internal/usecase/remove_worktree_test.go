package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/testutil"
)

func TestRemoveWorktreeDropsDescriptor(t *testing.T) {
	home := t.TempDir()
	repos := testutil.NewMockRepoStore()
	repo := seedRepo(t, repos, home)
	ctx := context.Background()
	create := NewCreateWorktree(repos, testutil.NewMockGit(), testClock(), testutil.NopLogger{}, home)
	_, err := create.Execute(ctx, CreateWorktreeInput{RepoID: repo.ID, Name: "feature-x"})
	require.NoError(t, err)

	git := testutil.NewMockGit()
	uc := NewRemoveWorktree(repos, git, testClock(), testutil.NopLogger{})
	out, err := uc.Execute(ctx, RemoveWorktreeInput{RepoID: repo.ID, Name: "feature-x"})
	require.NoError(t, err)

	assert.Empty(t, out.Repo.Worktrees)
	assert.Empty(t, out.FileErrors)
	require.Len(t, git.Calls, 1)
	assert.Equal(t, "worktree-remove", git.Calls[0].Op)
}

func TestRemoveWorktreeNotFound(t *testing.T) {
	home := t.TempDir()
	repos := testutil.NewMockRepoStore()
	repo := seedRepo(t, repos, home)
	uc := NewRemoveWorktree(repos, testutil.NewMockGit(), testClock(), testutil.NopLogger{})

	_, err := uc.Execute(context.Background(), RemoveWorktreeInput{RepoID: repo.ID, Name: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveWorktreeRefusesActiveSessions(t *testing.T) {
	home := t.TempDir()
	repos := testutil.NewMockRepoStore()
	repo := seedRepo(t, repos, home)
	repo.Worktrees = []domain.Worktree{{
		Name:     "busy",
		Path:     domain.WorktreePath(home, "superset", "busy"),
		Sessions: []string{"sess-1"},
	}}
	uc := NewRemoveWorktree(repos, testutil.NewMockGit(), testClock(), testutil.NopLogger{})

	_, err := uc.Execute(context.Background(), RemoveWorktreeInput{RepoID: repo.ID, Name: "busy"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	out, err := uc.Execute(context.Background(), RemoveWorktreeInput{RepoID: repo.ID, Name: "busy", Force: true})
	require.NoError(t, err)
	assert.Empty(t, out.Repo.Worktrees)
}

func TestRemoveWorktreeDeleteFiles(t *testing.T) {
	home := t.TempDir()
	repos := testutil.NewMockRepoStore()
	repo := seedRepo(t, repos, home)
	wtPath := domain.WorktreePath(home, "superset", "feature-x")
	require.NoError(t, os.MkdirAll(wtPath, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(wtPath, "f.txt"), []byte("x"), 0o600))
	repo.Worktrees = []domain.Worktree{{Name: "feature-x", Path: wtPath, Sessions: []string{}}}
	uc := NewRemoveWorktree(repos, testutil.NewMockGit(), testClock(), testutil.NopLogger{})

	out, err := uc.Execute(context.Background(), RemoveWorktreeInput{
		RepoID: repo.ID, Name: "feature-x", DeleteFiles: true,
	})
	require.NoError(t, err)
	assert.Empty(t, out.FileErrors)
	assert.NoDirExists(t, wtPath)
}

func TestRemoveWorktreeUnregisterFailureDoesNotAbort(t *testing.T) {
	home := t.TempDir()
	repos := testutil.NewMockRepoStore()
	repo := seedRepo(t, repos, home)
	repo.Worktrees = []domain.Worktree{{
		Name: "stale", Path: domain.WorktreePath(home, "superset", "stale"), Sessions: []string{},
	}}
	git := testutil.NewMockGit()
	git.RemoveErr = &domain.ExternalToolError{Tool: "git worktree remove", Output: "not a working tree"}
	uc := NewRemoveWorktree(repos, git, testClock(), testutil.NopLogger{})

	out, err := uc.Execute(context.Background(), RemoveWorktreeInput{RepoID: repo.ID, Name: "stale"})
	require.NoError(t, err, "descriptor removal proceeds past a failed unregister")
	assert.Len(t, out.FileErrors, 1)
	assert.Empty(t, out.Repo.Worktrees)
}
