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

func TestCloneRepoRecordsDescriptor(t *testing.T) {
	home := t.TempDir()
	repos := testutil.NewMockRepoStore()
	git := testutil.NewMockGit()
	git.DefaultBranch = "develop"
	uc := NewCloneRepo(repos, git, testClock(), testutil.NopLogger{}, home)

	out, err := uc.Execute(context.Background(), CloneRepoInput{
		URL: "https://github.com/apache/superset.git",
	})
	require.NoError(t, err)

	repo := out.Repo
	assert.Equal(t, "superset", repo.Slug)
	assert.Equal(t, "superset", repo.Name)
	assert.Equal(t, "develop", repo.DefaultBranch)
	assert.Equal(t, domain.RepoPath(home, "superset"), repo.LocalPath)
	assert.True(t, repo.Managed)
	assert.Empty(t, repo.Worktrees)
	assert.Contains(t, repos.Repos, repo.ID)

	require.Len(t, git.Calls, 1)
	assert.Equal(t, "clone", git.Calls[0].Op)
}

func TestCloneRepoExplicitSlug(t *testing.T) {
	home := t.TempDir()
	uc := NewCloneRepo(testutil.NewMockRepoStore(), testutil.NewMockGit(), testClock(), testutil.NopLogger{}, home)

	out, err := uc.Execute(context.Background(), CloneRepoInput{
		URL:  "git@github.com:facebook/react.git",
		Slug: "react-fork",
	})
	require.NoError(t, err)
	assert.Equal(t, "react-fork", out.Repo.Slug)
	assert.Equal(t, "react", out.Repo.Name)
}

func TestCloneRepoOccupiedPath(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "repos", "superset"), 0o750))
	git := testutil.NewMockGit()
	uc := NewCloneRepo(testutil.NewMockRepoStore(), git, testClock(), testutil.NopLogger{}, home)

	_, err := uc.Execute(context.Background(), CloneRepoInput{
		URL: "https://github.com/apache/superset.git",
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Empty(t, git.Calls, "external clone must not run when the path is occupied")
}

func TestCloneRepoDuplicateSlug(t *testing.T) {
	home := t.TempDir()
	repos := testutil.NewMockRepoStore()
	uc := NewCloneRepo(repos, testutil.NewMockGit(), testClock(), testutil.NopLogger{}, home)

	_, err := uc.Execute(context.Background(), CloneRepoInput{URL: "https://github.com/a/proj.git"})
	require.NoError(t, err)

	// Same slug, different path on disk would collide in the store.
	_, err = uc.Execute(context.Background(), CloneRepoInput{URL: "https://github.com/b/proj.git"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCloneRepoToolFailure(t *testing.T) {
	home := t.TempDir()
	git := testutil.NewMockGit()
	git.CloneErr = &domain.ExternalToolError{Tool: "git clone", Output: "fatal: repository not found"}
	uc := NewCloneRepo(testutil.NewMockRepoStore(), git, testClock(), testutil.NopLogger{}, home)

	_, err := uc.Execute(context.Background(), CloneRepoInput{URL: "https://github.com/no/such.git"})
	assert.ErrorIs(t, err, domain.ErrExternalTool)
}
