package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-sh/loom/internal/domain"
)

// initRepo creates a git repo with one commit and returns its path.
func initRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	run(t, dir, "git", "init", "-b", "main")
	run(t, dir, "git", "config", "user.email", "test@example.com")
	run(t, dir, "git", "config", "user.name", "test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644))
	run(t, dir, "git", "add", ".")
	run(t, dir, "git", "commit", "-m", "initial")
	return dir
}

func run(t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "%s %v: %s", name, args, out)
}

func TestClone_DetectsDefaultBranch(t *testing.T) {
	src := initRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")

	branch, err := NewClient().Clone(context.Background(), src, dest)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
	assert.DirExists(t, filepath.Join(dest, ".git"))
}

func TestClone_BadURL(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "clone")

	_, err := NewClient().Clone(context.Background(), filepath.Join(t.TempDir(), "no-such-repo"), dest)
	assert.ErrorIs(t, err, domain.ErrExternalTool)
}

func TestWorktreeAddListRemove(t *testing.T) {
	repo := initRepo(t)
	c := NewClient()
	ctx := context.Background()

	wtPath := filepath.Join(t.TempDir(), "feat-x")
	require.NoError(t, c.WorktreeAdd(ctx, repo, wtPath, "feat-x", true))

	listings, err := c.WorktreeList(ctx, repo)
	require.NoError(t, err)
	require.Len(t, listings, 2) // main checkout + the new worktree

	var found bool
	for _, l := range listings {
		if l.Branch == "feat-x" {
			found = true
		}
	}
	assert.True(t, found, "new worktree should appear in the listing")

	require.NoError(t, c.WorktreeRemove(ctx, repo, wtPath))
	listings, err = c.WorktreeList(ctx, repo)
	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestWorktreeAdd_ExistingRef(t *testing.T) {
	repo := initRepo(t)
	c := NewClient()
	ctx := context.Background()

	run(t, repo, "git", "branch", "existing")

	wtPath := filepath.Join(t.TempDir(), "existing")
	require.NoError(t, c.WorktreeAdd(ctx, repo, wtPath, "existing", false))
	assert.DirExists(t, wtPath)
}

func TestCurrentSHA_DirtySuffix(t *testing.T) {
	repo := initRepo(t)
	c := NewClient()
	ctx := context.Background()

	sha, err := c.CurrentSHA(ctx, repo)
	require.NoError(t, err)
	assert.Len(t, sha, 40)
	assert.False(t, domain.IsDirtySHA(sha))

	require.NoError(t, os.WriteFile(filepath.Join(repo, "README.md"), []byte("changed\n"), 0o644))

	dirty, err := c.IsDirty(ctx, repo)
	require.NoError(t, err)
	assert.True(t, dirty)

	sha, err = c.CurrentSHA(ctx, repo)
	require.NoError(t, err)
	assert.True(t, domain.IsDirtySHA(sha))
	assert.Len(t, domain.CleanSHA(sha), 40)
}

func TestHasRemoteBranch(t *testing.T) {
	src := initRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")
	c := NewClient()
	ctx := context.Background()

	_, err := c.Clone(ctx, src, dest)
	require.NoError(t, err)

	has, err := c.HasRemoteBranch(ctx, dest, "main")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = c.HasRemoteBranch(ctx, dest, "no-such-branch")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestParseWorktreeList(t *testing.T) {
	out := "worktree /repo\nHEAD abc123\nbranch refs/heads/main\n\n" +
		"worktree /wt/feat\nHEAD def456\nbranch refs/heads/feat\n\n" +
		"worktree /wt/pin\nHEAD 789abc\ndetached\n"

	listings, err := parseWorktreeList(out)
	require.NoError(t, err)
	require.Len(t, listings, 3)
	assert.Equal(t, "main", listings[0].Branch)
	assert.Equal(t, "/wt/feat", listings[1].Path)
	assert.True(t, listings[2].Detached)
	assert.Empty(t, listings[2].Branch)
}
