// Package git implements the version-control port.
//
// Clone and worktree mutation go through the git binary: worktree add and
// remove have no library equivalent, and clone through the binary picks up
// the user's credential helpers. Read-only probes (HEAD, dirty state,
// remote-tracking branches) use go-git to avoid a subprocess per query.
package git

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/loom-sh/loom/internal/domain"
)

// Client runs git operations against local repositories.
type Client struct{}

// Ensure Client implements the domain port.
var _ domain.Git = (*Client)(nil)

// NewClient creates a git client.
func NewClient() *Client {
	return &Client{}
}

// Clone clones url into destPath and returns the detected default branch.
func (c *Client) Clone(ctx context.Context, url, destPath string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "clone", url, destPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", &domain.ExternalToolError{Tool: "git clone", Output: string(out), Err: err}
	}

	repo, err := gogit.PlainOpen(destPath)
	if err != nil {
		return "", fmt.Errorf("open cloned repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("read HEAD of clone: %w", err)
	}
	if !head.Name().IsBranch() {
		// Detached HEAD (e.g. an empty or tag-pinned remote); no usable
		// default branch to record.
		return "", nil
	}
	return head.Name().Short(), nil
}

// WorktreeAdd creates a worktree at destPath checked out at ref.
// When createBranch is set, a new branch named ref is cut; the decision is
// the caller's, made via the remote-branch probe.
func (c *Client) WorktreeAdd(ctx context.Context, repoPath, destPath, ref string, createBranch bool) error {
	args := []string{"worktree", "add"}
	if createBranch {
		args = append(args, "-b", ref, destPath)
	} else {
		args = append(args, destPath, ref)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoPath
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	// A registration left behind by a deleted directory blocks the add;
	// prune and retry once.
	if strings.Contains(string(out), "already registered") {
		if pruneErr := c.prune(ctx, repoPath); pruneErr != nil {
			return pruneErr
		}
		cmd = exec.CommandContext(ctx, "git", args...)
		cmd.Dir = repoPath
		if out, err = cmd.CombinedOutput(); err == nil {
			return nil
		}
	}
	return &domain.ExternalToolError{Tool: "git worktree add", Output: string(out), Err: err}
}

// WorktreeRemove removes the worktree registration for destPath.
func (c *Client) WorktreeRemove(ctx context.Context, repoPath, destPath string) error {
	cmd := exec.CommandContext(ctx, "git", "worktree", "remove", "--force", destPath)
	cmd.Dir = repoPath
	if out, err := cmd.CombinedOutput(); err != nil {
		return &domain.ExternalToolError{Tool: "git worktree remove", Output: string(out), Err: err}
	}
	return nil
}

// WorktreeList returns git's own view of the repo's worktrees.
func (c *Client) WorktreeList(ctx context.Context, repoPath string) ([]domain.WorktreeListing, error) {
	cmd := exec.CommandContext(ctx, "git", "worktree", "list", "--porcelain")
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return nil, &domain.ExternalToolError{Tool: "git worktree list", Err: err}
	}
	return parseWorktreeList(string(out))
}

// HasRemoteBranch reports whether origin/name exists as a remote-tracking
// branch of the repo at repoPath.
func (c *Client) HasRemoteBranch(_ context.Context, repoPath, name string) (bool, error) {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return false, fmt.Errorf("open repo: %w", err)
	}
	ref := plumbing.NewRemoteReferenceName("origin", name)
	if _, err := repo.Reference(ref, true); err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return false, nil
		}
		return false, fmt.Errorf("read remote reference: %w", err)
	}
	return true, nil
}

// CurrentSHA returns the HEAD commit of the working copy at path, with the
// dirty suffix appended when uncommitted changes are present.
func (c *Client) CurrentSHA(ctx context.Context, path string) (string, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	sha := head.Hash().String()

	dirty, err := c.IsDirty(ctx, path)
	if err != nil {
		return "", err
	}
	if dirty {
		sha += domain.DirtySuffix
	}
	return sha, nil
}

// IsDirty reports whether the working copy at path has uncommitted changes.
func (c *Client) IsDirty(_ context.Context, path string) (bool, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return false, fmt.Errorf("open repo: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("read status: %w", err)
	}
	return !status.IsClean(), nil
}

func (c *Client) prune(ctx context.Context, repoPath string) error {
	cmd := exec.CommandContext(ctx, "git", "worktree", "prune")
	cmd.Dir = repoPath
	if out, err := cmd.CombinedOutput(); err != nil {
		return &domain.ExternalToolError{Tool: "git worktree prune", Output: string(out), Err: err}
	}
	return nil
}

// parseWorktreeList parses `git worktree list --porcelain` output.
// Format:
//
//	worktree /path/to/worktree
//	HEAD abc123
//	branch refs/heads/branch-name
//	<blank line>
func parseWorktreeList(output string) ([]domain.WorktreeListing, error) {
	var listings []domain.WorktreeListing
	var current domain.WorktreeListing

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "worktree "):
			current.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			current.SHA = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			ref := strings.TrimPrefix(line, "branch ")
			current.Branch = strings.TrimPrefix(ref, "refs/heads/")
		case line == "detached":
			current.Detached = true
		case line == "":
			if current.Path != "" {
				listings = append(listings, current)
			}
			current = domain.WorktreeListing{}
		}
	}
	if current.Path != "" {
		listings = append(listings, current)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse worktree list: %w", err)
	}
	return listings, nil
}
