package usecase

import (
	"context"
	"fmt"
	"os"

	"github.com/loom-sh/loom/internal/domain"
)

// RemoveWorktreeInput contains the parameters for removing a worktree.
type RemoveWorktreeInput struct {
	RepoID      string // Full ID or short prefix (required)
	Name        string // Worktree name (required)
	DeleteFiles bool   // Also delete the on-disk directory tree
	Force       bool   // Remove even when sessions still reference the worktree
}

// RemoveWorktreeOutput contains the result of removing a worktree.
type RemoveWorktreeOutput struct {
	Repo *domain.Repo

	// FileErrors lists per-path deletion failures. Best-effort: a failure
	// on one path does not abort the removal or the other paths.
	FileErrors []string
}

// RemoveWorktree is the use case for removing a worktree descriptor,
// unregistering it from the version-control tool and optionally deleting
// its files.
type RemoveWorktree struct {
	repos  domain.RepoStore
	git    domain.Git
	clock  domain.Clock
	logger domain.Logger
}

// NewRemoveWorktree creates a new RemoveWorktree use case.
func NewRemoveWorktree(repos domain.RepoStore, git domain.Git, clock domain.Clock, logger domain.Logger) *RemoveWorktree {
	return &RemoveWorktree{repos: repos, git: git, clock: clock, logger: logger}
}

// Execute removes a worktree. A worktree still referenced by sessions is
// refused without Force.
func (uc *RemoveWorktree) Execute(ctx context.Context, in RemoveWorktreeInput) (*RemoveWorktreeOutput, error) {
	repo, err := uc.repos.Get(ctx, in.RepoID)
	if err != nil {
		return nil, fmt.Errorf("get repo: %w", err)
	}
	wt := repo.FindWorktree(in.Name)
	if wt == nil {
		return nil, &domain.NotFoundError{Entity: "worktree", Ref: in.Name}
	}
	if len(wt.Sessions) > 0 && !in.Force {
		return nil, &domain.InvalidStateError{
			Reason: fmt.Sprintf("worktree %q has %d active session(s); use force to remove anyway", in.Name, len(wt.Sessions)),
		}
	}

	out := &RemoveWorktreeOutput{}
	if err := uc.git.WorktreeRemove(ctx, repo.LocalPath, wt.Path); err != nil {
		// Unregistration failure is reported but does not block descriptor
		// removal; the directory may already be gone.
		out.FileErrors = append(out.FileErrors, fmt.Sprintf("%s: %v", wt.Path, err))
		if uc.logger != nil {
			uc.logger.Warn("worktree unregister failed", "path", wt.Path, "error", err)
		}
	}

	if in.DeleteFiles {
		if rmErr := os.RemoveAll(wt.Path); rmErr != nil {
			out.FileErrors = append(out.FileErrors, fmt.Sprintf("%s: %v", wt.Path, rmErr))
			if uc.logger != nil {
				uc.logger.Warn("worktree file deletion failed", "path", wt.Path, "error", rmErr)
			}
		}
	}

	worktrees := make([]domain.Worktree, 0, len(repo.Worktrees)-1)
	for _, w := range repo.Worktrees {
		if w.Name != in.Name {
			worktrees = append(worktrees, w)
		}
	}
	updated, err := uc.repos.Patch(ctx, repo.ID, domain.Patch{"worktrees": worktrees})
	if err != nil {
		return nil, fmt.Errorf("remove worktree descriptor: %w", err)
	}
	out.Repo = updated

	if uc.logger != nil {
		uc.logger.Info("worktree removed",
			"repo_id", repo.ID, "name", in.Name, "deleted_files", in.DeleteFiles)
	}
	return out, nil
}
