package usecase

import (
	"context"
	"fmt"
	"os"

	"github.com/loom-sh/loom/internal/domain"
)

// DeleteRepoInput contains the parameters for deleting a repo.
type DeleteRepoInput struct {
	RepoID      string // Full ID or short prefix (required)
	DeleteFiles bool   // Also delete the main clone and worktree directories
}

// DeleteRepoOutput contains the result of deleting a repo.
type DeleteRepoOutput struct {
	// FileErrors lists per-path deletion failures; the main clone and each
	// worktree are deleted independently so one failure does not block the
	// others.
	FileErrors []string
}

// DeleteRepo is the use case for removing a repo descriptor and, optionally,
// everything on disk that belonged to it.
type DeleteRepo struct {
	repos  domain.RepoStore
	logger domain.Logger
}

// NewDeleteRepo creates a new DeleteRepo use case.
func NewDeleteRepo(repos domain.RepoStore, logger domain.Logger) *DeleteRepo {
	return &DeleteRepo{repos: repos, logger: logger}
}

// Execute deletes a repo. Sessions bound to the repo survive; their repo
// context becomes dangling, which readers tolerate.
func (uc *DeleteRepo) Execute(ctx context.Context, in DeleteRepoInput) (*DeleteRepoOutput, error) {
	repo, err := uc.repos.Get(ctx, in.RepoID)
	if err != nil {
		return nil, fmt.Errorf("get repo: %w", err)
	}

	out := &DeleteRepoOutput{}
	if in.DeleteFiles {
		for _, wt := range repo.Worktrees {
			if rmErr := os.RemoveAll(wt.Path); rmErr != nil {
				out.FileErrors = append(out.FileErrors, fmt.Sprintf("%s: %v", wt.Path, rmErr))
			}
		}
		if repo.Managed && repo.LocalPath != "" {
			if rmErr := os.RemoveAll(repo.LocalPath); rmErr != nil {
				out.FileErrors = append(out.FileErrors, fmt.Sprintf("%s: %v", repo.LocalPath, rmErr))
			}
		}
	}

	if err := uc.repos.Delete(ctx, repo.ID); err != nil {
		return nil, fmt.Errorf("delete repo: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("repo deleted",
			"repo_id", repo.ID, "slug", repo.Slug,
			"deleted_files", in.DeleteFiles, "file_errors", len(out.FileErrors))
	}
	return out, nil
}
