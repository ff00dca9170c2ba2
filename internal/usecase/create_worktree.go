package usecase

import (
	"context"
	"fmt"

	"github.com/loom-sh/loom/internal/domain"
)

// CreateWorktreeInput contains the parameters for creating a worktree.
type CreateWorktreeInput struct {
	RepoID       string // Full ID or short prefix (required)
	Name         string // Worktree name, unique within the repo (required)
	Ref          string // Branch or ref to check out (optional, default repo default branch)
	CreateBranch bool   // Cut a new branch named Ref instead of checking out an existing one
}

// CreateWorktreeOutput contains the result of creating a worktree.
type CreateWorktreeOutput struct {
	Repo     *domain.Repo
	Worktree domain.Worktree
}

// CreateWorktree is the use case for adding a branch-isolated working copy
// to a managed repo. The caller decides CreateBranch (typically from a
// remote-branch probe); this use case honors the flag rather than
// re-deciding.
type CreateWorktree struct {
	repos   domain.RepoStore
	git     domain.Git
	clock   domain.Clock
	logger  domain.Logger
	homeDir string
}

// NewCreateWorktree creates a new CreateWorktree use case.
func NewCreateWorktree(repos domain.RepoStore, git domain.Git, clock domain.Clock, logger domain.Logger, homeDir string) *CreateWorktree {
	return &CreateWorktree{repos: repos, git: git, clock: clock, logger: logger, homeDir: homeDir}
}

// Execute creates a worktree. The numeric ID is allocated as the lowest
// positive integer unused by the repo's live worktrees, so IDs freed by
// deletion are reused. The descriptor is recorded only after the external
// worktree-add succeeds; a crash in between leaves an unrecorded directory,
// which a later create of the same name surfaces as a tool error.
func (uc *CreateWorktree) Execute(ctx context.Context, in CreateWorktreeInput) (*CreateWorktreeOutput, error) {
	if !domain.ValidSlug(in.Name) {
		return nil, &domain.InvalidStateError{Reason: fmt.Sprintf("invalid worktree name %q", in.Name)}
	}

	repo, err := uc.repos.Get(ctx, in.RepoID)
	if err != nil {
		return nil, fmt.Errorf("get repo: %w", err)
	}
	if repo.FindWorktree(in.Name) != nil {
		return nil, &domain.AlreadyExistsError{Entity: "worktree", Key: in.Name}
	}

	ref := in.Ref
	if ref == "" {
		ref = repo.DefaultBranch
	}
	if ref == "" {
		return nil, &domain.InvalidStateError{Reason: "no ref given and repo has no recorded default branch"}
	}

	destPath := domain.WorktreePath(uc.homeDir, repo.Slug, in.Name)
	numericID := repo.NextWorktreeID()

	if err := uc.git.WorktreeAdd(ctx, repo.LocalPath, destPath, ref, in.CreateBranch); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	wt := domain.Worktree{
		Name:      in.Name,
		Path:      destPath,
		Ref:       ref,
		NewBranch: in.CreateBranch,
		NumericID: numericID,
		Sessions:  []string{},
		CreatedAt: now,
		LastUsed:  now,
	}
	if sha, shaErr := uc.git.CurrentSHA(ctx, destPath); shaErr == nil {
		wt.LastCommitSHA = sha
	}

	worktrees := append(append([]domain.Worktree{}, repo.Worktrees...), wt)
	updated, err := uc.repos.Patch(ctx, repo.ID, domain.Patch{"worktrees": worktrees})
	if err != nil {
		return nil, fmt.Errorf("record worktree: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("worktree created",
			"repo_id", repo.ID, "name", in.Name, "ref", ref,
			"numeric_id", numericID, "new_branch", in.CreateBranch)
	}
	return &CreateWorktreeOutput{Repo: updated, Worktree: wt}, nil
}
