package usecase

import (
	"context"
	"fmt"
	"os"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
)

// CloneRepoInput contains the parameters for cloning a repository.
type CloneRepoInput struct {
	URL  string // Remote URL (required)
	Slug string // Directory slug (optional, derived from URL when empty)
}

// CloneRepoOutput contains the result of cloning a repository.
type CloneRepoOutput struct {
	Repo *domain.Repo
}

// CloneRepo is the use case for cloning a remote repository into the
// managed repos directory and recording its descriptor.
type CloneRepo struct {
	repos   domain.RepoStore
	git     domain.Git
	clock   domain.Clock
	logger  domain.Logger
	homeDir string
}

// NewCloneRepo creates a new CloneRepo use case.
func NewCloneRepo(repos domain.RepoStore, git domain.Git, clock domain.Clock, logger domain.Logger, homeDir string) *CloneRepo {
	return &CloneRepo{repos: repos, git: git, clock: clock, logger: logger, homeDir: homeDir}
}

// Execute clones a repository. The target path is checked before the
// external clone runs so an occupied path fails with ErrAlreadyExists
// instead of a generic tool error.
func (uc *CloneRepo) Execute(ctx context.Context, in CloneRepoInput) (*CloneRepoOutput, error) {
	if in.URL == "" {
		return nil, &domain.InvalidStateError{Reason: "clone requires a remote URL"}
	}

	name, err := domain.RepoNameFromURL(in.URL)
	if err != nil {
		return nil, err
	}
	slug := in.Slug
	if slug == "" {
		slug = domain.Slugify(name)
	}
	if !domain.ValidSlug(slug) {
		return nil, &domain.InvalidStateError{Reason: fmt.Sprintf("invalid repo slug %q", slug)}
	}

	destPath := domain.RepoPath(uc.homeDir, slug)
	if _, statErr := os.Stat(destPath); statErr == nil {
		return nil, &domain.AlreadyExistsError{Entity: "repo path", Key: destPath}
	}
	if existing, getErr := uc.repos.GetBySlug(ctx, slug); getErr == nil && existing != nil {
		return nil, &domain.AlreadyExistsError{Entity: "repo", Key: slug}
	}

	if err := os.MkdirAll(domain.ReposDir(uc.homeDir), 0o750); err != nil {
		return nil, fmt.Errorf("create repos directory: %w", err)
	}

	defaultBranch, err := uc.git.Clone(ctx, in.URL, destPath)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	repo := &domain.Repo{
		ID:            identity.New(),
		Slug:          slug,
		Name:          name,
		RemoteURL:     in.URL,
		LocalPath:     destPath,
		Managed:       true,
		DefaultBranch: defaultBranch,
		Worktrees:     []domain.Worktree{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repos.Insert(ctx, repo); err != nil {
		return nil, fmt.Errorf("insert repo: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("repo cloned",
			"repo_id", repo.ID, "slug", slug, "default_branch", defaultBranch)
	}
	return &CloneRepoOutput{Repo: repo}, nil
}
