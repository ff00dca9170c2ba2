// Package app provides the dependency injection container for the application.
package app

import (
	"fmt"
	"os"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/infra/config"
	"github.com/loom-sh/loom/internal/infra/git"
	"github.com/loom-sh/loom/internal/infra/logging"
	"github.com/loom-sh/loom/internal/infra/sqlstore"
	"github.com/loom-sh/loom/internal/usecase"
)

// Container provides dependency injection for the application. It holds all
// port implementations and provides factory methods for use cases.
type Container struct {
	Sessions domain.SessionStore
	Tasks    domain.TaskStore
	Messages domain.MessageStore
	Repos    domain.RepoStore
	Boards   domain.BoardStore

	StoreInitializer domain.StoreInitializer
	Git              domain.Git
	Clock            domain.Clock
	Logger           domain.Logger

	Config *config.Config

	store  *sqlstore.Store
	logger *logging.Logger
}

// New creates a Container from the config under homeDir (empty selects
// ~/.loom).
func New(homeDir string) (*Container, error) {
	cfg, err := config.Load(homeDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.HomeDir, 0o750); err != nil {
		return nil, fmt.Errorf("create home dir: %w", err)
	}

	clock := domain.RealClock{}
	store, err := sqlstore.Open(cfg.Storage.Path, clock)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger := logging.New(cfg.Log.Dir, logging.ParseLevel(cfg.Log.Level))

	return &Container{
		Sessions:         store.Sessions,
		Tasks:            store.Tasks,
		Messages:         store.Messages,
		Repos:            store.Repos,
		Boards:           store.Boards,
		StoreInitializer: store,
		Git:              git.NewClient(),
		Clock:            clock,
		Logger:           logger,
		Config:           cfg,
		store:            store,
		logger:           logger,
	}, nil
}

// Close releases the store and log file.
func (c *Container) Close() error {
	var lastErr error
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			lastErr = err
		}
	}
	if c.logger != nil {
		if err := c.logger.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// UseCase factory methods

// CreateSessionUseCase returns a new CreateSession use case.
func (c *Container) CreateSessionUseCase() *usecase.CreateSession {
	return usecase.NewCreateSession(c.Sessions, c.Clock, c.Logger)
}

// ForkSessionUseCase returns a new ForkSession use case.
func (c *Container) ForkSessionUseCase() *usecase.ForkSession {
	return usecase.NewForkSession(c.Sessions, c.Clock, c.Logger)
}

// SpawnSessionUseCase returns a new SpawnSession use case.
func (c *Container) SpawnSessionUseCase() *usecase.SpawnSession {
	return usecase.NewSpawnSession(c.Sessions, c.Clock, c.Logger)
}

// SessionTreeUseCase returns a new SessionTree use case.
func (c *Container) SessionTreeUseCase() *usecase.SessionTree {
	return usecase.NewSessionTree(c.Sessions, c.Logger)
}

// CloneRepoUseCase returns a new CloneRepo use case.
func (c *Container) CloneRepoUseCase() *usecase.CloneRepo {
	return usecase.NewCloneRepo(c.Repos, c.Git, c.Clock, c.Logger, c.Config.HomeDir)
}

// CreateWorktreeUseCase returns a new CreateWorktree use case.
func (c *Container) CreateWorktreeUseCase() *usecase.CreateWorktree {
	return usecase.NewCreateWorktree(c.Repos, c.Git, c.Clock, c.Logger, c.Config.HomeDir)
}

// RemoveWorktreeUseCase returns a new RemoveWorktree use case.
func (c *Container) RemoveWorktreeUseCase() *usecase.RemoveWorktree {
	return usecase.NewRemoveWorktree(c.Repos, c.Git, c.Clock, c.Logger)
}

// DeleteRepoUseCase returns a new DeleteRepo use case.
func (c *Container) DeleteRepoUseCase() *usecase.DeleteRepo {
	return usecase.NewDeleteRepo(c.Repos, c.Logger)
}

// ImportTranscriptUseCase returns a new ImportTranscript use case.
func (c *Container) ImportTranscriptUseCase() *usecase.ImportTranscript {
	return usecase.NewImportTranscript(c.Sessions, c.Tasks, c.Messages, c.Clock, c.Logger, c.Config.Import.BatchSize)
}

// CompleteTaskUseCase returns a new CompleteTask use case.
func (c *Container) CompleteTaskUseCase() *usecase.CompleteTask {
	return usecase.NewCompleteTask(c.Tasks, c.Clock, c.Logger)
}

// BoardSessionsUseCase returns a new BoardSessions use case.
func (c *Container) BoardSessionsUseCase() *usecase.BoardSessions {
	return usecase.NewBoardSessions(c.Boards, c.Sessions, c.Logger)
}
