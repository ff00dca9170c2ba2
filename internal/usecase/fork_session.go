package usecase

import (
	"context"
	"fmt"

	"github.com/loom-sh/loom/internal/domain"
)

// ForkSessionInput contains the parameters for forking a session.
type ForkSessionInput struct {
	ParentID string // Session to fork from (full ID or short prefix, required)
	Prompt   string // Description of the alternative being explored (optional)
	TaskID   string // Task at which the fork branches off (optional)
}

// ForkSessionOutput contains the result of forking a session.
type ForkSessionOutput struct {
	Session *domain.Session // The new sibling session
}

// ForkSession is the use case for creating a sibling session that explores
// an alternative from a point in the parent's history. The child copies the
// parent's agent, repo binding, git position and concept refs, starts with
// an empty task list, and records forked_from; the parent's children list
// gains the child in the same transaction.
type ForkSession struct {
	sessions domain.SessionStore
	clock    domain.Clock
	logger   domain.Logger
}

// NewForkSession creates a new ForkSession use case.
func NewForkSession(sessions domain.SessionStore, clock domain.Clock, logger domain.Logger) *ForkSession {
	return &ForkSession{sessions: sessions, clock: clock, logger: logger}
}

// Execute forks a session.
func (uc *ForkSession) Execute(ctx context.Context, in ForkSessionInput) (*ForkSessionOutput, error) {
	parent, err := uc.sessions.Get(ctx, in.ParentID)
	if err != nil {
		return nil, fmt.Errorf("get parent session: %w", err)
	}

	child := childOf(parent, uc.clock.Now())
	child.Description = in.Prompt
	child.Genealogy.ForkedFrom = parent.ID
	child.Genealogy.ForkPointTask = in.TaskID

	if err := uc.sessions.InsertChild(ctx, child, parent.ID); err != nil {
		return nil, fmt.Errorf("insert forked session: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("session forked",
			"session_id", child.ID, "forked_from", parent.ID, "fork_point", in.TaskID)
	}
	return &ForkSessionOutput{Session: child}, nil
}
