package usecase

import (
	"context"
	"fmt"

	"github.com/loom-sh/loom/internal/domain"
)

// SpawnSessionInput contains the parameters for spawning a child session.
type SpawnSessionInput struct {
	ParentID string // Delegating session (full ID or short prefix, required)
	Prompt   string // Description of the delegated subtask (optional)
	Agent    string // Agent kind override for cross-agent delegation (optional)
	TaskID   string // Task from which the subtask was delegated (optional)
}

// SpawnSessionOutput contains the result of spawning a session.
type SpawnSessionOutput struct {
	Session *domain.Session // The new child session
}

// SpawnSession is the use case for delegating a subtask to a new child
// session, possibly run by a different agent. Copy rules match ForkSession
// except the upward link is parent rather than forked_from.
type SpawnSession struct {
	sessions domain.SessionStore
	clock    domain.Clock
	logger   domain.Logger
}

// NewSpawnSession creates a new SpawnSession use case.
func NewSpawnSession(sessions domain.SessionStore, clock domain.Clock, logger domain.Logger) *SpawnSession {
	return &SpawnSession{sessions: sessions, clock: clock, logger: logger}
}

// Execute spawns a child session.
func (uc *SpawnSession) Execute(ctx context.Context, in SpawnSessionInput) (*SpawnSessionOutput, error) {
	parent, err := uc.sessions.Get(ctx, in.ParentID)
	if err != nil {
		return nil, fmt.Errorf("get parent session: %w", err)
	}

	child := childOf(parent, uc.clock.Now())
	child.Description = in.Prompt
	child.Genealogy.Parent = parent.ID
	child.Genealogy.SpawnPointTask = in.TaskID
	if in.Agent != "" {
		child.Agent = in.Agent
	}

	if err := uc.sessions.InsertChild(ctx, child, parent.ID); err != nil {
		return nil, fmt.Errorf("insert spawned session: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("session spawned",
			"session_id", child.ID, "parent", parent.ID, "agent", child.Agent)
	}
	return &SpawnSessionOutput{Session: child}, nil
}
