// Package usecase contains application use cases.
package usecase

import (
	"context"
	"fmt"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
)

// DefaultAgent is assigned to sessions created without an explicit agent.
const DefaultAgent = "claude-code"

// CreateSessionInput contains the parameters for creating a root session.
type CreateSessionInput struct {
	Agent       string              // Agent kind (optional, default claude-code)
	Description string              // Session description (optional)
	Repo        *domain.RepoContext // Working directory binding (optional)
	GitState    domain.GitState     // Initial git position (optional)
	Concepts    []string            // Concept refs to seed (optional)
}

// CreateSessionOutput contains the result of creating a session.
type CreateSessionOutput struct {
	Session *domain.Session
}

// CreateSession is the use case for creating a new root session.
type CreateSession struct {
	sessions domain.SessionStore
	clock    domain.Clock
	logger   domain.Logger
}

// NewCreateSession creates a new CreateSession use case.
func NewCreateSession(sessions domain.SessionStore, clock domain.Clock, logger domain.Logger) *CreateSession {
	return &CreateSession{sessions: sessions, clock: clock, logger: logger}
}

// Execute creates a session with defaulted fields: status idle, agent
// claude-code unless overridden, empty genealogy and task list, zeroed
// counts.
func (uc *CreateSession) Execute(ctx context.Context, in CreateSessionInput) (*CreateSessionOutput, error) {
	now := uc.clock.Now()
	s := &domain.Session{
		ID:          identity.New(),
		Status:      domain.SessionIdle,
		Agent:       in.Agent,
		Description: in.Description,
		Repo:        in.Repo,
		GitState:    in.GitState,
		Genealogy:   domain.Genealogy{Children: []string{}},
		Concepts:    in.Concepts,
		Tasks:       []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if s.Agent == "" {
		s.Agent = DefaultAgent
	}
	if s.Concepts == nil {
		s.Concepts = []string{}
	}

	if err := uc.sessions.Insert(ctx, s); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("session created", "session_id", s.ID, "agent", s.Agent)
	}
	return &CreateSessionOutput{Session: s}, nil
}
