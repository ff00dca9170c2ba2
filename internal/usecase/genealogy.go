package usecase

import (
	"time"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
)

// childOf builds a new session inheriting the parts of the parent that both
// fork and spawn copy: agent, repo binding, git position and concept refs.
// Task history and counts start empty.
func childOf(parent *domain.Session, now time.Time) *domain.Session {
	var repo *domain.RepoContext
	if parent.Repo != nil {
		c := *parent.Repo
		repo = &c
	}
	concepts := make([]string, len(parent.Concepts))
	copy(concepts, parent.Concepts)

	return &domain.Session{
		ID:        identity.New(),
		Status:    domain.SessionIdle,
		Agent:     parent.Agent,
		Repo:      repo,
		GitState:  parent.GitState,
		Genealogy: domain.Genealogy{Children: []string{}},
		Concepts:  concepts,
		Tasks:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
