package usecase

import (
	"context"
	"fmt"

	"github.com/loom-sh/loom/internal/domain"
)

// SessionTreeInput identifies the session whose lineage is walked.
type SessionTreeInput struct {
	SessionID string // Full ID or short prefix (required)
}

// AncestorsOutput contains a session's upward lineage, closest-first.
type AncestorsOutput struct {
	Ancestors []*domain.Session
}

// DescendantsOutput contains a session's transitive children, breadth-first.
type DescendantsOutput struct {
	Descendants []*domain.Session
}

// SessionTree is the use case for walking session genealogy in either
// direction.
type SessionTree struct {
	sessions domain.SessionStore
	logger   domain.Logger
}

// NewSessionTree creates a new SessionTree use case.
func NewSessionTree(sessions domain.SessionStore, logger domain.Logger) *SessionTree {
	return &SessionTree{sessions: sessions, logger: logger}
}

// Ancestors walks the upward link (spawn parent before fork origin) until a
// root is reached, returning closest-first. A visited set guards against
// cycles; a cycle is reported as a warning and ends the walk rather than
// looping. Deletion does not cascade, so an upward link may point at a
// deleted session; that ends the chain the same way a root does.
func (uc *SessionTree) Ancestors(ctx context.Context, in SessionTreeInput) (*AncestorsOutput, error) {
	s, err := uc.sessions.Get(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	visited := map[string]bool{s.ID: true}
	var out []*domain.Session
	for {
		parentID := s.Genealogy.ParentID()
		if parentID == "" {
			break
		}
		if visited[parentID] {
			if uc.logger != nil {
				uc.logger.Warn("genealogy cycle detected", "session_id", s.ID, "parent", parentID)
			}
			break
		}
		visited[parentID] = true

		parent, err := uc.sessions.Get(ctx, parentID)
		if err != nil {
			if isNotFound(err) {
				break
			}
			return nil, fmt.Errorf("get ancestor %s: %w", parentID, err)
		}
		out = append(out, parent)
		s = parent
	}
	return &AncestorsOutput{Ancestors: out}, nil
}

// Descendants walks the children lists breadth-first. Children entries
// pointing at deleted sessions are skipped; deletion does not cascade, so
// a surviving subtree simply re-roots.
func (uc *SessionTree) Descendants(ctx context.Context, in SessionTreeInput) (*DescendantsOutput, error) {
	s, err := uc.sessions.Get(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	visited := map[string]bool{s.ID: true}
	queue := append([]string(nil), s.Genealogy.Children...)
	var out []*domain.Session
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		child, err := uc.sessions.Get(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("get descendant %s: %w", id, err)
		}
		out = append(out, child)
		queue = append(queue, child.Genealogy.Children...)
	}
	return &DescendantsOutput{Descendants: out}, nil
}
