// Package domain contains core business entities and interfaces.
package domain

import (
	"strings"
	"time"
)

// SessionStatus represents the lifecycle state of a session.
type SessionStatus string

// Session statuses.
const (
	SessionIdle      SessionStatus = "idle"
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// ValidSessionStatus reports whether s is a known session status.
func ValidSessionStatus(s SessionStatus) bool {
	switch s {
	case SessionIdle, SessionRunning, SessionCompleted, SessionFailed:
		return true
	}
	return false
}

// Session is the core primitive: one agent conversation bound to a working
// directory. Sessions form a forest via the genealogy back-references.
type Session struct {
	ID           string         `json:"session_id"`
	Status       SessionStatus  `json:"status"`
	Agent        string         `json:"agent"`
	AgentVersion string         `json:"agent_version,omitempty"`
	Description  string         `json:"description,omitempty"`
	Repo         *RepoContext   `json:"repo,omitempty"`
	GitState     GitState       `json:"git_state"`
	Genealogy    Genealogy      `json:"genealogy"`
	Concepts     []string       `json:"concepts"`
	Tasks        []string       `json:"tasks"`
	MessageCount int            `json:"message_count"`
	ToolUseCount int            `json:"tool_use_count"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"last_updated"`
}

// GitState records the git position a session operates at.
// CurrentSHA may carry the "-dirty" suffix; use CleanSHA before treating it
// as a commit hash.
type GitState struct {
	Ref        string `json:"ref"`
	BaseSHA    string `json:"base_sha"`
	CurrentSHA string `json:"current_sha"`
}

// RepoContext links a session to its working directory, either a managed
// worktree or a user-supplied path.
type RepoContext struct {
	RepoID          string `json:"repo_id,omitempty"`
	RepoSlug        string `json:"repo_slug,omitempty"`
	WorktreeName    string `json:"worktree_name,omitempty"`
	Cwd             string `json:"cwd"`
	ManagedWorktree bool   `json:"managed_worktree"`
}

// Genealogy holds the fork/spawn back-references. A session carries at most
// one of ForkedFrom / Parent; Children is the authoritative inverse of both
// relations and is updated in the same transaction as child creation.
type Genealogy struct {
	ForkedFrom     string   `json:"forked_from_session_id,omitempty"`
	ForkPointTask  string   `json:"fork_point_task_id,omitempty"`
	Parent         string   `json:"parent_session_id,omitempty"`
	SpawnPointTask string   `json:"spawn_point_task_id,omitempty"`
	Children       []string `json:"children"`
}

// ParentID returns the upward link, with spawn parent taking precedence
// over fork origin for legacy rows that carry both.
func (g Genealogy) ParentID() string {
	if g.Parent != "" {
		return g.Parent
	}
	return g.ForkedFrom
}

// HasDualParentage reports whether both upward links are set, which the
// write boundary rejects.
func (g Genealogy) HasDualParentage() bool {
	return g.Parent != "" && g.ForkedFrom != ""
}

// IsRoot returns true if the session has no upward genealogy link.
func (s *Session) IsRoot() bool {
	return s.Genealogy.ParentID() == ""
}

// DirtySuffix marks a recorded SHA as having uncommitted changes on top.
const DirtySuffix = "-dirty"

// CleanSHA strips the dirty marker from a recorded SHA.
func CleanSHA(sha string) string {
	return strings.TrimSuffix(sha, DirtySuffix)
}

// IsDirtySHA reports whether a recorded SHA carries the dirty marker.
func IsDirtySHA(sha string) bool {
	return strings.HasSuffix(sha, DirtySuffix)
}
