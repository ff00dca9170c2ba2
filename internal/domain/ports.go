package domain

import (
	"context"
	"time"
)

// Patch is a partial update decoded from JSON. Keys absent from the patch
// leave the stored value untouched; explicit nulls clear it; arrays and
// scalars replace wholesale; nested maps merge recursively.
type Patch = map[string]any

// StoreInitializer prepares the persistent store.
type StoreInitializer interface {
	// Initialize creates the schema if it doesn't exist.
	Initialize(ctx context.Context) error
}

// SessionFilter specifies criteria for listing sessions.
type SessionFilter struct {
	Status SessionStatus // empty = all
	Agent  string        // empty = all
	Board  string        // board ID, empty = all
}

// SessionStore manages session persistence. Get accepts a full ID or a
// short prefix.
type SessionStore interface {
	Insert(ctx context.Context, s *Session) error

	// InsertChild atomically inserts the child session and appends its ID
	// to the parent's genealogy children list.
	InsertChild(ctx context.Context, child *Session, parentID string) error

	Get(ctx context.Context, idOrPrefix string) (*Session, error)
	List(ctx context.Context, filter SessionFilter) ([]*Session, error)

	// Children returns sessions whose parent or fork origin is id.
	Children(ctx context.Context, id string) ([]*Session, error)

	Patch(ctx context.Context, id string, patch Patch) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// TaskFilter specifies criteria for listing tasks.
type TaskFilter struct {
	SessionID string     // empty = all
	Status    TaskStatus // empty = all
}

// TaskStore manages task persistence.
type TaskStore interface {
	Insert(ctx context.Context, t *Task) error
	InsertBatch(ctx context.Context, ts []*Task) error
	Get(ctx context.Context, idOrPrefix string) (*Task, error)
	List(ctx context.Context, filter TaskFilter) ([]*Task, error)
	Patch(ctx context.Context, id string, patch Patch) (*Task, error)
	Delete(ctx context.Context, id string) error
}

// MessageStore manages message persistence.
type MessageStore interface {
	InsertBatch(ctx context.Context, ms []*Message) error
	Get(ctx context.Context, idOrPrefix string) (*Message, error)
	ListBySession(ctx context.Context, sessionID string) ([]*Message, error)
	ListByTask(ctx context.Context, taskID string) ([]*Message, error)
	ListByRange(ctx context.Context, sessionID string, start, end int) ([]*Message, error)

	// LinkTasks sets task_id on each linked message.
	LinkTasks(ctx context.Context, links []MessageLink) error

	Delete(ctx context.Context, id string) error
}

// RepoStore manages repository persistence.
type RepoStore interface {
	Insert(ctx context.Context, r *Repo) error
	Get(ctx context.Context, idOrPrefix string) (*Repo, error)
	GetBySlug(ctx context.Context, slug string) (*Repo, error)
	List(ctx context.Context) ([]*Repo, error)
	Patch(ctx context.Context, id string, patch Patch) (*Repo, error)
	Delete(ctx context.Context, id string) error
}

// BoardStore manages board persistence.
type BoardStore interface {
	Insert(ctx context.Context, b *Board) error
	Get(ctx context.Context, idOrPrefix string) (*Board, error)
	GetBySlug(ctx context.Context, slug string) (*Board, error)
	List(ctx context.Context) ([]*Board, error)
	Patch(ctx context.Context, id string, patch Patch) (*Board, error)
	Delete(ctx context.Context, id string) error
}

// WorktreeListing is one entry of the version-control tool's own view of
// a repo's worktrees.
type WorktreeListing struct {
	Path     string
	Branch   string
	SHA      string
	Detached bool
}

// Git is the injected version-control capability. Implementations invoke
// external, long-running processes; callers must not hold store
// transactions open across these calls.
type Git interface {
	// Clone clones url into destPath and returns the detected default branch.
	Clone(ctx context.Context, url, destPath string) (defaultBranch string, err error)

	// WorktreeAdd creates a worktree at destPath checked out at ref.
	// createBranch cuts a new branch named ref instead of checking out an
	// existing one; the caller decides the flag, the implementation honors it.
	WorktreeAdd(ctx context.Context, repoPath, destPath, ref string, createBranch bool) error

	// WorktreeRemove removes the worktree registration for destPath.
	WorktreeRemove(ctx context.Context, repoPath, destPath string) error

	// WorktreeList returns the tool's view of the repo's worktrees.
	WorktreeList(ctx context.Context, repoPath string) ([]WorktreeListing, error)

	// HasRemoteBranch reports whether remote-tracking branch origin/name exists.
	HasRemoteBranch(ctx context.Context, repoPath, name string) (bool, error)

	// CurrentSHA returns the HEAD commit of the working copy at path,
	// suffixed with "-dirty" when uncommitted changes are present.
	CurrentSHA(ctx context.Context, path string) (string, error)

	// IsDirty reports whether the working copy at path has uncommitted changes.
	IsDirty(ctx context.Context, path string) (bool, error)
}

// Logger is the minimal logging surface operations use.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
