// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// NopLogger discards all log output.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// resolve finds the single ID in ids matching the full ID or short prefix.
func resolve(entity, ref string, ids []string) (string, error) {
	sort.Strings(ids)
	return identity.Resolve(entity, ref, ids)
}

// MockSessionStore is a map-backed test double for domain.SessionStore.
type MockSessionStore struct {
	Sessions  map[string]*domain.Session
	InsertErr error
	PatchErr  error
	DeleteErr error
}

// NewMockSessionStore creates a MockSessionStore with an initialized map.
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{Sessions: make(map[string]*domain.Session)}
}

func (m *MockSessionStore) ids() []string {
	ids := make([]string, 0, len(m.Sessions))
	for id := range m.Sessions {
		ids = append(ids, id)
	}
	return ids
}

// Insert stores a session, rejecting dual parentage like the real store.
func (m *MockSessionStore) Insert(_ context.Context, s *domain.Session) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	if s.Genealogy.HasDualParentage() {
		return &domain.InvalidStateError{Reason: "session cannot carry both parent and fork origin"}
	}
	m.Sessions[s.ID] = s
	return nil
}

// InsertChild stores the child and appends it to the parent's children list.
func (m *MockSessionStore) InsertChild(ctx context.Context, child *domain.Session, parentID string) error {
	id, err := resolve("session", parentID, m.ids())
	if err != nil {
		return err
	}
	parent, ok := m.Sessions[id]
	if !ok {
		return &domain.NotFoundError{Entity: "session", Ref: parentID}
	}
	if err := m.Insert(ctx, child); err != nil {
		return err
	}
	parent.Genealogy.Children = append(parent.Genealogy.Children, child.ID)
	return nil
}

// Get retrieves a session by full ID or short prefix.
func (m *MockSessionStore) Get(_ context.Context, idOrPrefix string) (*domain.Session, error) {
	id, err := resolve("session", idOrPrefix, m.ids())
	if err != nil {
		return nil, err
	}
	s, ok := m.Sessions[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "session", Ref: idOrPrefix}
	}
	return s, nil
}

// List returns sessions matching the filter, ordered by ID.
func (m *MockSessionStore) List(_ context.Context, filter domain.SessionFilter) ([]*domain.Session, error) {
	ids := m.ids()
	sort.Strings(ids)
	var out []*domain.Session
	for _, id := range ids {
		s := m.Sessions[id]
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.Agent != "" && s.Agent != filter.Agent {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Children returns sessions whose upward link is id.
func (m *MockSessionStore) Children(_ context.Context, id string) ([]*domain.Session, error) {
	ids := m.ids()
	sort.Strings(ids)
	var out []*domain.Session
	for _, sid := range ids {
		s := m.Sessions[sid]
		if s.Genealogy.Parent == id || s.Genealogy.ForkedFrom == id {
			out = append(out, s)
		}
	}
	return out, nil
}

// Patch applies a shallow field update; nested merge semantics are covered
// by the store tests, not the mock.
func (m *MockSessionStore) Patch(_ context.Context, id string, patch domain.Patch) (*domain.Session, error) {
	if m.PatchErr != nil {
		return nil, m.PatchErr
	}
	full, err := resolve("session", id, m.ids())
	if err != nil {
		return nil, err
	}
	s, ok := m.Sessions[full]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "session", Ref: id}
	}
	if v, ok := patch["status"].(string); ok {
		s.Status = domain.SessionStatus(v)
	}
	if v, ok := patch["description"].(string); ok {
		s.Description = v
	}
	if v, ok := patch["tasks"].([]string); ok {
		s.Tasks = v
	}
	if v, ok := patch["message_count"].(int); ok {
		s.MessageCount = v
	}
	if v, ok := patch["tool_use_count"].(int); ok {
		s.ToolUseCount = v
	}
	return s, nil
}

// Delete removes a session without touching surviving children.
func (m *MockSessionStore) Delete(_ context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	full, err := resolve("session", id, m.ids())
	if err != nil {
		return err
	}
	if _, ok := m.Sessions[full]; !ok {
		return &domain.NotFoundError{Entity: "session", Ref: id}
	}
	delete(m.Sessions, full)
	return nil
}

// MockTaskStore is a map-backed test double for domain.TaskStore.
type MockTaskStore struct {
	Tasks     map[string]*domain.Task
	InsertErr error
	BatchErr  error
}

// NewMockTaskStore creates a MockTaskStore with an initialized map.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{Tasks: make(map[string]*domain.Task)}
}

func (m *MockTaskStore) ids() []string {
	ids := make([]string, 0, len(m.Tasks))
	for id := range m.Tasks {
		ids = append(ids, id)
	}
	return ids
}

// Insert stores a task.
func (m *MockTaskStore) Insert(_ context.Context, t *domain.Task) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.Tasks[t.ID] = t
	return nil
}

// InsertBatch stores all tasks or none.
func (m *MockTaskStore) InsertBatch(ctx context.Context, ts []*domain.Task) error {
	if m.BatchErr != nil {
		return m.BatchErr
	}
	for _, t := range ts {
		if err := m.Insert(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a task by full ID or short prefix.
func (m *MockTaskStore) Get(_ context.Context, idOrPrefix string) (*domain.Task, error) {
	id, err := resolve("task", idOrPrefix, m.ids())
	if err != nil {
		return nil, err
	}
	t, ok := m.Tasks[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "task", Ref: idOrPrefix}
	}
	return t, nil
}

// List returns tasks matching the filter, ordered by start index.
func (m *MockTaskStore) List(_ context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range m.Tasks {
		if filter.SessionID != "" && t.SessionID != filter.SessionID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].MessageRange.StartIndex < out[j].MessageRange.StartIndex
	})
	return out, nil
}

// Patch applies a shallow field update.
func (m *MockTaskStore) Patch(_ context.Context, id string, patch domain.Patch) (*domain.Task, error) {
	full, err := resolve("task", id, m.ids())
	if err != nil {
		return nil, err
	}
	t, ok := m.Tasks[full]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "task", Ref: id}
	}
	if v, ok := patch["status"].(string); ok {
		t.Status = domain.TaskStatus(v)
	}
	if v, ok := patch["completed_at"].(time.Time); ok {
		t.CompletedAt = &v
	}
	if v, ok := patch["report"].(*domain.Report); ok {
		t.Report = v
	}
	return t, nil
}

// Delete removes a task.
func (m *MockTaskStore) Delete(_ context.Context, id string) error {
	full, err := resolve("task", id, m.ids())
	if err != nil {
		return err
	}
	if _, ok := m.Tasks[full]; !ok {
		return &domain.NotFoundError{Entity: "task", Ref: id}
	}
	delete(m.Tasks, full)
	return nil
}

// MockMessageStore is a map-backed test double for domain.MessageStore.
type MockMessageStore struct {
	Messages map[string]*domain.Message
	BatchErr error

	// FailBatchAfter fails InsertBatch once the total inserted message count
	// would exceed the threshold. Zero disables the trip.
	FailBatchAfter int
	inserted       int
}

// NewMockMessageStore creates a MockMessageStore with an initialized map.
func NewMockMessageStore() *MockMessageStore {
	return &MockMessageStore{Messages: make(map[string]*domain.Message)}
}

func (m *MockMessageStore) ids() []string {
	ids := make([]string, 0, len(m.Messages))
	for id := range m.Messages {
		ids = append(ids, id)
	}
	return ids
}

// InsertBatch stores all messages or none.
func (m *MockMessageStore) InsertBatch(_ context.Context, ms []*domain.Message) error {
	if m.BatchErr != nil {
		return m.BatchErr
	}
	if m.FailBatchAfter > 0 && m.inserted+len(ms) > m.FailBatchAfter {
		return &domain.ExternalToolError{Tool: "sqlite", Err: context.DeadlineExceeded}
	}
	for _, msg := range ms {
		m.Messages[msg.ID] = msg
	}
	m.inserted += len(ms)
	return nil
}

// Get retrieves a message by full ID or short prefix.
func (m *MockMessageStore) Get(_ context.Context, idOrPrefix string) (*domain.Message, error) {
	id, err := resolve("message", idOrPrefix, m.ids())
	if err != nil {
		return nil, err
	}
	msg, ok := m.Messages[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "message", Ref: idOrPrefix}
	}
	return msg, nil
}

// ListBySession returns a session's messages ordered by index.
func (m *MockMessageStore) ListBySession(_ context.Context, sessionID string) ([]*domain.Message, error) {
	var out []*domain.Message
	for _, msg := range m.Messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// ListByTask returns a task's messages ordered by index.
func (m *MockMessageStore) ListByTask(_ context.Context, taskID string) ([]*domain.Message, error) {
	var out []*domain.Message
	for _, msg := range m.Messages {
		if msg.TaskID == taskID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// ListByRange returns a session's messages with index in [start, end].
func (m *MockMessageStore) ListByRange(ctx context.Context, sessionID string, start, end int) ([]*domain.Message, error) {
	all, err := m.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var out []*domain.Message
	for _, msg := range all {
		if msg.Index >= start && msg.Index <= end {
			out = append(out, msg)
		}
	}
	return out, nil
}

// LinkTasks sets task_id on each linked message.
func (m *MockMessageStore) LinkTasks(_ context.Context, links []domain.MessageLink) error {
	for _, l := range links {
		msg, ok := m.Messages[l.MessageID]
		if !ok {
			return &domain.NotFoundError{Entity: "message", Ref: l.MessageID}
		}
		msg.TaskID = l.TaskID
	}
	return nil
}

// Delete removes a message.
func (m *MockMessageStore) Delete(_ context.Context, id string) error {
	full, err := resolve("message", id, m.ids())
	if err != nil {
		return err
	}
	if _, ok := m.Messages[full]; !ok {
		return &domain.NotFoundError{Entity: "message", Ref: id}
	}
	delete(m.Messages, full)
	return nil
}

// MockRepoStore is a map-backed test double for domain.RepoStore.
type MockRepoStore struct {
	Repos     map[string]*domain.Repo
	InsertErr error
	PatchErr  error
}

// NewMockRepoStore creates a MockRepoStore with an initialized map.
func NewMockRepoStore() *MockRepoStore {
	return &MockRepoStore{Repos: make(map[string]*domain.Repo)}
}

func (m *MockRepoStore) ids() []string {
	ids := make([]string, 0, len(m.Repos))
	for id := range m.Repos {
		ids = append(ids, id)
	}
	return ids
}

// Insert stores a repo, rejecting a duplicate slug like the real store.
func (m *MockRepoStore) Insert(_ context.Context, r *domain.Repo) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	for _, existing := range m.Repos {
		if existing.Slug == r.Slug {
			return &domain.AlreadyExistsError{Entity: "repo", Key: r.Slug}
		}
	}
	m.Repos[r.ID] = r
	return nil
}

// Get retrieves a repo by full ID or short prefix.
func (m *MockRepoStore) Get(_ context.Context, idOrPrefix string) (*domain.Repo, error) {
	id, err := resolve("repo", idOrPrefix, m.ids())
	if err != nil {
		return nil, err
	}
	r, ok := m.Repos[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "repo", Ref: idOrPrefix}
	}
	return r, nil
}

// GetBySlug retrieves a repo by its slug.
func (m *MockRepoStore) GetBySlug(_ context.Context, slug string) (*domain.Repo, error) {
	for _, r := range m.Repos {
		if r.Slug == slug {
			return r, nil
		}
	}
	return nil, &domain.NotFoundError{Entity: "repo", Ref: slug}
}

// List returns all repos ordered by slug.
func (m *MockRepoStore) List(_ context.Context) ([]*domain.Repo, error) {
	out := make([]*domain.Repo, 0, len(m.Repos))
	for _, r := range m.Repos {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// Patch applies worktree list and branch updates.
func (m *MockRepoStore) Patch(_ context.Context, id string, patch domain.Patch) (*domain.Repo, error) {
	if m.PatchErr != nil {
		return nil, m.PatchErr
	}
	full, err := resolve("repo", id, m.ids())
	if err != nil {
		return nil, err
	}
	r, ok := m.Repos[full]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "repo", Ref: id}
	}
	if v, ok := patch["worktrees"].([]domain.Worktree); ok {
		r.Worktrees = v
	}
	if v, ok := patch["default_branch"].(string); ok {
		r.DefaultBranch = v
	}
	return r, nil
}

// Delete removes a repo.
func (m *MockRepoStore) Delete(_ context.Context, id string) error {
	full, err := resolve("repo", id, m.ids())
	if err != nil {
		return err
	}
	if _, ok := m.Repos[full]; !ok {
		return &domain.NotFoundError{Entity: "repo", Ref: id}
	}
	delete(m.Repos, full)
	return nil
}

// MockBoardStore is a map-backed test double for domain.BoardStore.
type MockBoardStore struct {
	Boards map[string]*domain.Board
}

// NewMockBoardStore creates a MockBoardStore with an initialized map.
func NewMockBoardStore() *MockBoardStore {
	return &MockBoardStore{Boards: make(map[string]*domain.Board)}
}

func (m *MockBoardStore) ids() []string {
	ids := make([]string, 0, len(m.Boards))
	for id := range m.Boards {
		ids = append(ids, id)
	}
	return ids
}

// Insert stores a board.
func (m *MockBoardStore) Insert(_ context.Context, b *domain.Board) error {
	m.Boards[b.ID] = b
	return nil
}

// Get retrieves a board by full ID or short prefix.
func (m *MockBoardStore) Get(_ context.Context, idOrPrefix string) (*domain.Board, error) {
	id, err := resolve("board", idOrPrefix, m.ids())
	if err != nil {
		return nil, err
	}
	b, ok := m.Boards[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "board", Ref: idOrPrefix}
	}
	return b, nil
}

// GetBySlug retrieves a board by its slug.
func (m *MockBoardStore) GetBySlug(_ context.Context, slug string) (*domain.Board, error) {
	for _, b := range m.Boards {
		if b.Slug == slug {
			return b, nil
		}
	}
	return nil, &domain.NotFoundError{Entity: "board", Ref: slug}
}

// List returns all boards ordered by slug.
func (m *MockBoardStore) List(_ context.Context) ([]*domain.Board, error) {
	out := make([]*domain.Board, 0, len(m.Boards))
	for _, b := range m.Boards {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// Patch applies a sessions list update.
func (m *MockBoardStore) Patch(_ context.Context, id string, patch domain.Patch) (*domain.Board, error) {
	full, err := resolve("board", id, m.ids())
	if err != nil {
		return nil, err
	}
	b, ok := m.Boards[full]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "board", Ref: id}
	}
	if v, ok := patch["sessions"].([]string); ok {
		b.Sessions = v
	}
	return b, nil
}

// Delete removes a board.
func (m *MockBoardStore) Delete(_ context.Context, id string) error {
	full, err := resolve("board", id, m.ids())
	if err != nil {
		return err
	}
	if _, ok := m.Boards[full]; !ok {
		return &domain.NotFoundError{Entity: "board", Ref: id}
	}
	delete(m.Boards, full)
	return nil
}

// GitCall records one invocation of a MockGit method.
type GitCall struct {
	Op   string // "clone", "worktree-add", "worktree-remove"
	Args []string
}

// MockGit is a test double for domain.Git.
type MockGit struct {
	Calls []GitCall

	DefaultBranch  string
	CloneErr       error
	AddErr         error
	RemoveErr      error
	Listing        []domain.WorktreeListing
	RemoteBranches map[string]bool
	SHA            string
	Dirty          bool
}

// NewMockGit creates a MockGit with sensible defaults.
func NewMockGit() *MockGit {
	return &MockGit{
		DefaultBranch:  "main",
		RemoteBranches: make(map[string]bool),
		SHA:            "abc123def456",
	}
}

// Clone records the call and returns the configured default branch.
func (m *MockGit) Clone(_ context.Context, url, destPath string) (string, error) {
	m.Calls = append(m.Calls, GitCall{Op: "clone", Args: []string{url, destPath}})
	if m.CloneErr != nil {
		return "", m.CloneErr
	}
	return m.DefaultBranch, nil
}

// WorktreeAdd records the call.
func (m *MockGit) WorktreeAdd(_ context.Context, repoPath, destPath, ref string, createBranch bool) error {
	args := []string{repoPath, destPath, ref}
	if createBranch {
		args = append(args, "-b")
	}
	m.Calls = append(m.Calls, GitCall{Op: "worktree-add", Args: args})
	return m.AddErr
}

// WorktreeRemove records the call.
func (m *MockGit) WorktreeRemove(_ context.Context, repoPath, destPath string) error {
	m.Calls = append(m.Calls, GitCall{Op: "worktree-remove", Args: []string{repoPath, destPath}})
	return m.RemoveErr
}

// WorktreeList returns the configured listing.
func (m *MockGit) WorktreeList(_ context.Context, _ string) ([]domain.WorktreeListing, error) {
	return m.Listing, nil
}

// HasRemoteBranch reports the configured remote branch set.
func (m *MockGit) HasRemoteBranch(_ context.Context, _, name string) (bool, error) {
	return m.RemoteBranches[name], nil
}

// CurrentSHA returns the configured SHA, dirty-suffixed when Dirty is set.
func (m *MockGit) CurrentSHA(_ context.Context, _ string) (string, error) {
	if m.Dirty {
		return m.SHA + domain.DirtySuffix, nil
	}
	return m.SHA, nil
}

// IsDirty reports the configured dirty flag.
func (m *MockGit) IsDirty(_ context.Context, _ string) (bool, error) {
	return m.Dirty, nil
}
