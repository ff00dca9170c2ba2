package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
	"github.com/loom-sh/loom/internal/transcript"
)

// DefaultImportBatchSize bounds per-request payload size for bulk writes.
const DefaultImportBatchSize = 100

// BatchError reports a failed bulk write with enough context to retry just
// that batch: earlier batches are already committed and are not rolled back.
type BatchError struct {
	Kind  string // "messages", "tasks" or "links"
	Batch int    // 0-based batch index
	Start int    // first item index of the attempted batch
	End   int    // last item index of the attempted batch (inclusive)
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("import %s batch %d (items %d-%d): %v", e.Kind, e.Batch, e.Start, e.End, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// ImportTranscriptInput contains the parameters for importing a transcript.
type ImportTranscriptInput struct {
	Reader            io.Reader           // JSONL transcript (required)
	Agent             string              // Agent kind (optional, default claude-code)
	OriginalSessionID string              // The source tool's own session ID (optional)
	Repo              *domain.RepoContext // Working directory binding (optional)
}

// ImportTranscriptOutput contains the result of importing a transcript.
type ImportTranscriptOutput struct {
	Session      *domain.Session
	Tasks        []*domain.Task
	MessageCount int
	ToolUseCount int
	Batches      int // total bulk-write batches committed
}

// ImportTranscript is the use case for converting an agent's conversation
// log into a completed session with messages, tasks and message-to-task
// linkage. All three bulk writes are split into fixed-size batches; batches
// are sequential within the session because index assignment and range
// computation depend on total ordering.
type ImportTranscript struct {
	sessions  domain.SessionStore
	tasks     domain.TaskStore
	messages  domain.MessageStore
	clock     domain.Clock
	logger    domain.Logger
	batchSize int
}

// NewImportTranscript creates a new ImportTranscript use case. batchSize <= 0
// selects the default.
func NewImportTranscript(
	sessions domain.SessionStore,
	tasks domain.TaskStore,
	messages domain.MessageStore,
	clock domain.Clock,
	logger domain.Logger,
	batchSize int,
) *ImportTranscript {
	if batchSize <= 0 {
		batchSize = DefaultImportBatchSize
	}
	return &ImportTranscript{
		sessions:  sessions,
		tasks:     tasks,
		messages:  messages,
		clock:     clock,
		logger:    logger,
		batchSize: batchSize,
	}
}

// Execute imports a transcript. The session is created first so committed
// batches always reference a live session; a failed batch leaves the
// session with a partial import that the returned *BatchError describes
// precisely enough to retry.
func (uc *ImportTranscript) Execute(ctx context.Context, in ImportTranscriptInput) (*ImportTranscriptOutput, error) {
	sessionID := identity.New()

	raw, err := transcript.Parse(in.Reader, sessionID)
	if err != nil {
		return nil, err
	}
	conv := transcript.FilterConversation(raw)
	tasks := transcript.Segment(conv, sessionID)
	links, err := transcript.Link(conv, tasks)
	if err != nil {
		return nil, err
	}

	toolUseCount := 0
	for _, t := range tasks {
		toolUseCount += t.ToolUseCount
	}

	now := uc.clock.Now()
	session := &domain.Session{
		ID:          sessionID,
		Status:      domain.SessionCompleted,
		Agent:       in.Agent,
		Description: importDescription(tasks),
		Repo:        in.Repo,
		Genealogy:   domain.Genealogy{Children: []string{}},
		Concepts:    []string{},
		Tasks:       []string{},
		Metadata:    map[string]any{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if session.Agent == "" {
		session.Agent = DefaultAgent
	}
	if in.OriginalSessionID != "" {
		session.Metadata["original_session_id"] = in.OriginalSessionID
	}
	if len(conv) > 0 {
		session.CreatedAt = conv[0].Timestamp
	}
	if err := uc.sessions.Insert(ctx, session); err != nil {
		return nil, fmt.Errorf("insert imported session: %w", err)
	}

	out := &ImportTranscriptOutput{Session: session, Tasks: tasks}

	if err := uc.insertMessages(ctx, conv, out); err != nil {
		return out, err
	}
	if err := uc.insertTasks(ctx, tasks, out); err != nil {
		return out, err
	}
	if err := uc.linkMessages(ctx, links, out); err != nil {
		return out, err
	}

	taskIDs := make([]string, len(tasks))
	for i, t := range tasks {
		taskIDs[i] = t.ID
	}
	updated, err := uc.sessions.Patch(ctx, sessionID, domain.Patch{
		"tasks":          taskIDs,
		"message_count":  len(conv),
		"tool_use_count": toolUseCount,
	})
	if err != nil {
		return out, fmt.Errorf("patch imported session: %w", err)
	}
	out.Session = updated
	out.MessageCount = len(conv)
	out.ToolUseCount = toolUseCount

	if uc.logger != nil {
		uc.logger.Info("transcript imported",
			"session_id", sessionID, "messages", len(conv),
			"tasks", len(tasks), "tool_uses", toolUseCount, "batches", out.Batches)
	}
	return out, nil
}

func (uc *ImportTranscript) insertMessages(ctx context.Context, msgs []*domain.Message, out *ImportTranscriptOutput) error {
	for batch := 0; batch*uc.batchSize < len(msgs); batch++ {
		start := batch * uc.batchSize
		end := min(start+uc.batchSize, len(msgs))
		if err := uc.messages.InsertBatch(ctx, msgs[start:end]); err != nil {
			return &BatchError{Kind: "messages", Batch: batch, Start: start, End: end - 1, Err: err}
		}
		out.Batches++
	}
	return nil
}

func (uc *ImportTranscript) insertTasks(ctx context.Context, tasks []*domain.Task, out *ImportTranscriptOutput) error {
	for batch := 0; batch*uc.batchSize < len(tasks); batch++ {
		start := batch * uc.batchSize
		end := min(start+uc.batchSize, len(tasks))
		if err := uc.tasks.InsertBatch(ctx, tasks[start:end]); err != nil {
			return &BatchError{Kind: "tasks", Batch: batch, Start: start, End: end - 1, Err: err}
		}
		out.Batches++
	}
	return nil
}

func (uc *ImportTranscript) linkMessages(ctx context.Context, links []domain.MessageLink, out *ImportTranscriptOutput) error {
	for batch := 0; batch*uc.batchSize < len(links); batch++ {
		start := batch * uc.batchSize
		end := min(start+uc.batchSize, len(links))
		if err := uc.messages.LinkTasks(ctx, links[start:end]); err != nil {
			return &BatchError{Kind: "links", Batch: batch, Start: start, End: end - 1, Err: err}
		}
		out.Batches++
	}
	return nil
}

// importDescription derives the session description from the first prompt.
func importDescription(tasks []*domain.Task) string {
	if len(tasks) == 0 {
		return ""
	}
	return tasks[0].Description
}
