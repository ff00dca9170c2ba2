package domain

import "time"

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Task statuses.
const (
	TaskCreated   TaskStatus = "created"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// ValidTaskStatus reports whether s is a known task status.
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskCreated, TaskRunning, TaskCompleted, TaskFailed:
		return true
	}
	return false
}

// Task is a granular unit of work inside a session, spanning a contiguous
// range of the session's messages.
type Task struct {
	ID           string       `json:"task_id"`
	SessionID    string       `json:"session_id"`
	FullPrompt   string       `json:"full_prompt"`
	Description  string       `json:"description,omitempty"`
	Status       TaskStatus   `json:"status"`
	MessageRange MessageRange `json:"message_range"`
	ToolUseCount int          `json:"tool_use_count"`
	GitState     TaskGitState `json:"git_state"`
	Model        string       `json:"model"`
	Report       *Report      `json:"report,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}

// MessageRange is the inclusive span of session message indices attributed
// to one task. Ranges produced by a single import are non-overlapping and
// non-decreasing.
type MessageRange struct {
	StartIndex     int        `json:"start_index"`
	EndIndex       int        `json:"end_index"`
	StartTimestamp time.Time  `json:"start_timestamp"`
	EndTimestamp   *time.Time `json:"end_timestamp,omitempty"`
}

// Contains reports whether the message index falls inside the range.
func (r MessageRange) Contains(index int) bool {
	return index >= r.StartIndex && index <= r.EndIndex
}

// Len returns the number of message indices the range covers.
func (r MessageRange) Len() int {
	return r.EndIndex - r.StartIndex + 1
}

// TaskGitState records the commits bracketing a task.
type TaskGitState struct {
	SHAAtStart    string `json:"sha_at_start"`
	SHAAtEnd      string `json:"sha_at_end,omitempty"`
	CommitMessage string `json:"commit_message,omitempty"`
}

// Report points at a generated completion report for a task.
type Report struct {
	Path        string    `json:"path"`
	Template    string    `json:"template"`
	GeneratedAt time.Time `json:"generated_at"`
}
