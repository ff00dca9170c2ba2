package usecase

import (
	"context"
	"fmt"

	"github.com/loom-sh/loom/internal/domain"
)

// CompleteTaskInput contains the parameters for completing a task.
type CompleteTaskInput struct {
	TaskID   string         // Full ID or short prefix (required)
	EndSHA   string         // Commit the task finished at (optional, may carry -dirty)
	Report   *domain.Report // Generated completion report (optional)
	Failed   bool           // Mark failed instead of completed
	ErrorMsg string         // Failure detail, recorded on the task (optional)
}

// CompleteTaskOutput contains the result of completing a task.
type CompleteTaskOutput struct {
	Task *domain.Task
}

// CompleteTask is the use case for closing out a task as completed or
// failed.
type CompleteTask struct {
	tasks  domain.TaskStore
	clock  domain.Clock
	logger domain.Logger
}

// NewCompleteTask creates a new CompleteTask use case.
func NewCompleteTask(tasks domain.TaskStore, clock domain.Clock, logger domain.Logger) *CompleteTask {
	return &CompleteTask{tasks: tasks, clock: clock, logger: logger}
}

// Execute closes a task. Only created or running tasks can be closed.
func (uc *CompleteTask) Execute(ctx context.Context, in CompleteTaskInput) (*CompleteTaskOutput, error) {
	task, err := uc.tasks.Get(ctx, in.TaskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task.Status == domain.TaskCompleted || task.Status == domain.TaskFailed {
		return nil, &domain.InvalidStateError{
			Reason: fmt.Sprintf("task is already %s", task.Status),
		}
	}

	status := domain.TaskCompleted
	if in.Failed {
		status = domain.TaskFailed
	}
	patch := domain.Patch{
		"status":       string(status),
		"completed_at": uc.clock.Now(),
	}
	if in.EndSHA != "" {
		patch["git_state"] = map[string]any{"sha_at_end": domain.CleanSHA(in.EndSHA)}
	}
	if in.Report != nil {
		patch["report"] = in.Report
	}
	if in.ErrorMsg != "" {
		patch["description"] = in.ErrorMsg
	}

	updated, err := uc.tasks.Patch(ctx, task.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("patch task: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("task closed", "task_id", task.ID, "status", status)
	}
	return &CompleteTaskOutput{Task: updated}, nil
}
