package transcript

import (
	"strings"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
)

// descriptionLength caps the auto-derived task description.
const descriptionLength = 80

// Segment splits conversational messages into tasks. A new task starts at
// each user message that is a genuine prompt; user turns that only carry
// tool results continue the current task. Each task's range runs from its
// prompt up to the message before the next prompt, the last task running
// to the end of the transcript.
//
// Messages before the first prompt (system preamble) are attributed to the
// first task. A transcript with no prompt at all yields no tasks.
func Segment(messages []*domain.Message, sessionID string) []*domain.Task {
	var tasks []*domain.Task
	var current *domain.Task

	for _, m := range messages {
		if m.Role == domain.RoleUser && m.Type == domain.TypeUser && !isToolResultOnly(m) {
			if current != nil {
				current.MessageRange.EndIndex = m.Index - 1
			}
			prompt := contentText(m.Content)
			current = &domain.Task{
				ID:          identity.New(),
				SessionID:   sessionID,
				FullPrompt:  prompt,
				Description: describe(prompt),
				Status:      domain.TaskCompleted,
				MessageRange: domain.MessageRange{
					StartIndex:     m.Index,
					StartTimestamp: m.Timestamp,
				},
				CreatedAt: m.Timestamp,
			}
			tasks = append(tasks, current)
			continue
		}
		if current == nil {
			continue
		}
		current.ToolUseCount += len(m.ToolUses)
		if current.Model == "" {
			if model, ok := m.Metadata["model"].(string); ok {
				current.Model = model
			}
		}
	}

	if len(tasks) == 0 {
		return nil
	}

	// Pull preamble messages into the first task's range.
	tasks[0].MessageRange.StartIndex = messages[0].Index
	tasks[len(tasks)-1].MessageRange.EndIndex = messages[len(messages)-1].Index

	closeRanges(tasks, messages)
	return tasks
}

// closeRanges fills end timestamps and completion times from the last
// message inside each range.
func closeRanges(tasks []*domain.Task, messages []*domain.Message) {
	for _, t := range tasks {
		for i := len(messages) - 1; i >= 0; i-- {
			if t.MessageRange.Contains(messages[i].Index) {
				ts := messages[i].Timestamp
				t.MessageRange.EndTimestamp = &ts
				t.CompletedAt = &ts
				break
			}
		}
	}
}

// Link attributes every message to exactly one task and returns the
// resulting pairs. Overlapping ranges or a message no range covers fail
// with a SegmentationError. Zero tasks is a valid segmentation (a
// transcript with no prompt); the messages then stay unlinked.
func Link(messages []*domain.Message, tasks []*domain.Task) ([]domain.MessageLink, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	owner := make(map[int]string, len(messages))
	for _, t := range tasks {
		for idx := t.MessageRange.StartIndex; idx <= t.MessageRange.EndIndex; idx++ {
			if _, dup := owner[idx]; dup {
				return nil, &domain.SegmentationError{
					Kind:   "overlap",
					Index:  idx,
					Detail: "message index claimed by more than one task",
				}
			}
			owner[idx] = t.ID
		}
	}

	links := make([]domain.MessageLink, 0, len(messages))
	for _, m := range messages {
		taskID, ok := owner[m.Index]
		if !ok {
			return nil, &domain.SegmentationError{
				Kind:   "gap",
				Index:  m.Index,
				Detail: "message index not covered by any task range",
			}
		}
		links = append(links, domain.MessageLink{MessageID: m.ID, TaskID: taskID})
	}
	return links, nil
}

// describe derives a short one-line description from a prompt.
func describe(prompt string) string {
	line := prompt
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	runes := []rune(line)
	if len(runes) > descriptionLength {
		return string(runes[:descriptionLength])
	}
	return line
}
