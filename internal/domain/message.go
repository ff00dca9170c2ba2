package domain

import (
	"encoding/json"
	"time"
)

// MessageRole is the speaker of a conversation turn.
type MessageRole string

// Message roles.
const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// MessageType distinguishes conversation turns from meta records carried in
// an agent's transcript.
type MessageType string

// Message types.
const (
	TypeUser            MessageType = "user"
	TypeAssistant       MessageType = "assistant"
	TypeSystem          MessageType = "system"
	TypeFileHistorySnap MessageType = "file-history-snapshot"
)

// IsConversational reports whether the type is a user-visible turn.
func (t MessageType) IsConversational() bool {
	return t == TypeUser || t == TypeAssistant || t == TypeSystem
}

// PreviewLength is the number of content characters kept in list views.
const PreviewLength = 200

// Message is a single conversation turn. Index is a dense 0-based sequence
// number unique within a session.
type Message struct {
	ID             string          `json:"message_id"`
	SessionID      string          `json:"session_id"`
	TaskID         string          `json:"task_id,omitempty"`
	Type           MessageType     `json:"type"`
	Role           MessageRole     `json:"role"`
	Index          int             `json:"index"`
	Timestamp      time.Time       `json:"timestamp"`
	ContentPreview string          `json:"content_preview"`
	Content        json.RawMessage `json:"content"`
	ToolUses       []ToolUse       `json:"tool_uses,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
}

// ToolUse is one tool invocation block inside an assistant message.
type ToolUse struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// MessageLink attributes one message to the task whose range covers it.
type MessageLink struct {
	MessageID string `json:"message_id"`
	TaskID    string `json:"task_id"`
}

// Preview truncates content to PreviewLength characters for list views.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= PreviewLength {
		return content
	}
	return string(runes[:PreviewLength])
}
