// Package transcript parses agent conversation logs into ordered messages
// and re-segments them into tasks.
//
// The input is JSONL: one record per line, already in chronological order.
// Records carry either a conversation turn (user/assistant/system) or a
// meta entry such as a file-history snapshot, which import filters out.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/loom-sh/loom/internal/domain"
	"github.com/loom-sh/loom/internal/identity"
)

// record is one raw transcript line.
type record struct {
	Type       string         `json:"type"`
	UUID       string         `json:"uuid"`
	ParentUUID string         `json:"parentUuid"`
	Timestamp  time.Time      `json:"timestamp"`
	IsMeta     bool           `json:"isMeta"`
	Message    *recordMessage `json:"message"`
}

type recordMessage struct {
	Role    string          `json:"role"`
	Model   string          `json:"model"`
	Content json.RawMessage `json:"content"`
}

// contentBlock is one element of a block-array content payload.
type contentBlock struct {
	Type  string         `json:"type"`
	Text  string         `json:"text"`
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// maxLineBytes bounds a single transcript line; tool results can embed
// whole files.
const maxLineBytes = 16 * 1024 * 1024

// Parse reads a JSONL transcript and converts each line into a message for
// the given session. Indices are assigned densely in input order.
func Parse(r io.Reader, sessionID string) ([]*domain.Message, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var messages []*domain.Message
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("parse transcript line %d: %w", line, err)
		}

		messages = append(messages, toMessage(&rec, sessionID, len(messages)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return messages, nil
}

// FilterConversation drops non-conversational records (snapshots, meta
// entries), preserving relative order and original index values.
func FilterConversation(messages []*domain.Message) []*domain.Message {
	var out []*domain.Message
	for _, m := range messages {
		if !m.Type.IsConversational() {
			continue
		}
		if meta, ok := m.Metadata["is_meta"].(bool); ok && meta {
			continue
		}
		out = append(out, m)
	}
	return out
}

func toMessage(rec *record, sessionID string, index int) *domain.Message {
	role := rec.Type
	var content json.RawMessage
	var model string
	if rec.Message != nil {
		if rec.Message.Role != "" {
			role = rec.Message.Role
		}
		content = rec.Message.Content
		model = rec.Message.Model
	}
	if content == nil {
		content = json.RawMessage(`""`)
	}

	m := &domain.Message{
		ID:             identity.New(),
		SessionID:      sessionID,
		Type:           domain.MessageType(rec.Type),
		Role:           domain.MessageRole(role),
		Index:          index,
		Timestamp:      rec.Timestamp,
		Content:        content,
		ContentPreview: domain.Preview(contentText(content)),
		ToolUses:       toolUses(content),
		Metadata: map[string]any{
			"original_id": rec.UUID,
		},
	}
	if rec.ParentUUID != "" {
		m.Metadata["parent_id"] = rec.ParentUUID
	}
	if rec.IsMeta {
		m.Metadata["is_meta"] = true
	}
	if model != "" {
		m.Metadata["model"] = model
	}
	return m
}

// contentText flattens a content payload (plain string or block array)
// into preview text.
func contentText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return string(raw)
	}
	text := ""
	for _, b := range blocks {
		if b.Type == "text" {
			if text != "" {
				text += "\n"
			}
			text += b.Text
		}
	}
	if text == "" {
		return string(raw)
	}
	return text
}

// toolUses extracts tool invocation blocks from block-array content.
func toolUses(raw json.RawMessage) []domain.ToolUse {
	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil
	}
	var uses []domain.ToolUse
	for _, b := range blocks {
		if b.Type == "tool_use" {
			uses = append(uses, domain.ToolUse{ID: b.ID, Name: b.Name, Input: b.Input})
		}
	}
	return uses
}

// isToolResultOnly reports whether a user message carries nothing but tool
// results, i.e. it continues the previous prompt rather than starting a
// new one.
func isToolResultOnly(m *domain.Message) bool {
	var blocks []contentBlock
	if err := json.Unmarshal(m.Content, &blocks); err != nil || len(blocks) == 0 {
		return false
	}
	for _, b := range blocks {
		if b.Type != "tool_result" {
			return false
		}
	}
	return true
}
