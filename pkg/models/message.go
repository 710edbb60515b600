// Package models defines the value types shared across the llmproc runtime:
// messages, content blocks, tool results, and run telemetry. None of these
// types carry behavior beyond small helpers — the runtime components own the
// logic that produces and consumes them.
package models

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// BlockType discriminates the variants of ContentBlock.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is a sum type over the three block shapes a Message can carry.
// Exactly one of the Text/ToolUse/ToolResult groups of fields is populated,
// selected by Type. Assistant messages mix Text and ToolUse blocks; user
// messages carry Text or ToolResult blocks.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// Text is set when Type == BlockText.
	Text string `json:"text,omitempty"`

	// ToolUse fields, set when Type == BlockToolUse.
	ToolUseID    string          `json:"tool_use_id,omitempty"`
	ToolUseName  string          `json:"tool_use_name,omitempty"`
	ToolUseInput json.RawMessage `json:"tool_use_input,omitempty"`

	// ToolResult fields, set when Type == BlockToolResult.
	ToolResultForID string `json:"tool_result_for_id,omitempty"`
	ToolResultText  string `json:"tool_result_text,omitempty"`
	ToolResultError bool   `json:"tool_result_error,omitempty"`
}

// NewTextBlock constructs a text content block.
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// NewToolUseBlock constructs a tool-use content block.
func NewToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ToolUseID: id, ToolUseName: name, ToolUseInput: input}
}

// NewToolResultBlock constructs a tool-result content block answering the
// ToolUse with the given id.
func NewToolResultBlock(toolUseID, text string, isError bool) ContentBlock {
	return ContentBlock{
		Type:            BlockToolResult,
		ToolResultForID: toolUseID,
		ToolResultText:  text,
		ToolResultError: isError,
	}
}

// Message is one turn in a Process's conversation State: a role plus an
// ordered list of content blocks.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`

	// CreatedAt records when the message was appended to state. Not sent to
	// the provider; used for telemetry and debugging only.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// NewUserMessage builds a user message from one or more content blocks.
func NewUserMessage(blocks ...ContentBlock) Message {
	return Message{Role: RoleUser, Content: blocks, CreatedAt: time.Now()}
}

// NewAssistantMessage builds an assistant message from one or more content
// blocks.
func NewAssistantMessage(blocks ...ContentBlock) Message {
	return Message{Role: RoleAssistant, Content: blocks, CreatedAt: time.Now()}
}

// ToolUses returns the ToolUse blocks contained in the message, in order.
func (m Message) ToolUses() []ContentBlock {
	var out []ContentBlock
	for _, b := range m.Content {
		if b.Type == BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}

// ToolResults returns the ToolResult blocks contained in the message, in
// order.
func (m Message) ToolResults() []ContentBlock {
	var out []ContentBlock
	for _, b := range m.Content {
		if b.Type == BlockToolResult {
			out = append(out, b)
		}
	}
	return out
}

// Text concatenates all Text blocks in the message.
func (m Message) Text() string {
	var out string
	for _, b := range m.Content {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

// ToolResult is the outcome of one tool dispatch, independent of its wire
// representation as a ContentBlock.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

// AsBlock converts the ToolResult to its ContentBlock wire form.
func (r ToolResult) AsBlock() ContentBlock {
	return NewToolResultBlock(r.ToolUseID, r.Content, r.IsError)
}
