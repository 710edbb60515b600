package models

import "fmt"

// State is the ordered sequence of Messages for a single process. It enforces
// invariant P1/P5: an assistant turn may not begin while a prior ToolUse is
// unanswered.
type State struct {
	messages []Message
}

// NewState returns an empty State.
func NewState() *State {
	return &State{}
}

// Messages returns the state's messages. The returned slice is owned by the
// caller; mutating it does not affect the State.
func (s *State) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len reports the number of messages in the state.
func (s *State) Len() int {
	return len(s.messages)
}

// Last returns the last message and true, or the zero Message and false if
// the state is empty.
func (s *State) Last() (Message, bool) {
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// PendingToolUseIDs returns the ids of ToolUse blocks in the last message that
// have not yet been answered by a ToolResult in a later message. Non-empty
// only immediately after an assistant message containing tool uses.
func (s *State) PendingToolUseIDs() []string {
	if len(s.messages) == 0 {
		return nil
	}
	last := s.messages[len(s.messages)-1]
	if last.Role != RoleAssistant {
		return nil
	}
	var ids []string
	for _, b := range last.ToolUses() {
		ids = append(ids, b.ToolUseID)
	}
	return ids
}

// Append adds a message to the state, enforcing that an assistant message is
// never appended while a prior ToolUse remains unanswered (P5), and that a
// user message answering tool uses carries exactly one ToolResult per
// ToolUse, in the same order (P1).
func (s *State) Append(m Message) error {
	if m.Role == RoleAssistant {
		if pending := s.PendingToolUseIDs(); len(pending) > 0 {
			return fmt.Errorf("state: cannot append assistant message: %d tool use(s) still unanswered", len(pending))
		}
	}
	if pending := s.PendingToolUseIDs(); len(pending) > 0 {
		if err := validateToolResultMatch(pending, m); err != nil {
			return err
		}
	}
	s.messages = append(s.messages, m)
	return nil
}

func validateToolResultMatch(pendingIDs []string, m Message) error {
	results := m.ToolResults()
	if len(results) != len(pendingIDs) {
		return fmt.Errorf("state: expected %d tool result(s) to answer pending tool use(s), got %d", len(pendingIDs), len(results))
	}
	for i, id := range pendingIDs {
		if results[i].ToolResultForID != id {
			return fmt.Errorf("state: tool result order mismatch at position %d: expected answer for %q, got %q", i, id, results[i].ToolResultForID)
		}
	}
	return nil
}

// Truncate drops all messages from index onward (used by the goto control
// tool). Index must be within [0, Len()].
func (s *State) Truncate(index int) error {
	if index < 0 || index > len(s.messages) {
		return fmt.Errorf("state: truncate index %d out of range [0, %d]", index, len(s.messages))
	}
	s.messages = s.messages[:index]
	return nil
}

// DeepCopy returns an independent copy of the state, used by fork (P4).
func (s *State) DeepCopy() *State {
	cp := &State{messages: make([]Message, len(s.messages))}
	for i, m := range s.messages {
		blocks := make([]ContentBlock, len(m.Content))
		copy(blocks, m.Content)
		cp.messages[i] = Message{Role: m.Role, Content: blocks, CreatedAt: m.CreatedAt}
	}
	return cp
}
