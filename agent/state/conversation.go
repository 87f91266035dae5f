package state

import (
	"time"
)

// Role tags a message's author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Status is the session lifecycle marker set by the satisfaction check.
type Status string

const (
	StatusActive    Status = "active"
	StatusWaiting   Status = "waiting"
	StatusCompleted Status = "completed"
	StatusEscalated Status = "escalated"
)

// Message is one entry of the conversation transcript. Immutable once created.
type Message struct {
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewMessage stamps a message with the given clock value.
func NewMessage(role Role, content string, now time.Time) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: now.UTC(),
	}
}

// ToolResult is the outcome of one business operation.
type ToolResult struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Message string         `json:"message"`
}

// ToolCallRecord is the per-turn audit entry for a dispatched business tool.
type ToolCallRecord struct {
	Intent    string     `json:"intent"`
	Result    ToolResult `json:"result"`
	Timestamp time.Time  `json:"timestamp"`
}

// Context carries the transient routing flags the classifier writes for the
// current turn. Overwritten every turn.
type Context struct {
	NeedsTool      bool `json:"needs_tool"`
	NeedsKnowledge bool `json:"needs_knowledge"`
}

// ConversationState is the accumulating per-session record.
//
// Messages and ToolCalls are append-only and monotonically non-decreasing for
// the life of the session; every other field is last-writer-wins per turn.
// SessionID never changes after creation.
type ConversationState struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`

	Messages []Message `json:"messages"`

	Intent   string            `json:"intent,omitempty"`
	Entities map[string]string `json:"entities,omitempty"`
	Context  Context           `json:"context"`

	ToolCalls []ToolCallRecord `json:"tool_calls"`

	// RetrievedDocs reflects only the latest turn's retrieval; it is
	// overwritten, never accumulated.
	RetrievedDocs []string `json:"retrieved_docs,omitempty"`

	CurrentResponse string `json:"current_response,omitempty"`
	RequiresHuman   bool   `json:"requires_human"`
	Status          Status `json:"status"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversationState initializes the state created by the session store on
// the first turn of a session.
func NewConversationState(sessionID, userID string, now time.Time) *ConversationState {
	return &ConversationState{
		SessionID: sessionID,
		UserID:    userID,
		Messages:  make([]Message, 0, 8),
		Entities:  make(map[string]string),
		ToolCalls: make([]ToolCallRecord, 0, 4),
		Status:    StatusActive,
		UpdatedAt: now.UTC(),
	}
}

func (s *ConversationState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

/* ------------------------------ Read helpers ----------------------------- */

// RecentMessages returns up to n messages from the end of the transcript.
func (s *ConversationState) RecentMessages(n int) []Message {
	if s == nil || n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	if n > len(s.Messages) {
		n = len(s.Messages)
	}
	out := make([]Message, n)
	copy(out, s.Messages[len(s.Messages)-n:])
	return out
}

// LatestToolCall returns the newest tool call record, or nil.
func (s *ConversationState) LatestToolCall() *ToolCallRecord {
	if s == nil || len(s.ToolCalls) == 0 {
		return nil
	}
	rec := s.ToolCalls[len(s.ToolCalls)-1]
	return &rec
}

// Clone deep-copies the state so a running turn can mutate freely and commit
// all-or-nothing.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	out := *s

	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	for i, m := range out.Messages {
		out.Messages[i].Metadata = cloneStringMap(m.Metadata)
	}

	out.ToolCalls = make([]ToolCallRecord, len(s.ToolCalls))
	copy(out.ToolCalls, s.ToolCalls)
	for i, tc := range out.ToolCalls {
		out.ToolCalls[i].Result.Data = cloneAnyMap(tc.Result.Data)
	}

	out.Entities = cloneStringMap(s.Entities)
	if s.RetrievedDocs != nil {
		out.RetrievedDocs = make([]string, len(s.RetrievedDocs))
		copy(out.RetrievedDocs, s.RetrievedDocs)
	}
	return &out
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneAnyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
