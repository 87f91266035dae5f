package state

import (
	"testing"
	"time"
)

func TestApplyAppendsMessagesAndToolCalls(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	st := NewConversationState("s1", "u1", now)

	st.Apply(Delta{Messages: []Message{NewMessage(RoleUser, "你好", now)}})
	st.Apply(Delta{
		Messages:  []Message{NewMessage(RoleAssistant, "您好，请问有什么可以帮您？", now)},
		ToolCalls: []ToolCallRecord{{Intent: "order_query", Timestamp: now}},
	})

	if len(st.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(st.Messages))
	}
	if len(st.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(st.ToolCalls))
	}

	// Appending more never shrinks either sequence.
	st.Apply(Delta{Messages: []Message{NewMessage(RoleUser, "查订单", now)}})
	if len(st.Messages) != 3 || len(st.ToolCalls) != 1 {
		t.Fatalf("append-only fields regressed: messages=%d tool_calls=%d", len(st.Messages), len(st.ToolCalls))
	}
}

func TestApplyOverwritesScalarFields(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := NewConversationState("s1", "", now)

	st.Apply(Delta{
		Intent:        StringPtr("order_query"),
		Entities:      map[string]string{"order_id": "ORD001"},
		Context:       ContextPtr(Context{NeedsTool: true}),
		RetrievedDocs: []string{"doc-a", "doc-b"},
	})
	st.Apply(Delta{
		Intent:        StringPtr("general_chat"),
		Entities:      map[string]string{},
		Context:       ContextPtr(Context{}),
		RetrievedDocs: []string{},
	})

	if st.Intent != "general_chat" {
		t.Fatalf("intent not overwritten: %q", st.Intent)
	}
	if len(st.Entities) != 0 {
		t.Fatalf("entities not overwritten: %v", st.Entities)
	}
	if st.Context.NeedsTool {
		t.Fatal("context not overwritten")
	}
	if len(st.RetrievedDocs) != 0 {
		t.Fatalf("retrieved docs must reflect only the latest turn, got %v", st.RetrievedDocs)
	}
}

func TestApplySkipsUnsetFields(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := NewConversationState("s1", "", now)
	st.Intent = "order_query"
	st.RetrievedDocs = []string{"doc"}
	st.RequiresHuman = true

	st.Apply(Delta{Status: StatusPtr(StatusCompleted)})

	if st.Intent != "order_query" {
		t.Fatalf("unset intent field must not overwrite, got %q", st.Intent)
	}
	if len(st.RetrievedDocs) != 1 {
		t.Fatalf("nil RetrievedDocs must not overwrite, got %v", st.RetrievedDocs)
	}
	if !st.RequiresHuman {
		t.Fatal("unset RequiresHuman must not overwrite")
	}
	if st.Status != StatusCompleted {
		t.Fatalf("status not applied: %q", st.Status)
	}
}

func TestCloneIsolation(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := NewConversationState("s1", "u1", now)
	st.Apply(Delta{
		Messages:  []Message{NewMessage(RoleUser, "hi", now)},
		Entities:  map[string]string{"order_id": "ORD001"},
		ToolCalls: []ToolCallRecord{{Intent: "order_query", Result: ToolResult{Success: true, Data: map[string]any{"k": "v"}}}},
	})

	clone := st.Clone()
	clone.Apply(Delta{Messages: []Message{NewMessage(RoleAssistant, "reply", now)}})
	clone.Entities["order_id"] = "ORD999"
	clone.ToolCalls[0].Result.Data["k"] = "changed"

	if len(st.Messages) != 1 {
		t.Fatalf("clone mutated original messages: %d", len(st.Messages))
	}
	if st.Entities["order_id"] != "ORD001" {
		t.Fatalf("clone mutated original entities: %v", st.Entities)
	}
	if st.ToolCalls[0].Result.Data["k"] != "v" {
		t.Fatalf("clone mutated original tool call data: %v", st.ToolCalls[0].Result.Data)
	}
}

func TestRecentMessages(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := NewConversationState("s1", "", now)
	for i := 0; i < 6; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		st.Apply(Delta{Messages: []Message{NewMessage(role, "m", now)}})
	}

	recent := st.RecentMessages(5)
	if len(recent) != 5 {
		t.Fatalf("expected 5 recent messages, got %d", len(recent))
	}
	if got := st.RecentMessages(10); len(got) != 6 {
		t.Fatalf("expected clamp to 6, got %d", len(got))
	}
	if got := st.RecentMessages(0); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}
