// Package turnnode holds the five turn-pipeline stages as free functions over
// *TurnState. Each stage returns a state.Delta; the orchestrator applies it
// before the next stage runs, so every stage observes the previous stage's
// writes in program order.
package turnnode

import (
	"context"
	"strings"
	"time"

	statex "github.com/nanxi-ai/smartcs/agent/state"
	vectorx "github.com/nanxi-ai/smartcs/agent/vector"
)

// TurnState is the per-run working set: the raw user text, the run clock, and
// the session clone the stages read from as deltas are applied.
type TurnState struct {
	Text string
	Now  time.Time

	Session *statex.ConversationState
}

// Persona identifies the assistant to the generation service.
type Persona struct {
	ServiceName string
	CompanyName string
}

// Retriever is the slice of the vector index the retrieval stage needs.
type Retriever interface {
	Search(ctx context.Context, query string, topK int, threshold float64) ([]vectorx.Result, error)
}

// formatHistory renders messages the way the prompts expect: one line per
// message, user turns labelled 用户 and everything else 客服.
func formatHistory(msgs []statex.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		label := "客服"
		if m.Role == statex.RoleUser {
			label = "用户"
		}
		lines = append(lines, label+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}
