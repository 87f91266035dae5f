package turnnode

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/nanxi-ai/smartcs/agent/contract"
	promptx "github.com/nanxi-ai/smartcs/agent/prompt"
	statex "github.com/nanxi-ai/smartcs/agent/state"
)

// respondHistoryDepth bounds how much transcript the responder sees.
const respondHistoryDepth = 5

// GenerateResponse makes the turn's single reply-generation call and appends
// the assistant message. The context block carries the latest tool result and
// the turn's retrieved knowledge, or a fixed fallback when both are empty.
func GenerateResponse(ctx context.Context, in *TurnState, gen contractx.Generator, persona Persona) (statex.Delta, error) {
	st := in.Session

	var parts []string
	if rec := st.LatestToolCall(); rec != nil {
		parts = append(parts, "工具调用结果：\n"+renderToolResult(rec.Result))
	}
	if len(st.RetrievedDocs) > 0 {
		parts = append(parts, "相关知识：\n"+strings.Join(st.RetrievedDocs, "\n"))
	}
	contextBlock := promptx.NoContextFallback
	if len(parts) > 0 {
		contextBlock = strings.Join(parts, "\n\n")
	}

	history := formatHistory(st.RecentMessages(respondHistoryDepth))

	reply, err := gen.Generate(ctx, []statex.Message{
		statex.NewMessage(statex.RoleSystem, promptx.ResponderSystem(persona.ServiceName, persona.CompanyName, st.Intent), in.Now),
		statex.NewMessage(statex.RoleUser, promptx.ResponderUser(history, contextBlock, in.Text), in.Now),
	})
	if err != nil {
		return statex.Delta{}, fmt.Errorf("%w: generate response: %v", contractx.ErrModelInvoke, err)
	}

	log.Info().Int("chars", len(reply)).Msg("response generated")

	return statex.Delta{
		Messages:        []statex.Message{statex.NewMessage(statex.RoleAssistant, reply, in.Now)},
		CurrentResponse: statex.StringPtr(reply),
	}, nil
}

func renderToolResult(result statex.ToolResult) string {
	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return result.Message
	}
	return string(raw)
}
