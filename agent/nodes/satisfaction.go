package turnnode

import (
	"strings"

	"github.com/rs/zerolog/log"

	statex "github.com/nanxi-ai/smartcs/agent/state"
)

// escalationKeywords trigger handoff to a human agent: explicit requests,
// dissatisfaction, complaints, and manager demands.
var escalationKeywords = []string{"人工", "转人工", "不满意", "投诉", "经理"}

// CheckSatisfaction scans the user message that triggered this turn (the
// second-to-last message, now that the assistant reply is appended). Terminal
// stage; its outcome does not change routing.
func CheckSatisfaction(in *TurnState) statex.Delta {
	msgs := in.Session.Messages
	var userMessage string
	if len(msgs) >= 2 {
		userMessage = msgs[len(msgs)-2].Content
	}

	for _, kw := range escalationKeywords {
		if strings.Contains(userMessage, kw) {
			log.Info().Str("keyword", kw).Msg("escalating to human agent")
			return statex.Delta{
				RequiresHuman: statex.BoolPtr(true),
				Status:        statex.StatusPtr(statex.StatusEscalated),
			}
		}
	}
	return statex.Delta{Status: statex.StatusPtr(statex.StatusCompleted)}
}
