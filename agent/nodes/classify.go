package turnnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/nanxi-ai/smartcs/agent/contract"
	promptx "github.com/nanxi-ai/smartcs/agent/prompt"
	statex "github.com/nanxi-ai/smartcs/agent/state"
)

// classifyHistoryDepth bounds how much transcript the classifier sees.
const classifyHistoryDepth = 3

// ClassifyIntent asks the generation service for the turn's intent, entity
// slots, and routing flags. A malformed or unparseable reply is absorbed
// locally into the general_chat fallback; only the generation call itself
// failing is an error.
func ClassifyIntent(ctx context.Context, in *TurnState, gen contractx.Generator) (statex.Delta, error) {
	history := formatHistory(in.Session.RecentMessages(classifyHistoryDepth))

	raw, err := gen.Generate(ctx, []statex.Message{
		statex.NewMessage(statex.RoleSystem, promptx.ClassifierSystem(), in.Now),
		statex.NewMessage(statex.RoleUser, promptx.ClassifierUser(history, in.Text), in.Now),
	})
	if err != nil {
		return statex.Delta{}, fmt.Errorf("%w: classify intent: %v", contractx.ErrModelInvoke, err)
	}

	var cls contractx.Classification
	if err := ExtractObject(raw, &cls); err != nil {
		log.Warn().Err(err).Msg("intent classification unparseable, falling back to general_chat")
		return fallbackClassification(), nil
	}

	intent := strings.TrimSpace(cls.Intent)
	if intent == "" {
		log.Warn().Msg("intent missing from classification, falling back to general_chat")
		return fallbackClassification(), nil
	}

	if !contractx.KnownIntents[contractx.Intent(intent)] {
		log.Warn().Str("intent", intent).Msg("classifier emitted an unlisted intent")
	}

	entities := make(map[string]string, len(cls.Entities))
	for k, v := range cls.Entities {
		if v = strings.TrimSpace(v); v != "" {
			entities[k] = v
		}
	}

	log.Info().Str("intent", intent).Interface("entities", entities).Msg("intent classified")

	return statex.Delta{
		Intent:   statex.StringPtr(intent),
		Entities: entities,
		Context: statex.ContextPtr(statex.Context{
			NeedsTool:      cls.NeedsTool,
			NeedsKnowledge: cls.NeedsKnowledge,
		}),
	}, nil
}

func fallbackClassification() statex.Delta {
	return statex.Delta{
		Intent:   statex.StringPtr(string(contractx.IntentGeneralChat)),
		Entities: map[string]string{},
		Context:  statex.ContextPtr(statex.Context{}),
	}
}
