package turnnode

import (
	"context"

	"github.com/rs/zerolog/log"

	statex "github.com/nanxi-ai/smartcs/agent/state"
	vectorx "github.com/nanxi-ai/smartcs/agent/vector"
)

// RetrieveKnowledge overwrites RetrievedDocs with the latest turn's matches.
// A nil retriever means no index is configured: the result is overwritten to
// empty, not an error. The embedding call failing does propagate.
func RetrieveKnowledge(ctx context.Context, in *TurnState, retriever Retriever) (statex.Delta, error) {
	if retriever == nil {
		log.Warn().Msg("no knowledge index configured, skipping retrieval")
		return statex.Delta{RetrievedDocs: []string{}}, nil
	}

	results, err := retriever.Search(ctx, in.Text, vectorx.DefaultTopK, vectorx.DefaultScoreThreshold)
	if err != nil {
		return statex.Delta{}, err
	}

	docs := make([]string, 0, len(results))
	for _, r := range results {
		docs = append(docs, r.Document)
	}
	log.Info().Int("count", len(docs)).Msg("knowledge retrieved")
	return statex.Delta{RetrievedDocs: docs}, nil
}
