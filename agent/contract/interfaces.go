package contract

import (
	"context"

	statex "github.com/nanxi-ai/smartcs/agent/state"
)

// Generator produces text from an ordered list of role-tagged messages.
// Implemented by agent/llm against the SiliconFlow API; tests inject fakes.
type Generator interface {
	Generate(ctx context.Context, msgs []statex.Message) (string, error)
}

// Embedder turns texts into fixed-dimension vectors. The dimension is fixed
// by the remote model after the first call.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
