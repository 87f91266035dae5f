// Package llm wraps the OpenAI-compatible SiliconFlow API behind the
// Generator and Embedder contracts used by the turn pipeline.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	contractx "github.com/nanxi-ai/smartcs/agent/contract"
	statex "github.com/nanxi-ai/smartcs/agent/state"
)

// Config is the SiliconFlow client configuration.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.siliconflow.cn/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"Qwen/Qwen2.5-7B-Instruct"`
	EmbeddingModel     string        `envconfig:"EMBEDDING_MODEL" split_words:"true" default:"BAAI/bge-large-zh-v1.5"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.7"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Client implements contract.Generator and contract.Embedder.
type Client struct {
	api openaisdk.Client
	cfg Config
}

var (
	_ contractx.Generator = (*Client)(nil)
	_ contractx.Embedder  = (*Client)(nil)
)

// NewClient builds the SDK client. The API key is required; everything else
// has workable defaults.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("siliconflow api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Client{
		api: openaisdk.NewClient(opts...),
		cfg: cfg,
	}, nil
}

// Generate makes one chat-completion call and returns the reply text.
func (c *Client) Generate(ctx context.Context, msgs []statex.Message) (string, error) {
	if len(msgs) == 0 {
		return "", errors.New("no messages to send")
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(c.cfg.Model),
		Messages: toChatParams(msgs),
	}
	if c.cfg.MaxCompletionToken > 0 {
		params.MaxTokens = openaisdk.Int(int64(c.cfg.MaxCompletionToken))
	}
	if c.cfg.Temperature >= 0 {
		params.Temperature = openaisdk.Float(c.cfg.Temperature)
	}

	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// Embed returns one vector per input text from a single API call. The remote
// model fixes the dimension after the first call.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.api.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(c.cfg.EmbeddingModel),
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d texts", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float32(v)
		}
		out[i] = vec
	}
	return out, nil
}

func toChatParams(msgs []statex.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case statex.RoleSystem:
			out = append(out, openaisdk.SystemMessage(m.Content))
		case statex.RoleAssistant:
			out = append(out, openaisdk.AssistantMessage(m.Content))
		default:
			out = append(out, openaisdk.UserMessage(m.Content))
		}
	}
	return out
}
