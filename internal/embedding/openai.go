package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder embeds text through the OpenAI embeddings API. It is an
// alternative to the local Ollama setup for machines without a GPU.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
}

type OpenAIConfig struct {
	APIKeyEnv string
	Model     string
}

func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(key),
		model:  cfg.Model,
	}, nil
}

func (e *OpenAIEmbedder) Name() string { return "openai/" + e.model }

// Dimension is set lazily on the first embed; 0 until then.
func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, errors.New("cannot embed empty text")
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding returned")
	}
	v32 := resp.Data[0].Embedding
	v := make([]float64, len(v32))
	for i := range v32 {
		v[i] = float64(v32[i])
	}
	if e.dimension == 0 {
		e.dimension = len(v)
	}
	return v, nil
}
