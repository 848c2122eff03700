package openaiEmbedding

import (
	"context"
	"fmt"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/customHttpClient"
	"github.com/akolanti/DocRAG/internal/rag/embedding"
	"github.com/akolanti/DocRAG/pkg/logger_i"
	"github.com/openai/openai-go"
)

type Embedder struct {
	client openai.Client
	model  string
	logger *logger_i.Logger
}

var _ embedding.Embedder = (*Embedder)(nil)

// NewEmbedder talks to an OpenAI compatible /embeddings endpoint. With the
// default settings that is a local Ollama server.
func NewEmbedder(baseURL, apiKey, model string) *Embedder {
	return &Embedder{
		client: customHttpClient.NewOpenAIClient(baseURL, apiKey),
		model:  model,
		logger: logger_i.NewLogger("openai_embedding"),
	}
}

func (e *Embedder) ModelName() string {
	return "openai:" + e.model
}

func (e *Embedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// BatchEmbedding sends all chunks in one request; the endpoint has no async batch mode.
func (e *Embedder) BatchEmbedding(ctx context.Context, chunks []string, _ bool) ([][]float32, error) {
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}
	return e.embed(ctx, chunks)
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	log := e.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: e.model,
	})
	if err != nil {
		log.Error("embedding request failed", "model", e.model, "error", err)
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("embedding response index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors[d.Index] = vec
	}
	log.Debug("embedded texts", "count", len(texts))
	return vectors, nil
}
