package rag_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/rag/embedding"
	"github.com/akolanti/DocRAG/internal/rag/llm"
	"github.com/akolanti/DocRAG/internal/rag/vectorDB"
)

// MockIndexStore implements vectorDB.IndexStore
type MockIndexStore struct {
	OnCreate func(ctx context.Context, source string, chunks []commonModels.TextChunk, e embedding.Embedder) (string, error)
	OnOpen   func(ctx context.Context, location string, e embedding.Embedder) (vectorDB.IndexHandle, error)
	OnDrop   func(ctx context.Context, location string) error

	mu      sync.Mutex
	Dropped []string
}

func (m *MockIndexStore) Create(ctx context.Context, source string, chunks []commonModels.TextChunk, e embedding.Embedder) (string, error) {
	if m.OnCreate != nil {
		return m.OnCreate(ctx, source, chunks, e)
	}
	return "loc_" + source, nil
}

func (m *MockIndexStore) Open(ctx context.Context, location string, e embedding.Embedder) (vectorDB.IndexHandle, error) {
	if m.OnOpen != nil {
		return m.OnOpen(ctx, location, e)
	}
	return &MockHandle{location: location}, nil
}

func (m *MockIndexStore) Drop(ctx context.Context, location string) error {
	m.mu.Lock()
	m.Dropped = append(m.Dropped, location)
	m.mu.Unlock()
	if m.OnDrop != nil {
		return m.OnDrop(ctx, location)
	}
	return nil
}

// MockHandle implements vectorDB.IndexHandle
type MockHandle struct {
	location      string
	OnTopK        func(ctx context.Context, query string, k int, floor float64) ([]commonModels.RetrievedChunk, error)
	OnFirstChunks func(ctx context.Context, n int) ([]commonModels.TextChunk, error)
}

func NewMockHandle(location string) *MockHandle {
	return &MockHandle{location: location}
}

func (h *MockHandle) Location() string { return h.location }

func (h *MockHandle) TopK(ctx context.Context, query string, k int, floor float64) ([]commonModels.RetrievedChunk, error) {
	if h.OnTopK != nil {
		return h.OnTopK(ctx, query, k, floor)
	}
	return []commonModels.RetrievedChunk{}, nil
}

func (h *MockHandle) FirstChunks(ctx context.Context, n int) ([]commonModels.TextChunk, error) {
	if h.OnFirstChunks != nil {
		return h.OnFirstChunks(ctx, n)
	}
	return []commonModels.TextChunk{}, nil
}

// MockEmbedder places text on keyword axes so similarity follows shared words.
type MockEmbedder struct {
	Keywords []string
}

func (m *MockEmbedder) vector(text string) []float32 {
	t := strings.ToLower(text)
	v := make([]float32, len(m.Keywords)+1)
	v[len(m.Keywords)] = 0.05
	for i, kw := range m.Keywords {
		if strings.Contains(t, kw) {
			v[i] = 1
		}
	}
	return v
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return m.vector(query), nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	for i, c := range chunks {
		out[i] = m.vector(c)
	}
	return out, nil
}

func (m *MockEmbedder) ModelName() string { return "mock:keywords" }

// MockLLM implements llm.Provider
type MockLLM struct {
	OnComplete func(ctx context.Context, prompt string, opts llm.CompletionOptions) (string, error)

	mu      sync.Mutex
	Prompts []string
}

func (m *MockLLM) Complete(ctx context.Context, prompt string, opts llm.CompletionOptions) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	if m.OnComplete != nil {
		return m.OnComplete(ctx, prompt, opts)
	}
	return "mocked llm response", nil
}

func (m *MockLLM) ModelName() string { return "mock:llm" }

// MockSynthesizer implements speech.Synthesizer
type MockSynthesizer struct {
	OnSynthesize func(ctx context.Context, text, language string) ([]byte, error)
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if m.OnSynthesize != nil {
		return m.OnSynthesize(ctx, text, language)
	}
	return []byte("mp3:" + text), nil
}

var ErrProviderDown = errors.New("provider down")

type embeddingArg = embedding.Embedder
