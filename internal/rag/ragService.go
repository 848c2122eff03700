package rag

import (
	"context"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/domain/jobModel"
	"github.com/akolanti/DocRAG/internal/rag/embedding"
	"github.com/akolanti/DocRAG/internal/rag/ingest"
	"github.com/akolanti/DocRAG/internal/rag/llm"
	"github.com/akolanti/DocRAG/internal/rag/registry"
	"github.com/akolanti/DocRAG/internal/rag/speech"
	"github.com/akolanti/DocRAG/internal/rag/vectorDB"
	"github.com/akolanti/DocRAG/pkg/logger_i"
)

/*
Service is the public contract used by the HTTP handlers, the MCP tools and
the worker pool. The private service struct holds the collaborators (index
store, registry, model providers) so callers never reach them directly and
tests can swap any of them for mocks through NewService.
*/
type Service interface {
	Ingest(ctx context.Context, path string, documentName string) (commonModels.IngestResult, error)
	// Ask never fails on infrastructure problems; those produce a zero
	// confidence answer. Errors are returned only for an empty query or an
	// unknown document name.
	Ask(ctx context.Context, query string, documentName string, voice bool) (commonModels.AnswerResult, error)
	Summarize(ctx context.Context, documentName string) (commonModels.Summary, error)
	KnowledgeGraph(ctx context.Context, documentName string) (commonModels.KnowledgeGraph, error)
	// Podcast returns nil when there is nothing to narrate or synthesis fails.
	Podcast(ctx context.Context, documentName string) (*commonModels.Podcast, error)
	ListDocuments() []commonModels.DocumentRecord
	GetDocument(name string) (commonModels.DocumentRecord, error)

	ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
}

// Options carry the tunables taken from config.Settings.
type Options struct {
	RetrievalK      int
	ScoreFloor      float64
	Temperature     float64
	DuplicatePolicy config.DuplicatePolicy
	Language        string
}

func OptionsFromSettings(s config.Settings) Options {
	return Options{
		RetrievalK:      s.RetrievalK,
		ScoreFloor:      s.RetrievalScoreFloor,
		Temperature:     s.LLMTemperature,
		DuplicatePolicy: s.DuplicatePolicy,
		Language:        s.TTSLanguage,
	}
}

// Dependencies wires the engine. Speech may be nil, which disables audio.
type Dependencies struct {
	Indexes  vectorDB.IndexStore
	Registry registry.Registry
	LLM      llm.Provider
	Embedder embedding.Embedder
	Speech   speech.Synthesizer
	Chunker  *ingest.Chunker
}

type service struct {
	indexes     vectorDB.IndexStore
	registry    registry.Registry
	llmProvider llm.Provider
	embedder    embedding.Embedder
	speech      speech.Synthesizer
	chunker     *ingest.Chunker
	opts        Options
	logger      *logger_i.Logger
}

func NewService(deps Dependencies, opts Options) Service {
	if opts.RetrievalK <= 0 {
		opts.RetrievalK = 5
	}
	if opts.DuplicatePolicy == "" {
		opts.DuplicatePolicy = config.DuplicateSupersede
	}
	chunker := deps.Chunker
	if chunker == nil {
		chunker = ingest.NewChunker()
	}
	return &service{
		indexes:     deps.Indexes,
		registry:    deps.Registry,
		llmProvider: deps.LLM,
		embedder:    deps.Embedder,
		speech:      deps.Speech,
		chunker:     chunker,
		opts:        opts,
		logger:      logger_i.NewLogger("rag_service"),
	}
}

func (s *service) ListDocuments() []commonModels.DocumentRecord {
	return s.registry.List()
}

func (s *service) GetDocument(name string) (commonModels.DocumentRecord, error) {
	return s.registry.Resolve(name)
}
