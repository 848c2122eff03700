package rag

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/rag/graph"
	"github.com/akolanti/DocRAG/internal/rag/prompts"
)

// firstChunks reads the first n stored chunks of the resolved document.
func (s *service) firstChunks(ctx context.Context, documentName string, n int) (commonModels.DocumentRecord, []commonModels.TextChunk, error) {
	record, err := s.registry.Resolve(documentName)
	if err != nil {
		return record, nil, err
	}
	handle, err := s.openIndex(ctx, record)
	if err != nil {
		return record, nil, err
	}
	chunks, err := handle.FirstChunks(ctx, n)
	return record, chunks, err
}

func (s *service) Summarize(ctx context.Context, documentName string) (commonModels.Summary, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	record, chunks, err := s.firstChunks(ctx, documentName, config.SummaryChunkCount)
	if commonModels.IsNotFound(err) {
		return commonModels.Summary{}, err
	}
	if err != nil {
		log.Error("summary retrieval failed", "error", err)
		return summaryError("Error generating summary: " + err.Error()), nil
	}
	if len(chunks) == 0 {
		return summaryError("No content found in document"), nil
	}

	text, err := s.complete(ctx, "llm_summary", prompts.Summary(chunks), config.SummaryTemperature)
	if err != nil {
		log.Error("summary generation failed", "error", err)
		return summaryError("Error generating summary: " + err.Error()), nil
	}

	return commonModels.Summary{
		Status:       commonModels.StatusSuccess,
		Summary:      strings.TrimSpace(text),
		DocumentName: record.Name,
		ChunkCount:   record.ChunkCount,
		PageCount:    record.PageCount,
		GeneratedAt:  float64(time.Now().UnixNano()) / float64(time.Second),
	}, nil
}

func summaryError(message string) commonModels.Summary {
	return commonModels.Summary{Status: commonModels.StatusError, Message: message}
}

// KnowledgeGraph always yields nodes and links. Only an unknown document name
// is reported as an error; every other failure becomes a sentinel graph.
func (s *service) KnowledgeGraph(ctx context.Context, documentName string) (commonModels.KnowledgeGraph, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	_, chunks, err := s.firstChunks(ctx, documentName, config.GraphChunkCount)
	switch {
	case errors.Is(err, commonModels.ErrDocumentNotFound):
		return commonModels.KnowledgeGraph{}, err
	case errors.Is(err, commonModels.ErrNoDocumentIngested):
		return graph.NoData(), nil
	case err != nil:
		log.Error("graph retrieval failed", "error", err)
		return graph.Failure(), nil
	case len(chunks) == 0:
		return graph.NoData(), nil
	}

	raw, err := s.complete(ctx, "llm_graph", prompts.Graph(chunks), config.GraphTemperature)
	if err != nil {
		log.Error("graph generation failed", "error", err)
		return graph.Failure(), nil
	}

	g, ok := graph.Parse(raw)
	if !ok {
		log.Warn("could not parse graph response, returning placeholder")
	}
	log.Info("graph generated", "nodes", len(g.Nodes), "links", len(g.Links))
	return g, nil
}

// Podcast never returns a script without audio.
func (s *service) Podcast(ctx context.Context, documentName string) (*commonModels.Podcast, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	_, chunks, err := s.firstChunks(ctx, documentName, config.PodcastChunkCount)
	switch {
	case errors.Is(err, commonModels.ErrDocumentNotFound):
		return nil, err
	case err != nil:
		log.Warn("podcast retrieval failed", "error", err)
		return nil, nil
	case len(chunks) == 0:
		return nil, nil
	}
	if s.speech == nil {
		log.Warn("podcast requested but no synthesizer is configured")
		return nil, nil
	}

	script, err := s.complete(ctx, "llm_podcast", prompts.Podcast(chunks), config.PodcastTemperature)
	script = strings.TrimSpace(script)
	if err != nil || script == "" {
		log.Error("podcast script generation failed", "error", err)
		return nil, nil
	}

	audio, err := s.synthesize(ctx, script)
	if err != nil {
		log.Error("podcast audio synthesis failed", "error", err)
		return nil, nil
	}
	return &commonModels.Podcast{Audio: audio, Text: script}, nil
}
