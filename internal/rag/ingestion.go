package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/domain/jobModel"
	"github.com/akolanti/DocRAG/internal/rag/ingest"
)

// Ingest loads, chunks and indexes the file at path, then registers it under
// documentName (the file name when empty). The registry lock is only taken
// for the final swap, after the index has been fully written.
func (s *service) Ingest(ctx context.Context, path string, documentName string) (commonModels.IngestResult, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	defer timed("document_ingestion")()

	name := documentName
	if name == "" {
		name = filepath.Base(path)
	}
	log = log.With("document", name)

	if s.opts.DuplicatePolicy == config.DuplicateReject && s.registry.Exists(name) {
		return commonModels.IngestResult{}, fmt.Errorf("%w: %s", commonModels.ErrDuplicateName, name)
	}

	pages, err := ingest.LoadDocument(path)
	if err != nil {
		return commonModels.IngestResult{}, err
	}
	chunks, err := s.chunker.Split(pages)
	if err != nil {
		return commonModels.IngestResult{}, err
	}
	log.Info("document split", "pages", len(pages), "chunks", len(chunks))

	location, err := s.indexes.Create(ctx, name, chunks, s.embedder)
	if err != nil {
		return commonModels.IngestResult{}, fmt.Errorf("building index: %w", err)
	}

	record := commonModels.DocumentRecord{
		Name:           name,
		SourcePath:     path,
		IndexLocation:  location,
		EmbeddingModel: s.embedder.ModelName(),
		ChunkCount:     len(chunks),
		PageCount:      len(pages),
		CreatedAt:      time.Now().UTC(),
	}
	old, err := s.registry.Register(ctx, record, s.opts.DuplicatePolicy)
	if err != nil {
		if dropErr := s.indexes.Drop(ctx, location); dropErr != nil {
			log.Warn("could not drop rejected index", "location", location, "error", dropErr)
		}
		return commonModels.IngestResult{}, err
	}
	if old != nil {
		s.registry.EvictSuperseded(ctx, *old)
	}

	log.Info("document ingested", "location", location)
	return commonModels.IngestResult{
		Status:        commonModels.StatusSuccess,
		Message:       fmt.Sprintf("Document '%s' processed successfully", name),
		DocumentName:  name,
		Chunks:        len(chunks),
		Pages:         len(pages),
		IndexLocation: location,
	}, nil
}

// IngestDocument runs an ingest job. The uploaded file is removed afterwards.
func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("jobId", job.Id)
	logOutput(&job, jobModel.IngestInit, log)

	path := job.JobPayload.IngestFileName
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("could not remove uploaded file", "path", path, "error", err)
		}
	}()

	logOutput(&job, jobModel.IngestProcessing, log)
	res, err := s.Ingest(ctx, path, job.JobPayload.DocumentName)
	if err != nil {
		return s.jobError(job, err, "INGESTION_FAILURE")
	}
	job.JobPayload.Ingest = &res
	job.CurrentStep = jobModel.Complete
	return job
}
