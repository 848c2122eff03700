package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/domain/jobModel"
	"github.com/akolanti/DocRAG/internal/metrics"
	"github.com/akolanti/DocRAG/internal/rag/prompts"
	"github.com/akolanti/DocRAG/internal/rag/vectorDB"
	"github.com/akolanti/DocRAG/pkg/logger_i"
)

const (
	NoDocumentAnswer = "No documents have been uploaded yet. Please upload a document first."
	NoMatchAnswer    = "I couldn't find relevant information to answer your question in the uploaded documents."
	failureAnswer    = "I encountered an error while processing your question: %s"
)

func (s *service) Ask(ctx context.Context, query string, documentName string, voice bool) (commonModels.AnswerResult, error) {
	job := jobModel.Job{
		JobType: jobModel.JobTypeQuery,
		JobPayload: jobModel.JobPayload{
			Question:     query,
			DocumentName: documentName,
			VoiceMode:    voice,
		},
	}
	return s.answer(ctx, &job)
}

func (s *service) ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job {
	res, err := s.answer(ctx, &job)
	if err != nil {
		return s.jobError(job, err, "QUERY_REJECTED")
	}
	job.JobPayload.Answer = &res
	job.CurrentStep = jobModel.Complete
	return job
}

// answer walks ResolveTarget, Retrieve, Synthesize, ScoreConfidence,
// ExtractCitations and optionally SynthesizeAudio, recording each step on job.
func (s *service) answer(ctx context.Context, job *jobModel.Job) (commonModels.AnswerResult, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("jobId", job.Id)
	defer timed("ask_total")()
	logOutput(job, jobModel.QueryInit, log)

	query := strings.TrimSpace(job.JobPayload.Question)
	if query == "" {
		return commonModels.AnswerResult{}, commonModels.ErrEmptyQuery
	}

	record, err := s.executeResolveStep(log, job)
	if errors.Is(err, commonModels.ErrNoDocumentIngested) {
		return fixedAnswer(NoDocumentAnswer), nil
	}
	if err != nil {
		return commonModels.AnswerResult{}, err
	}

	chunks, err := s.executeRetrieveStep(ctx, log, job, record, query)
	if err != nil {
		return s.failed(log, job, err), nil
	}
	if len(chunks) == 0 {
		return fixedAnswer(NoMatchAnswer), nil
	}

	text, err := s.executeSynthesizeStep(ctx, log, job, chunks, query)
	if err != nil {
		return s.failed(log, job, err), nil
	}

	result := commonModels.AnswerResult{Answer: text}
	s.executeScoreStep(log, job, &result, chunks)
	s.executeCitationStep(log, job, &result, chunks)
	if job.JobPayload.VoiceMode {
		s.executeAudioStep(ctx, log, job, &result)
	}

	log.Info("query answered", "document", record.Name, "confidence", result.Confidence, "sources", result.SourceCount)
	return result, nil
}

func (s *service) failed(log *logger_i.Logger, job *jobModel.Job, err error) commonModels.AnswerResult {
	logOutput(job, jobModel.Failed, log)
	log.Error("query failed", "error", err)
	return fixedAnswer(fmt.Sprintf(failureAnswer, err.Error()))
}

func (s *service) executeResolveStep(log *logger_i.Logger, job *jobModel.Job) (commonModels.DocumentRecord, error) {
	logOutput(job, jobModel.ResolveTarget, log)
	return s.registry.Resolve(job.JobPayload.DocumentName)
}

func (s *service) openIndex(ctx context.Context, record commonModels.DocumentRecord) (vectorDB.IndexHandle, error) {
	return s.indexes.Open(ctx, record.IndexLocation, s.embedder)
}

func (s *service) executeRetrieveStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, record commonModels.DocumentRecord, query string) ([]commonModels.RetrievedChunk, error) {
	logOutput(job, jobModel.Retrieve, log)
	defer timed("vector_search")()

	handle, err := s.openIndex(ctx, record)
	if err != nil {
		return nil, err
	}
	return handle.TopK(ctx, query, s.opts.RetrievalK, s.opts.ScoreFloor)
}

func (s *service) executeSynthesizeStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, chunks []commonModels.RetrievedChunk, query string) (string, error) {
	logOutput(job, jobModel.Synthesize, log)
	return s.complete(ctx, "llm_generation", prompts.Answer(chunks, query), s.opts.Temperature)
}

func (s *service) executeScoreStep(log *logger_i.Logger, job *jobModel.Job, result *commonModels.AnswerResult, chunks []commonModels.RetrievedChunk) {
	logOutput(job, jobModel.ScoreConfidence, log)
	scores := make([]float64, 0, len(chunks))
	for _, c := range chunks {
		scores = append(scores, c.Score)
	}
	result.Confidence = confidenceScore(scores, len(chunks), s.opts.RetrievalK)
	result.SourceCount = len(chunks)
	metrics.CaptureAnswerConfidence(result.Confidence)
}

func (s *service) executeCitationStep(log *logger_i.Logger, job *jobModel.Job, result *commonModels.AnswerResult, chunks []commonModels.RetrievedChunk) {
	logOutput(job, jobModel.ExtractCitations, log)
	result.Citations = citations(chunks)
	result.Sources = sources(chunks)
}

// executeAudioStep leaves the answer untouched when synthesis fails.
func (s *service) executeAudioStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, result *commonModels.AnswerResult) {
	logOutput(job, jobModel.SynthesizeAudio, log)
	if s.speech == nil {
		log.Warn("voice mode requested but no synthesizer is configured")
		return
	}
	audio, err := s.synthesize(ctx, result.Answer)
	if err != nil {
		log.Warn("audio synthesis failed, returning text only", "error", err)
		return
	}
	result.Audio = audio
}
