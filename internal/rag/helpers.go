package rag

import (
	"context"
	"encoding/base64"
	"math"
	"net/http"
	"time"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/domain/jobModel"
	"github.com/akolanti/DocRAG/internal/metrics"
	"github.com/akolanti/DocRAG/internal/rag/llm"
	"github.com/akolanti/DocRAG/pkg/logger_i"
)

func logOutput(job *jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) {
	job.CurrentStep = status
	log.Debug("ProcessRequest", "Current Status", job.CurrentStep)
}

func (s *service) jobError(job jobModel.Job, err error, message string) jobModel.Job {
	s.logger.Error(message, "error", err, "jobId", job.Id)

	code, canRetry := http.StatusInternalServerError, true
	switch {
	case commonModels.IsNotFound(err):
		code, canRetry = http.StatusNotFound, false
	case commonModels.IsInputError(err):
		code, canRetry = http.StatusBadRequest, false
	}

	job.Error = jobModel.JobError{
		Code:    code,
		Message: err.Error(),
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Failed
	return job
}

func timed(label string) func() {
	start := time.Now()
	return func() { metrics.CaptureExecutionMetrics(label, time.Since(start)) }
}

func (s *service) complete(ctx context.Context, label, prompt string, temperature float64) (string, error) {
	defer timed(label)()
	return s.llmProvider.Complete(ctx, prompt, llm.CompletionOptions{Temperature: temperature})
}

func (s *service) synthesize(ctx context.Context, text string) (string, error) {
	defer timed("speech_synthesis")()
	audio, err := s.speech.Synthesize(ctx, text, s.opts.Language)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(audio), nil
}

// confidenceScore blends mean similarity with evidence breadth:
// 0.7*avg + 0.3*min(used/k, 1), clamped to [0,1] and rounded to 2 places.
// No scores means no confidence.
func confidenceScore(scores []float64, used int, k int) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, sc := range scores {
		sum += sc
	}
	avg := sum / float64(len(scores))

	breadth := 1.0
	if k > 0 {
		breadth = math.Min(float64(used)/float64(k), 1)
	}

	c := config.ConfidenceSimilarity*avg + config.ConfidenceBreadth*breadth
	if math.IsNaN(c) {
		return 0
	}
	c = math.Min(math.Max(c, 0), 1)
	return math.Round(c*100) / 100
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= config.CitationExcerptLimit {
		return text
	}
	return string(runes[:config.CitationExcerptLimit]) + "..."
}

// citations keeps retrieval rank order and numbers from 1.
func citations(chunks []commonModels.RetrievedChunk) []commonModels.Citation {
	out := make([]commonModels.Citation, 0, len(chunks))
	for i, c := range chunks {
		out = append(out, commonModels.Citation{
			Id:             i + 1,
			Text:           excerpt(c.Content),
			Page:           c.PageNum,
			Source:         c.Source,
			RelevanceScore: c.Score,
		})
	}
	return out
}

// sources dedupes source identifiers, first occurrence wins.
func sources(chunks []commonModels.RetrievedChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		out = append(out, c.Source)
	}
	return out
}

func fixedAnswer(text string) commonModels.AnswerResult {
	return commonModels.AnswerResult{
		Answer:     text,
		Confidence: 0,
		Citations:  []commonModels.Citation{},
		Sources:    []string{},
	}
}
