package googleEmbedding

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const batchPollInterval = 30 * time.Second

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))

	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

func doRetry(err error, log *logger_i.Logger) bool {
	if s, ok := status.FromError(err); ok {
		if s.Code() == codes.ResourceExhausted {
			log.Warn("Rate limit hit", "error", err)
			return true
		}
	}
	return false
}

func getInlinedBatchRequests(chunks []string) *genai.EmbedContentBatch {
	conf := genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             config.EmbeddingTaskDocument,
	}
	return &genai.EmbedContentBatch{
		Config:   &conf,
		Contents: getContent(chunks),
	}
}

func (c *client) pollForAnswer(ctx context.Context, batchJobName string, log *logger_i.Logger) (*genai.BatchJob, error) {
	ticker := time.NewTicker(batchPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Error("pollForAnswer cancelled", "error", ctx.Err())
			return nil, ctx.Err()

		case <-ticker.C:
			bJob, err := c.genAi.Batches.Get(ctx, batchJobName, nil)
			if err != nil {
				log.Warn("Error getting batch job", "error", err)
				continue
			}

			switch bJob.State {
			case genai.JobStateSucceeded:
				log.Debug("batch job succeeded")
				return bJob, nil
			case genai.JobStateFailed, genai.JobStateCancelled, genai.JobStateExpired, genai.JobStatePartiallySucceeded:
				log.Error("batch job ended without results", "state", bJob.State)
				return nil, fmt.Errorf("embedding batch job %s ended in state %s", batchJobName, bJob.State)
			}
			//all other states we wait for the context to expire or the job to end
		}
	}
}

// every chunk must come back with a vector, a partial batch cannot be indexed
func downloadAnswerFromClient(answer *genai.BatchJob, log *logger_i.Logger) ([][]float32, error) {
	if answer.Dest == nil {
		return nil, fmt.Errorf("batch job has no destination")
	}
	res := answer.Dest.InlinedEmbedContentResponses
	results := make([][]float32, 0, len(res))

	for i, r := range res {
		if r == nil || r.Error != nil || r.Response == nil || r.Response.Embedding == nil {
			log.Error("Error with a particular result in batch embedding", "index", i)
			return nil, fmt.Errorf("batch embedding result %d missing", i)
		}
		results = append(results, r.Response.Embedding.Values)
	}
	return results, nil
}
