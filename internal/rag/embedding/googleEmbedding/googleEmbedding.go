package googleEmbedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/DocRAG/internal/adapter/utils"
	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/customHttpClient"
	"github.com/akolanti/DocRAG/internal/rag/embedding"
	"github.com/akolanti/DocRAG/pkg/logger_i"
	"google.golang.org/genai"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var dimension int32 = config.EmbeddingOutputDimensionality

type client struct {
	genAi *genai.Client
	model string
}

var _ embedding.Embedder = (*client)(nil)

func newGoogleEmbedder(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apikey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.GetClient(),
	})
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
		return
	}
	embeddingClient = &client{
		genAi: c,
		model: modelName,
	}
	logger.Info("Google Embedding client created", "model", modelName)
	go closeClient(ctx)
}

func closeClient(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Google Embedding client")
}

func GetGoogleEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		newGoogleEmbedder(ctx, modelName, apikey)
	})

	//if init still fails
	if embeddingClient == nil {
		return nil
	}
	return &client{genAi: embeddingClient.genAi, model: embeddingClient.model}
}

func (c *client) ModelName() string {
	return "gemini:" + c.model
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)
	log.Debug("embedding query", "length", len(query))

	result, err := c.genAi.Models.EmbedContent(ctx, c.model, genai.Text(query), &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             config.EmbeddingTaskQuery,
	})
	if err != nil {
		log.Error("Error getting query embedding from Google", "error", err)
		return nil, err
	}
	if len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, fmt.Errorf("google embedding returned no vectors")
	}
	return result.Embeddings[0].Values, nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string, isLargeDataSet bool) ([][]float32, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)

	if !isLargeDataSet {
		res, err := c.doCall(ctx, getContent(chunks))
		if err != nil && doRetry(err, log) {
			log.Debug("Retrying in 5 seconds")
			time.Sleep(5 * time.Second)
			res, err = c.doCall(ctx, getContent(chunks))
		}
		if err != nil {
			log.Error("Error getting Embeddings from Google", "error", err)
			return nil, err
		}
		embeddingResults := make([][]float32, 0, len(res.Embeddings))
		for _, r := range res.Embeddings {
			embeddingResults = append(embeddingResults, r.Values)
		}
		return embeddingResults, nil
	}

	source := genai.EmbeddingsBatchJobSource{InlinedRequests: getInlinedBatchRequests(chunks)}
	batchJobName := utils.GetNewUUID()

	log = log.With("batchJobName", batchJobName, "chunks", len(chunks))
	conf := genai.CreateEmbeddingsBatchJobConfig{DisplayName: batchJobName}
	created, err := c.genAi.Batches.CreateEmbeddings(ctx, &c.model, &source, &conf)
	if err != nil {
		log.Error("Error creating batch embedding job", "error", err)
		return nil, err
	}

	answer, err := c.pollForAnswer(ctx, created.Name, log)
	if err != nil {
		return nil, err
	}
	return downloadAnswerFromClient(answer, log)
}

func (c *client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             config.EmbeddingTaskDocument,
	})
}
