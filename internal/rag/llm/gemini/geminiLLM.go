package gemini

import (
	"context"
	"errors"
	"sync"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/customHttpClient"
	"github.com/akolanti/DocRAG/internal/rag/llm"
	"github.com/akolanti/DocRAG/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var once sync.Once

var _ llm.Provider = (*llmClient)(nil)

func GetGeminiClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, modelName, apikey)
	})

	if geminiClient == nil {
		return nil
	}
	return &llmClient{client: geminiClient.client, modelName: geminiClient.modelName}
}

func newGeminiClient(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apikey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.GetClient(),
	})
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
		return
	}
	geminiClient = &llmClient{client: c, modelName: modelName}
	logger.Info("Gemini client created", "model", modelName)
	go closeClient(ctx)
}

func (c *llmClient) ModelName() string {
	return "gemini:" + c.modelName
}

func (c *llmClient) Complete(ctx context.Context, prompt string, opts llm.CompletionOptions) (string, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)

	contentConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.System != "" {
		contentConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: opts.System}},
		}
	}

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), contentConfig)
	if err != nil {
		log.Error("Gemini generation failed", "error", err)
		return "", err
	}
	if result == nil {
		return "", errors.New("gemini returned no result")
	}
	return result.Text(), nil
}

func closeClient(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
}
