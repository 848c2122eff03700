package customHttpClient

import (
	"github.com/akolanti/DocRAG/internal/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// NewOpenAIClient builds a client for any OpenAI compatible endpoint (OpenAI,
// Ollama's /v1, vLLM) on top of the pooled transport.
func NewOpenAIClient(baseURL, apiKey string) openai.Client {
	return openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(GetClient()),
		option.WithMaxRetries(config.ProviderMaxRetries),
	)
}
