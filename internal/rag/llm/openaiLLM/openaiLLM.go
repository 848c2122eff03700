package openaiLLM

import (
	"context"
	"errors"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/customHttpClient"
	"github.com/akolanti/DocRAG/internal/rag/llm"
	"github.com/akolanti/DocRAG/pkg/logger_i"
	"github.com/openai/openai-go"
)

type Client struct {
	client openai.Client
	model  string
	logger *logger_i.Logger
}

var _ llm.Provider = (*Client)(nil)

// NewClient targets the chat completions API of any OpenAI compatible server,
// for example Ollama at http://localhost:11434/v1.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		client: customHttpClient.NewOpenAIClient(baseURL, apiKey),
		model:  model,
		logger: logger_i.NewLogger("llm_openai"),
	}
}

func (c *Client) ModelName() string {
	return "openai:" + c.model
}

func (c *Client) Complete(ctx context.Context, prompt string, opts llm.CompletionOptions) (string, error) {
	log := c.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if opts.System != "" {
		messages = append(messages, openai.SystemMessage(opts.System))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       c.model,
		Temperature: openai.Float(opts.Temperature),
	})
	if err != nil {
		log.Error("chat completion failed", "model", c.model, "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	log.Debug("chat completion done", "tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}
