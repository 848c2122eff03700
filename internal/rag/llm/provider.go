package llm

import "context"

// CompletionOptions tune one completion call. An empty System leaves the
// provider's default behaviour.
type CompletionOptions struct {
	Temperature float64
	System      string
}

type Provider interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
	ModelName() string
}
