package speech

import "context"

// Synthesizer turns text into encoded audio (mp3).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, language string) ([]byte, error)
}
