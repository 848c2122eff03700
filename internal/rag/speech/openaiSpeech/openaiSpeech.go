package openaiSpeech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/customHttpClient"
	"github.com/akolanti/DocRAG/internal/rag/speech"
	"github.com/akolanti/DocRAG/pkg/logger_i"
	"github.com/openai/openai-go"
)

type Synthesizer struct {
	client openai.Client
	model  string
	voice  string
	logger *logger_i.Logger
}

var _ speech.Synthesizer = (*Synthesizer)(nil)

func NewSynthesizer(baseURL, apiKey, model, voice string) *Synthesizer {
	return &Synthesizer{
		client: customHttpClient.NewOpenAIClient(baseURL, apiKey),
		model:  model,
		voice:  voice,
		logger: logger_i.NewLogger("speech_openai"),
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string, language string) ([]byte, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("nothing to synthesize")
	}

	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          s.model,
		Voice:          openai.AudioSpeechNewParamsVoice(s.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	}
	if language != "" {
		params.Instructions = openai.String("Speak in the language with code " + language + ".")
	}

	resp, err := s.client.Audio.Speech.New(ctx, params)
	if err != nil {
		log.Error("speech request failed", "error", err)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech request returned %s", resp.Status)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech body: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech response was empty")
	}
	log.Debug("speech synthesized", "bytes", len(audio))
	return audio, nil
}
