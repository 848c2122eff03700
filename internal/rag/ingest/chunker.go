package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/akolanti/DocRAG/internal/domain/commonModels"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Separators ordered from "best" to "worst" for semantic meaning
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits page text into windows of at most size characters. Each window
// starts overlap characters before the end of its predecessor on the same page.
type Chunker struct {
	size    int
	overlap int
}

type Option func(*Chunker)

func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

func NewChunker(opts ...Option) *Chunker {
	c := &Chunker{
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks every page in order. Chunk order is global across pages, page
// numbers are carried through unchanged.
func (c *Chunker) Split(pages []commonModels.RawPage) ([]commonModels.TextChunk, error) {
	var chunks []commonModels.TextChunk
	for _, page := range pages {
		if strings.TrimSpace(page.Content) == "" {
			continue
		}
		for _, text := range c.splitText(page.Content) {
			chunks = append(chunks, commonModels.TextChunk{
				Order:   len(chunks),
				Content: text,
				PageNum: page.Number,
			})
		}
	}
	if len(chunks) == 0 {
		return nil, commonModels.ErrEmptyDocument
	}
	return chunks, nil
}

func (c *Chunker) splitText(text string) []string {
	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + c.size
		if end >= len(runes) {
			return append(chunks, string(runes[start:]))
		}
		cut := c.findBreak(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))
		start = cut - c.overlap
	}
}

// findBreak picks the cut for the window [start, end). It looks for the last
// separator in the back half of the window and falls back to a hard cut at end.
// The result is always > start+overlap so the next window moves forward.
func (c *Chunker) findBreak(runes []rune, start, end int) int {
	lo := start + max(c.overlap+1, c.size/2)
	if lo >= end {
		return end
	}
	window := string(runes[lo:end])
	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx >= 0 {
			return lo + utf8.RuneCountInString(window[:idx+len(sep)])
		}
	}
	return end
}
