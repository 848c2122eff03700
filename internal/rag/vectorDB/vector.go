package vectorDB

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/rag/embedding"
)

// IndexStore owns one independent vector index per ingested document.
// Create never touches an existing index; every call yields a fresh location.
type IndexStore interface {
	Create(ctx context.Context, source string, chunks []commonModels.TextChunk, embedder embedding.Embedder) (string, error)
	Open(ctx context.Context, location string, embedder embedding.Embedder) (IndexHandle, error)
	Drop(ctx context.Context, location string) error
}

// IndexHandle reads a single opened index.
type IndexHandle interface {
	// TopK returns at most k chunks by descending similarity. Chunks scoring
	// below floor are dropped, so the result may be empty.
	TopK(ctx context.Context, query string, k int, floor float64) ([]commonModels.RetrievedChunk, error)
	// FirstChunks returns the first n chunks in ingestion order.
	FirstChunks(ctx context.Context, n int) ([]commonModels.TextChunk, error)
	Location() string
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

var lastStamp atomic.Int64

// NewLocation names an index after its document and the ingestion time, e.g.
// db_storage_annual_report_pdf_1712345678901234567.
func NewLocation(prefix, source string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(source), "_"), "_")
	if slug == "" {
		slug = "doc"
	}
	if len(slug) > 48 {
		slug = slug[:48]
	}
	return fmt.Sprintf("%s_%s_%d", prefix, slug, nextStamp())
}

// nextStamp is the current unix nano time, bumped so no two calls share a value.
func nextStamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := lastStamp.Load()
		if now <= last {
			now = last + 1
		}
		if lastStamp.CompareAndSwap(last, now) {
			return now
		}
	}
}

// EmbedChunks embeds chunk texts in batches of config.EmbeddingBatchSize.
func EmbedChunks(ctx context.Context, embedder embedding.Embedder, chunks []commonModels.TextChunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	isHuge := len(chunks) > config.EmbeddingBatchSize*10

	for start := 0; start < len(chunks); start += config.EmbeddingBatchSize {
		end := min(start+config.EmbeddingBatchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}

		batch, err := embedder.BatchEmbedding(ctx, texts, isHuge)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// CosineSimilarity returns 0 for mismatched or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
