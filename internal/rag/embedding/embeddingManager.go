package embedding

import "context"

// Embedder turns text into vectors. ModelName identifies the vector space so an
// index built with one model is never queried with another.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string, isHugeDataSet bool) ([][]float32, error)
	ModelName() string
}
