package qdrantDB

import (
	"context"
	"fmt"
	"sync"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/rag/embedding"
	"github.com/akolanti/DocRAG/internal/rag/vectorDB"
	"github.com/akolanti/DocRAG/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

const (
	metaEmbeddingModel = "embedding_model"
	metaSource         = "source"

	payloadContent = "content"
	payloadPageNum = "page_num"
	payloadOrder   = "chunk_order"
)

var logger *logger_i.Logger
var quadrantInstance *qdrant.Client
var once sync.Once

// ClientHolder stores each document index as its own qdrant collection.
type ClientHolder struct {
	QObj   *qdrant.Client
	prefix string
}

var _ vectorDB.IndexStore = (*ClientHolder)(nil)

func GetQuadrantClient(ctx context.Context, host string, port int, prefix string) *ClientHolder {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient(ctx, host, port)
		if res != nil {
			quadrantInstance = res
			go closeQdrant(ctx, quadrantInstance)
		}
	})

	if quadrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj:   quadrantInstance,
		prefix: prefix,
	}
}

func newClient(ctx context.Context, host string, port int) *qdrant.Client {
	if host == "" {
		logger.Error("QDRANT_HOST is not set")
		return nil
	}
	if port == 0 {
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate", "error", err)
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.QdrantConnectionTimeout)
	defer cancel()
	if _, err := client.ListCollections(pingCtx); err != nil {
		logger.Error("qdrant is unreachable", "host", host, "port", port, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
	logger.Info("Closed Qdrant")
}

func (db *ClientHolder) Create(ctx context.Context, source string, chunks []commonModels.TextChunk, embedder embedding.Embedder) (string, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)
	if len(chunks) == 0 {
		return "", commonModels.ErrEmptyDocument
	}

	vectors, err := vectorDB.EmbedChunks(ctx, embedder, chunks)
	if err != nil {
		return "", err
	}

	collection := vectorDB.NewLocation(db.prefix, source)
	err = db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(len(vectors[0])),
			Distance: qdrant.Distance_Cosine,
		}),
		Metadata: qdrant.NewValueMap(map[string]any{
			metaEmbeddingModel: embedder.ModelName(),
			metaSource:         source,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("qdrant create collection: %w", err)
	}

	if err := db.upsertBatch(ctx, collection, chunks, vectors); err != nil {
		if dropErr := db.QObj.DeleteCollection(ctx, collection); dropErr != nil {
			log.Warn("could not remove partial collection", "collection", collection, "error", dropErr)
		}
		return "", err
	}

	log.Info("collection created", "collection", collection, "chunks", len(chunks))
	return collection, nil
}

func (db *ClientHolder) upsertBatch(ctx context.Context, collectionName string, chunks []commonModels.TextChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	for start := 0; start < len(chunks); start += config.EmbeddingBatchSize {
		end := min(start+config.EmbeddingBatchSize, len(chunks))
		points := make([]*qdrant.PointStruct, 0, end-start)

		for i := start; i < end; i++ {
			chunk := chunks[i]
			points = append(points, &qdrant.PointStruct{
				// chunk order doubles as the point id so scroll returns ingestion order
				Id:      qdrant.NewIDNum(uint64(chunk.Order)),
				Vectors: qdrant.NewVectors(vectors[i]...),
				Payload: qdrant.NewValueMap(map[string]any{
					payloadContent: chunk.Content,
					payloadPageNum: chunk.PageNum,
					payloadOrder:   chunk.Order,
				}),
			})
		}

		_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collectionName,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("qdrant upsert failed: %w", err)
		}
	}
	return nil
}

func (db *ClientHolder) Open(ctx context.Context, location string, embedder embedding.Embedder) (vectorDB.IndexHandle, error) {
	exists, err := db.QObj.CollectionExists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("qdrant collection lookup: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", commonModels.ErrIndexNotFound, location)
	}

	info, err := db.QObj.GetCollectionInfo(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("qdrant collection info: %w", err)
	}
	meta := info.GetConfig().GetMetadata()
	model := meta[metaEmbeddingModel].GetStringValue()
	if model != embedder.ModelName() {
		return nil, fmt.Errorf("%w: collection %s uses %q, embedder is %q",
			commonModels.ErrEmbeddingMismatch, location, model, embedder.ModelName())
	}

	return &collectionHandle{
		client:     db.QObj,
		collection: location,
		source:     meta[metaSource].GetStringValue(),
		embedder:   embedder,
	}, nil
}

func (db *ClientHolder) Drop(ctx context.Context, location string) error {
	if err := db.QObj.DeleteCollection(ctx, location); err != nil {
		return fmt.Errorf("qdrant delete collection %s: %w", location, err)
	}
	logger.WithTrace(ctx, config.TRACE_ID_KEY).Info("collection dropped", "collection", location)
	return nil
}

type collectionHandle struct {
	client     *qdrant.Client
	collection string
	source     string
	embedder   embedding.Embedder
}

func (h *collectionHandle) Location() string {
	return h.collection
}

func (h *collectionHandle) TopK(ctx context.Context, query string, k int, floor float64) ([]commonModels.RetrievedChunk, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)
	if k <= 0 {
		return []commonModels.RetrievedChunk{}, nil
	}
	qv, err := h.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	result, err := h.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: h.collection,
		Query:          qdrant.NewQuery(qv...),
		Limit:          qdrant.PtrOf(uint64(k)),
		ScoreThreshold: qdrant.PtrOf(float32(floor)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		log.Error("Error querying Qdrant", "error", err)
		return nil, err
	}

	out := make([]commonModels.RetrievedChunk, 0, len(result))
	for _, hit := range result {
		out = append(out, commonModels.RetrievedChunk{
			TextChunk: chunkFromPayload(hit.GetPayload()),
			Score:     float64(hit.GetScore()),
			Source:    h.source,
		})
	}
	log.Debug("qdrant matches", "count", len(out))
	return out, nil
}

func (h *collectionHandle) FirstChunks(ctx context.Context, n int) ([]commonModels.TextChunk, error) {
	if n <= 0 {
		return []commonModels.TextChunk{}, nil
	}
	points, err := h.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: h.collection,
		Limit:          qdrant.PtrOf(uint32(min(n, config.QdrantScrollPageSize))),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant scroll: %w", err)
	}

	out := make([]commonModels.TextChunk, 0, len(points))
	for _, p := range points {
		out = append(out, chunkFromPayload(p.GetPayload()))
	}
	return out, nil
}

func chunkFromPayload(payload map[string]*qdrant.Value) commonModels.TextChunk {
	return commonModels.TextChunk{
		Order:   int(payload[payloadOrder].GetIntegerValue()),
		PageNum: int(payload[payloadPageNum].GetIntegerValue()),
		Content: payload[payloadContent].GetStringValue(),
	}
}
