package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/data/redisStore"
	"github.com/akolanti/DocRAG/internal/data/store"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/rag/registry"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocumentStore(t *testing.T) (*store.RedisDocumentStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return store.NewRedisDocumentStore(redisStore.NewTestStore(client)), mr
}

func TestRedisDocumentStore_Roundtrip(t *testing.T) {
	ctx := context.Background()
	docs, mr := newDocumentStore(t)

	rec := commonModels.DocumentRecord{
		Name:           "report.pdf",
		SourcePath:     "/tmp/upload-1.pdf",
		IndexLocation:  "db_storage_report_pdf_1",
		EmbeddingModel: "openai:nomic-embed-text",
		ChunkCount:     12,
		PageCount:      3,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, docs.SaveDocument(ctx, rec))
	require.NoError(t, docs.SetCurrent(ctx, rec.Name))

	loaded, current, err := docs.LoadDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", current)
	require.Len(t, loaded, 1)
	assert.Equal(t, rec.IndexLocation, loaded[0].IndexLocation)
	assert.Empty(t, loaded[0].SourcePath, "source path is ephemeral")
	assert.True(t, rec.CreatedAt.Equal(loaded[0].CreatedAt))

	mr.HSet(config.RedisDocumentHashKey, "broken.pdf", "{oops")
	loaded, _, err = docs.LoadDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	rec.IndexLocation = "db_storage_report_pdf_2"
	require.NoError(t, docs.SaveDocument(ctx, rec))
	loaded, _, err = docs.LoadDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "db_storage_report_pdf_2", loaded[0].IndexLocation)
}

func TestRedisDocumentStore_Empty(t *testing.T) {
	docs, _ := newDocumentStore(t)
	loaded, current, err := docs.LoadDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
	assert.Empty(t, current)
}

func TestRedisDocumentStore_RegistryRestore(t *testing.T) {
	ctx := context.Background()
	docs, _ := newDocumentStore(t)

	first := registry.New(nil, registry.WithPersister(docs))
	_, err := first.Register(ctx, commonModels.DocumentRecord{Name: "a.pdf", IndexLocation: "loc_a"}, config.DuplicateSupersede)
	require.NoError(t, err)
	_, err = first.Register(ctx, commonModels.DocumentRecord{Name: "b.pdf", IndexLocation: "loc_b"}, config.DuplicateSupersede)
	require.NoError(t, err)

	restored := registry.New(nil, registry.WithPersister(docs))
	n, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cur, err := restored.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "b.pdf", cur.Name)
	assert.Equal(t, "loc_b", cur.IndexLocation)
}
