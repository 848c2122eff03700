package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/data/redisStore"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/rag/registry"
	"github.com/akolanti/DocRAG/pkg/logger_i"
)

// RedisDocumentStore persists the document catalog: one hash field per record
// plus a key holding the current document name.
type RedisDocumentStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

var _ registry.Persister = (*RedisDocumentStore)(nil)

// GetRedisDocumentStore returns nil when redis is unreachable.
func GetRedisDocumentStore(ctx context.Context, opts redisStore.Options) *RedisDocumentStore {
	s := redisStore.GetRedisStore(ctx, opts, config.RedisDocumentStore)
	if s == nil {
		return nil
	}
	return NewRedisDocumentStore(s)
}

func NewRedisDocumentStore(store *redisStore.Store) *RedisDocumentStore {
	return &RedisDocumentStore{
		store:  store,
		logger: logger_i.NewLogger("document_store"),
	}
}

func (s *RedisDocumentStore) SaveDocument(ctx context.Context, record commonModels.DocumentRecord) error {
	data, err := json.Marshal(record.Metadata())
	if err != nil {
		return err
	}
	return s.store.HashSet(ctx, config.RedisDocumentHashKey, record.Name, data)
}

func (s *RedisDocumentStore) SetCurrent(ctx context.Context, name string) error {
	return s.store.Set(ctx, config.RedisCurrentDocKey, name, 0)
}

// LoadDocuments skips records that no longer decode.
func (s *RedisDocumentStore) LoadDocuments(ctx context.Context) ([]commonModels.DocumentRecord, string, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	fields, err := s.store.HashGetAll(ctx, config.RedisDocumentHashKey)
	if err != nil {
		return nil, "", fmt.Errorf("loading document catalog: %w", err)
	}

	records := make([]commonModels.DocumentRecord, 0, len(fields))
	for name, raw := range fields {
		var rec commonModels.DocumentRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			log.Warn("skipping unreadable document record", "name", name, "error", err)
			continue
		}
		records = append(records, rec)
	}

	current, err := s.store.Get(ctx, config.RedisCurrentDocKey)
	if err != nil && !s.store.IsNil(err) {
		return nil, "", fmt.Errorf("loading current document: %w", err)
	}
	return records, current, nil
}
