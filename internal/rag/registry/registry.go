package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/metrics"
	"github.com/akolanti/DocRAG/pkg/logger_i"
)

// Registry maps document names to their records and tracks the current
// document. All methods are safe for concurrent use.
type Registry interface {
	// Register inserts record and makes it current. Under DuplicateSupersede an
	// existing record with the same name is replaced and returned so the caller
	// can evict its index; under DuplicateReject ErrDuplicateName is returned.
	Register(ctx context.Context, record commonModels.DocumentRecord, policy config.DuplicatePolicy) (*commonModels.DocumentRecord, error)
	// Resolve looks up name, or the current document when name is empty.
	Resolve(name string) (commonModels.DocumentRecord, error)
	List() []commonModels.DocumentRecord
	Exists(name string) bool
	// EvictSuperseded drops the index of a replaced record. Failures are logged only.
	EvictSuperseded(ctx context.Context, old commonModels.DocumentRecord)
	// Restore loads records from the persister, if any.
	Restore(ctx context.Context) (int, error)
}

// IndexDropper removes a persisted index by location.
type IndexDropper interface {
	Drop(ctx context.Context, location string) error
}

// Persister mirrors registry state to durable storage.
type Persister interface {
	SaveDocument(ctx context.Context, record commonModels.DocumentRecord) error
	SetCurrent(ctx context.Context, name string) error
	LoadDocuments(ctx context.Context) ([]commonModels.DocumentRecord, string, error)
}

type registry struct {
	mu      sync.RWMutex
	records map[string]commonModels.DocumentRecord
	current string

	indexes   IndexDropper
	persister Persister
	logger    *logger_i.Logger
}

type Option func(*registry)

func WithPersister(p Persister) Option {
	return func(r *registry) {
		r.persister = p
	}
}

func New(indexes IndexDropper, opts ...Option) Registry {
	r := &registry{
		records: make(map[string]commonModels.DocumentRecord),
		indexes: indexes,
		logger:  logger_i.NewLogger("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *registry) Register(ctx context.Context, record commonModels.DocumentRecord, policy config.DuplicatePolicy) (*commonModels.DocumentRecord, error) {
	log := r.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	record = record.Metadata()

	r.mu.Lock()
	old, exists := r.records[record.Name]
	if exists && policy == config.DuplicateReject {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", commonModels.ErrDuplicateName, record.Name)
	}
	r.records[record.Name] = record
	r.current = record.Name
	metrics.SetDocumentCount(len(r.records))
	r.mu.Unlock()

	log.Info("document registered", "name", record.Name, "location", record.IndexLocation, "superseded", exists)
	r.persist(ctx, record)

	if !exists {
		return nil, nil
	}
	return &old, nil
}

// persist is write-through and best effort: the in-memory registry stays authoritative.
func (r *registry) persist(ctx context.Context, record commonModels.DocumentRecord) {
	if r.persister == nil {
		return
	}
	log := r.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	if err := r.persister.SaveDocument(ctx, record); err != nil {
		log.Warn("could not persist document record", "name", record.Name, "error", err)
		return
	}
	if err := r.persister.SetCurrent(ctx, record.Name); err != nil {
		log.Warn("could not persist current document", "name", record.Name, "error", err)
	}
}

func (r *registry) Resolve(name string) (commonModels.DocumentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		if r.current == "" {
			return commonModels.DocumentRecord{}, commonModels.ErrNoDocumentIngested
		}
		return r.records[r.current], nil
	}
	rec, ok := r.records[name]
	if !ok {
		return commonModels.DocumentRecord{}, fmt.Errorf("%w: %s", commonModels.ErrDocumentNotFound, name)
	}
	return rec, nil
}

func (r *registry) List() []commonModels.DocumentRecord {
	r.mu.RLock()
	out := make([]commonModels.DocumentRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[name]
	return ok
}

func (r *registry) EvictSuperseded(ctx context.Context, old commonModels.DocumentRecord) {
	log := r.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	if r.indexes == nil || old.IndexLocation == "" {
		return
	}

	// a racing re-ingest may have produced the same location; never drop a live index
	r.mu.RLock()
	for _, rec := range r.records {
		if rec.IndexLocation == old.IndexLocation {
			r.mu.RUnlock()
			log.Warn("skipping eviction of an index still in use", "location", old.IndexLocation)
			return
		}
	}
	r.mu.RUnlock()

	if err := r.indexes.Drop(ctx, old.IndexLocation); err != nil {
		log.Warn("could not remove superseded index", "name", old.Name, "location", old.IndexLocation, "error", err)
		return
	}
	log.Info("superseded index removed", "name", old.Name, "location", old.IndexLocation)
}

// Restore loads persisted records. Called once at startup before serving.
func (r *registry) Restore(ctx context.Context) (int, error) {
	if r.persister == nil {
		return 0, nil
	}
	records, current, err := r.persister.LoadDocuments(ctx)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.records[rec.Name] = rec
	}
	if _, ok := r.records[current]; ok {
		r.current = current
	}
	metrics.SetDocumentCount(len(r.records))
	return len(records), nil
}
