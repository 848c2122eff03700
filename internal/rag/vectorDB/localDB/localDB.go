package localDB

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/internal/rag/embedding"
	"github.com/akolanti/DocRAG/internal/rag/vectorDB"
	"github.com/akolanti/DocRAG/pkg/logger_i"
)

const schema = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE chunks (
	chunk_order INTEGER PRIMARY KEY,
	page_num    INTEGER NOT NULL,
	content     TEXT NOT NULL,
	vector      BLOB NOT NULL
);`

// Store keeps every index in its own directory holding one sqlite file.
// Opened indexes are cached in memory until dropped.
type Store struct {
	prefix string
	logger *logger_i.Logger

	mu     sync.Mutex
	opened map[string]*handle
}

var _ vectorDB.IndexStore = (*Store)(nil)

// NewStore places index directories at <prefix>_<document>_<timestamp>. The
// prefix may contain a parent directory.
func NewStore(prefix string) *Store {
	return &Store{
		prefix: prefix,
		logger: logger_i.NewLogger("local_index"),
		opened: make(map[string]*handle),
	}
}

func (s *Store) Create(ctx context.Context, source string, chunks []commonModels.TextChunk, embedder embedding.Embedder) (string, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	if len(chunks) == 0 {
		return "", commonModels.ErrEmptyDocument
	}

	vectors, err := vectorDB.EmbedChunks(ctx, embedder, chunks)
	if err != nil {
		return "", err
	}

	location := vectorDB.NewLocation(s.prefix, source)
	if err := os.MkdirAll(filepath.Dir(location), 0o755); err != nil {
		return "", fmt.Errorf("create index parent: %w", err)
	}
	if err := os.Mkdir(location, 0o755); err != nil {
		return "", fmt.Errorf("create index directory: %w", err)
	}

	if err := writeIndex(ctx, location, source, embedder.ModelName(), chunks, vectors); err != nil {
		if rmErr := os.RemoveAll(location); rmErr != nil {
			log.Warn("could not remove partial index", "location", location, "error", rmErr)
		}
		return "", err
	}

	log.Info("index created", "location", location, "chunks", len(chunks))
	return location, nil
}

func writeIndex(ctx context.Context, location, source, model string, chunks []commonModels.TextChunk, vectors [][]float32) error {
	db, err := sql.Open("sqlite", filepath.Join(location, config.LocalIndexFileName))
	if err != nil {
		return fmt.Errorf("opening index database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating index schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index transaction: %w", err)
	}
	defer tx.Rollback()

	meta := map[string]string{
		"embedding_model": model,
		"source":          source,
		"created_at":      time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("writing index metadata: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (chunk_order, page_num, content, vector) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.Order, c.PageNum, c.Content, serializeVector(vectors[i])); err != nil {
			return fmt.Errorf("writing chunk %d: %w", c.Order, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Open(ctx context.Context, location string, embedder embedding.Embedder) (vectorDB.IndexHandle, error) {
	s.mu.Lock()
	h, ok := s.opened[location]
	s.mu.Unlock()

	if !ok {
		var err error
		h, err = loadIndex(ctx, location)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.opened[location] = h
		s.mu.Unlock()
	}

	if h.model != embedder.ModelName() {
		return nil, fmt.Errorf("%w: index %s uses %q, embedder is %q",
			commonModels.ErrEmbeddingMismatch, location, h.model, embedder.ModelName())
	}
	return &boundHandle{handle: h, embedder: embedder}, nil
}

func loadIndex(ctx context.Context, location string) (*handle, error) {
	path := filepath.Join(location, config.LocalIndexFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", commonModels.ErrIndexNotFound, location)
		}
		return nil, fmt.Errorf("stat index: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	defer db.Close()

	h := &handle{location: location}
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("reading index metadata: %w", err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning index metadata: %w", err)
		}
		switch k {
		case "embedding_model":
			h.model = v
		case "source":
			h.source = v
		}
	}
	rows.Close()

	rows, err = db.QueryContext(ctx, `SELECT chunk_order, page_num, content, vector FROM chunks ORDER BY chunk_order`)
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e entry
		var blob []byte
		if err := rows.Scan(&e.chunk.Order, &e.chunk.PageNum, &e.chunk.Content, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		e.vector = deserializeVector(blob)
		h.entries = append(h.entries, e)
	}
	return h, rows.Err()
}

func (s *Store) Drop(ctx context.Context, location string) error {
	s.mu.Lock()
	delete(s.opened, location)
	s.mu.Unlock()

	if err := os.RemoveAll(location); err != nil {
		return fmt.Errorf("removing index %s: %w", location, err)
	}
	s.logger.WithTrace(ctx, config.TRACE_ID_KEY).Info("index dropped", "location", location)
	return nil
}

type entry struct {
	chunk  commonModels.TextChunk
	vector []float32
}

// handle is the immutable in-memory copy of one index file.
type handle struct {
	location string
	model    string
	source   string
	entries  []entry
}

type boundHandle struct {
	*handle
	embedder embedding.Embedder
}

func (h *boundHandle) Location() string {
	return h.location
}

func (h *boundHandle) TopK(ctx context.Context, query string, k int, floor float64) ([]commonModels.RetrievedChunk, error) {
	if k <= 0 || len(h.entries) == 0 {
		return []commonModels.RetrievedChunk{}, nil
	}
	qv, err := h.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	scored := make([]commonModels.RetrievedChunk, 0, len(h.entries))
	for _, e := range h.entries {
		score := vectorDB.CosineSimilarity(qv, e.vector)
		if score < floor {
			continue
		}
		scored = append(scored, commonModels.RetrievedChunk{TextChunk: e.chunk, Score: score, Source: h.source})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (h *boundHandle) FirstChunks(_ context.Context, n int) ([]commonModels.TextChunk, error) {
	n = min(max(n, 0), len(h.entries))
	out := make([]commonModels.TextChunk, 0, n)
	for _, e := range h.entries[:n] {
		out = append(out, e.chunk)
	}
	return out, nil
}

// serializeVector converts a float32 slice to little-endian bytes.
func serializeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func deserializeVector(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
