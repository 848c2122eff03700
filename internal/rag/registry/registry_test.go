package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDropper struct {
	mu      sync.Mutex
	dropped []string
	OnDrop  func(ctx context.Context, location string) error
}

func (m *mockDropper) Drop(ctx context.Context, location string) error {
	m.mu.Lock()
	m.dropped = append(m.dropped, location)
	m.mu.Unlock()
	if m.OnDrop != nil {
		return m.OnDrop(ctx, location)
	}
	return nil
}

type memPersister struct {
	records map[string]commonModels.DocumentRecord
	current string
}

func (p *memPersister) SaveDocument(_ context.Context, r commonModels.DocumentRecord) error {
	p.records[r.Name] = r
	return nil
}

func (p *memPersister) SetCurrent(_ context.Context, name string) error {
	p.current = name
	return nil
}

func (p *memPersister) LoadDocuments(_ context.Context) ([]commonModels.DocumentRecord, string, error) {
	out := make([]commonModels.DocumentRecord, 0, len(p.records))
	for _, r := range p.records {
		out = append(out, r)
	}
	return out, p.current, nil
}

func record(name, loc string) commonModels.DocumentRecord {
	return commonModels.DocumentRecord{
		Name:          name,
		SourcePath:    "/tmp/" + name,
		IndexLocation: loc,
		ChunkCount:    3,
		PageCount:     1,
		CreatedAt:     time.Now(),
	}
}

func TestResolve_Empty(t *testing.T) {
	r := New(nil)
	_, err := r.Resolve("")
	assert.True(t, errors.Is(err, commonModels.ErrNoDocumentIngested))

	_, err = r.Resolve("missing.pdf")
	assert.True(t, errors.Is(err, commonModels.ErrDocumentNotFound))
}

func TestRegister_SetsCurrent(t *testing.T) {
	ctx := context.Background()
	r := New(nil)

	_, err := r.Register(ctx, record("a.pdf", "loc_a"), config.DuplicateSupersede)
	require.NoError(t, err)
	_, err = r.Register(ctx, record("b.pdf", "loc_b"), config.DuplicateSupersede)
	require.NoError(t, err)

	cur, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "b.pdf", cur.Name)
	assert.Empty(t, cur.SourcePath)

	a, err := r.Resolve("a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "loc_a", a.IndexLocation)
	assert.True(t, r.Exists("a.pdf"))
}

func TestRegister_Supersede(t *testing.T) {
	ctx := context.Background()
	dropper := &mockDropper{}
	r := New(dropper)

	_, err := r.Register(ctx, record("a.pdf", "loc_1"), config.DuplicateSupersede)
	require.NoError(t, err)
	old, err := r.Register(ctx, record("a.pdf", "loc_2"), config.DuplicateSupersede)
	require.NoError(t, err)
	require.NotNil(t, old)
	assert.Equal(t, "loc_1", old.IndexLocation)

	r.EvictSuperseded(ctx, *old)
	assert.Equal(t, []string{"loc_1"}, dropper.dropped)

	cur, err := r.Resolve("a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "loc_2", cur.IndexLocation)
	assert.Len(t, r.List(), 1)
}

func TestRegister_Reject(t *testing.T) {
	ctx := context.Background()
	r := New(nil)

	_, err := r.Register(ctx, record("a.pdf", "loc_1"), config.DuplicateReject)
	require.NoError(t, err)
	_, err = r.Register(ctx, record("a.pdf", "loc_2"), config.DuplicateReject)
	assert.True(t, errors.Is(err, commonModels.ErrDuplicateName))

	cur, err := r.Resolve("a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "loc_1", cur.IndexLocation)
}

func TestEvictSuperseded_FailureIsNotFatal(t *testing.T) {
	dropper := &mockDropper{OnDrop: func(context.Context, string) error { return errors.New("disk busy") }}
	r := New(dropper)
	r.EvictSuperseded(context.Background(), record("a.pdf", "loc_1"))
	assert.Equal(t, []string{"loc_1"}, dropper.dropped)
}

func TestEvictSuperseded_SkipsLiveIndex(t *testing.T) {
	ctx := context.Background()
	dropper := &mockDropper{}
	r := New(dropper)
	_, err := r.Register(ctx, record("a.pdf", "loc_1"), config.DuplicateSupersede)
	require.NoError(t, err)

	r.EvictSuperseded(ctx, record("a.pdf", "loc_1"))
	assert.Empty(t, dropper.dropped)
}

func TestList_SortedByName(t *testing.T) {
	ctx := context.Background()
	r := New(nil)
	for _, n := range []string{"c.pdf", "a.pdf", "b.pdf"} {
		_, err := r.Register(ctx, record(n, "loc_"+n), config.DuplicateSupersede)
		require.NoError(t, err)
	}
	names := []string{}
	for _, rec := range r.List() {
		names = append(names, rec.Name)
	}
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, names)
}

func TestRegister_Concurrent(t *testing.T) {
	ctx := context.Background()
	r := New(&mockDropper{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("doc-%d.pdf", i%5)
			old, err := r.Register(ctx, record(name, fmt.Sprintf("loc_%d", i)), config.DuplicateSupersede)
			assert.NoError(t, err)
			if old != nil {
				r.EvictSuperseded(ctx, *old)
			}
			_, err = r.Resolve("")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.List(), 5)
	cur, err := r.Resolve("")
	require.NoError(t, err)
	assert.True(t, r.Exists(cur.Name))
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{records: map[string]commonModels.DocumentRecord{}}

	first := New(nil, WithPersister(p))
	_, err := first.Register(ctx, record("a.pdf", "loc_a"), config.DuplicateSupersede)
	require.NoError(t, err)
	_, err = first.Register(ctx, record("b.pdf", "loc_b"), config.DuplicateSupersede)
	require.NoError(t, err)

	second := New(nil, WithPersister(p))
	n, err := second.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cur, err := second.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "b.pdf", cur.Name)
}

func TestRestore_NoPersister(t *testing.T) {
	n, err := New(nil).Restore(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
