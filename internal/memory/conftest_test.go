package memory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
)

// fakeEmbedder returns a constant vector or a configured error.
type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.5, 0.5}, nil
}

// fakeVectorStore records upserts and serves canned query hits.
type fakeVectorStore struct {
	queryHits []domain.VectorHit
	queryErr  error
	listHits  []domain.VectorHit

	upserts map[string]map[string]string // collection/id -> payload
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{upserts: make(map[string]map[string]string)}
}

func (f *fakeVectorStore) EnsureCollection(context.Context, string, int) error { return nil }

func (f *fakeVectorStore) Upsert(_ context.Context, collection, id string, _ []float32, payload map[string]string) error {
	f.upserts[collection+"/"+id] = payload
	return nil
}

func (f *fakeVectorStore) Query(_ context.Context, _ string, _ []float32, _ int, _ map[string]string) ([]domain.VectorHit, error) {
	return f.queryHits, f.queryErr
}

func (f *fakeVectorStore) List(context.Context, string, int, int) ([]domain.VectorHit, error) {
	return f.listHits, nil
}

func turnHit(id string, score float64, age time.Duration) domain.VectorHit {
	return domain.VectorHit{
		ID:    id,
		Score: score,
		Payload: map[string]string{
			"query":     "query-" + id,
			"symbols":   "TCS.NS",
			"intent":    "FUNDAMENTALS",
			"summary":   "summary-" + id,
			"timestamp": time.Now().Add(-age).UTC().Format(time.RFC3339),
		},
	}
}

func newTestStore(vs *fakeVectorStore, emb *fakeEmbedder) *Store {
	return New(vs, emb, DefaultConfig(2), zap.NewNop())
}
