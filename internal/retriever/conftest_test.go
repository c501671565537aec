package retriever

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
)

// fakeLexical serves a fixed candidate list.
type fakeLexical struct {
	results []domain.RankedCandidate
}

func (f *fakeLexical) Search(_ string, k int) []domain.RankedCandidate {
	if len(f.results) > k {
		return f.results[:k]
	}
	return f.results
}

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
	return []float32{0.1, 0.2, 0.3}, nil
}

// fakeVectorStore serves fixed hits per call, or fails.
type fakeVectorStore struct {
	hits  [][]domain.VectorHit
	err   error
	calls int
}

func (f *fakeVectorStore) EnsureCollection(context.Context, string, int) error { return nil }

func (f *fakeVectorStore) Upsert(context.Context, string, string, []float32, map[string]string) error {
	return nil
}

func (f *fakeVectorStore) Query(_ context.Context, _ string, _ []float32, _ int, _ map[string]string) ([]domain.VectorHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.calls < len(f.hits) {
		h := f.hits[f.calls]
		f.calls++
		return h, nil
	}
	f.calls++
	return nil, nil
}

func (f *fakeVectorStore) List(context.Context, string, int, int) ([]domain.VectorHit, error) {
	return nil, nil
}

// fakeGenerator returns canned text.
type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) Complete(_ context.Context, _ string, _ domain.TemplateID) (string, error) {
	return f.text, f.err
}

// fakeReranker scores by lookup table; unknown texts fail.
type fakeReranker struct {
	scores map[string]float64
	err    error
}

func (f *fakeReranker) Score(_ context.Context, _ string, candidate string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	s, ok := f.scores[candidate]
	if !ok {
		return 0, errors.New("unknown candidate")
	}
	return s, nil
}

func cand(id string) domain.RankedCandidate {
	return domain.RankedCandidate{Document: testDoc(id)}
}

func testDoc(id string) domain.Document {
	return domain.Document{
		ID:          id,
		Text:        "text-" + id,
		SourceType:  domain.SourceNews,
		PublishedAt: time.Now(),
	}
}

func hit(id string, score float64) domain.VectorHit {
	return domain.VectorHit{
		ID:    id,
		Score: score,
		Payload: map[string]string{
			"text":        "text-" + id,
			"source_type": "news",
		},
	}
}

func newTestService(lex *fakeLexical, vs *fakeVectorStore, emb *fakeEmbedder, gen domain.Generator, rr domain.Reranker) *Service {
	return New(lex, vs, emb, gen, rr, DefaultConfig("docs"), zap.NewNop())
}
