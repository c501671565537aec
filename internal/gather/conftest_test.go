package gather

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
)

type fakeRetriever struct {
	results []domain.RankedCandidate
	delay   time.Duration
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, k int) []domain.RankedCandidate {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if len(f.results) > k {
		return f.results[:k]
	}
	return f.results
}

type fakeMemory struct {
	hits []domain.MemoryRecord
	err  error
}

func (f *fakeMemory) QuerySimilar(context.Context, string, int) ([]domain.MemoryRecord, error) {
	return f.hits, f.err
}

type fakeMarket struct {
	err   error
	calls atomic.Int32
	// deepSeen records the deep flag of the last call.
	deepSeen atomic.Bool
}

func (f *fakeMarket) Snapshot(_ context.Context, symbol string, deep bool) (domain.MarketSnapshot, error) {
	f.calls.Add(1)
	f.deepSeen.Store(deep)
	if f.err != nil {
		return domain.MarketSnapshot{}, f.err
	}
	return domain.MarketSnapshot{
		Symbol:    symbol,
		Price:     100,
		ChangePct: 1.5,
		Currency:  "INR",
		AsOf:      time.Now(),
	}, nil
}

type fakeWeb struct {
	hits  []domain.WebHit
	err   error
	calls atomic.Int32
}

func (f *fakeWeb) Search(context.Context, string, int) ([]domain.WebHit, error) {
	f.calls.Add(1)
	return f.hits, f.err
}

func doc(id string) domain.RankedCandidate {
	return domain.RankedCandidate{Document: domain.Document{ID: id, Text: "text-" + id}}
}

func newTestGatherer(r *fakeRetriever, m *fakeMemory, mk *fakeMarket, w *fakeWeb) *Gatherer {
	return New(r, m, mk, w, DefaultConfig(), zap.NewNop())
}
