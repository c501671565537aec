// Package gather fans out to the evidence sources concurrently and
// assembles the bundle the synthesizer works from. A failed source is
// recorded and skipped; the stage fails only when every source fails.
package gather

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marketmind/researchd/internal/domain"
	"github.com/marketmind/researchd/internal/metrics"
)

// Retriever is the hybrid document retrieval capability.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) []domain.RankedCandidate
}

// MemoryReader looks up similar past research turns.
type MemoryReader interface {
	QuerySimilar(ctx context.Context, query string, k int) ([]domain.MemoryRecord, error)
}

// Config holds gather settings.
type Config struct {
	RetrieveK int
	MemoryK   int
	WebK      int
	// MinEvidence triggers the web fallback when retrieval plus market
	// data together fall below it.
	MinEvidence int
}

// DefaultConfig returns the standard gather settings.
func DefaultConfig() Config {
	return Config{RetrieveK: 5, MemoryK: 3, WebK: 5, MinEvidence: 2}
}

// Gatherer coordinates the evidence sources.
type Gatherer struct {
	retriever Retriever
	memory    MemoryReader
	market    domain.MarketDataTool
	web       domain.WebSearchTool
	cfg       Config
	logger    *zap.Logger
}

func New(retriever Retriever, memory MemoryReader, market domain.MarketDataTool, web domain.WebSearchTool, cfg Config, logger *zap.Logger) *Gatherer {
	if cfg.RetrieveK == 0 {
		cfg = DefaultConfig()
	}
	return &Gatherer{
		retriever: retriever,
		memory:    memory,
		market:    market,
		web:       web,
		cfg:       cfg,
		logger:    logger,
	}
}

// Gather collects evidence for the routed query. All sources run
// concurrently under the caller's deadline. Deep mode asks the market
// tool for the extended snapshot including fundamentals and technicals.
func (g *Gatherer) Gather(ctx context.Context, qc *domain.QueryContext) domain.EvidenceBundle {
	var (
		mu     sync.Mutex
		bundle domain.EvidenceBundle
	)
	fail := func(source string, err error) {
		metrics.GatherSourceFailures.WithLabelValues(source).Inc()
		g.logger.Warn("evidence source failed", zap.String("source", source), zap.Error(err))
		mu.Lock()
		bundle.SourceErrors = append(bundle.SourceErrors, domain.SourceError{Source: source, Err: err})
		mu.Unlock()
	}

	deep := qc.Mode == domain.ModeDeep
	var group errgroup.Group

	group.Go(func() error {
		docs := g.retriever.Retrieve(ctx, qc.ResolvedQuery, g.cfg.RetrieveK)
		mu.Lock()
		bundle.RetrievedDocs = docs
		mu.Unlock()
		return nil
	})

	group.Go(func() error {
		hits, err := g.memory.QuerySimilar(ctx, qc.ResolvedQuery, g.cfg.MemoryK)
		if err != nil {
			fail("memory", err)
			return nil
		}
		mu.Lock()
		bundle.MemoryHits = hits
		mu.Unlock()
		return nil
	})

	if g.market != nil {
		for _, symbol := range qc.Symbols {
			symbol := symbol
			group.Go(func() error {
				snap, err := g.market.Snapshot(ctx, symbol, deep)
				if err != nil {
					fail("market:"+symbol, err)
					return nil
				}
				mu.Lock()
				bundle.Market = append(bundle.Market, snap)
				mu.Unlock()
				return nil
			})
		}
	}

	if qc.NeedsWeb && g.web != nil {
		group.Go(func() error {
			g.searchWeb(ctx, qc.ResolvedQuery, &mu, &bundle, fail)
			return nil
		})
	}

	_ = group.Wait()

	// Thin evidence falls back to the web even when the route did not
	// ask for it.
	if !qc.NeedsWeb && g.web != nil && len(bundle.RetrievedDocs)+len(bundle.Market) < g.cfg.MinEvidence {
		g.searchWeb(ctx, qc.ResolvedQuery, &mu, &bundle, fail)
	}

	g.logger.Info("gather complete",
		zap.Int("docs", len(bundle.RetrievedDocs)),
		zap.Int("market", len(bundle.Market)),
		zap.Int("memory", len(bundle.MemoryHits)),
		zap.Int("web", len(bundle.WebHits)),
		zap.Int("source_errors", len(bundle.SourceErrors)),
	)
	return bundle
}

func (g *Gatherer) searchWeb(ctx context.Context, query string, mu *sync.Mutex, bundle *domain.EvidenceBundle, fail func(string, error)) {
	hits, err := g.web.Search(ctx, query, g.cfg.WebK)
	if err != nil {
		fail("web", err)
		return
	}
	mu.Lock()
	bundle.WebHits = hits
	mu.Unlock()
}
