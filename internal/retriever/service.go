// Package retriever implements hybrid retrieval: BM25 and semantic
// search fused with Reciprocal Rank Fusion, HyDE query expansion, and
// cross-encoder reranking. Every external dependency degrades
// gracefully; the retriever never fails a request that the lexical
// index alone could answer.
package retriever

import (
	"context"

	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
	"github.com/marketmind/researchd/internal/metrics"
)

// Service is the hybrid retriever.
type Service struct {
	lexical Lexical
	vectors domain.VectorStore
	embed   domain.Embedder
	gen     domain.Generator
	rerank  domain.Reranker
	cfg     Config
	logger  *zap.Logger
}

// New creates a hybrid retriever. gen and rerank may be nil; the
// corresponding steps are skipped.
func New(
	lexical Lexical, vectors domain.VectorStore, embed domain.Embedder,
	gen domain.Generator, rerank domain.Reranker, cfg Config, logger *zap.Logger,
) *Service {
	if cfg.RRFK <= 0 {
		cfg.RRFK = 60
	}
	if cfg.PoolFactor <= 0 {
		cfg.PoolFactor = 3
	}
	return &Service{
		lexical: lexical, vectors: vectors, embed: embed,
		gen: gen, rerank: rerank, cfg: cfg, logger: logger,
	}
}

// Retrieve returns at most k candidates, fused from the lexical index
// and the semantic index (raw query + HyDE expansion), reranked against
// the original query.
func (s *Service) Retrieve(ctx context.Context, query string, k int) []domain.RankedCandidate {
	lex := s.lexical.Search(query, k)

	sem1 := s.searchSemantic(ctx, query, k, "query")
	sem2 := s.searchHyde(ctx, query, k)

	fused := fuseRRF(s.cfg.RRFK, lex, sem1, sem2)

	pool := s.cfg.PoolFactor * k
	if len(fused) > pool {
		fused = fused[:pool]
	}

	reranked := s.rerankPool(ctx, query, fused)

	if len(reranked) > k {
		reranked = reranked[:k]
	}
	metrics.RetrievalResults.Observe(float64(len(reranked)))
	return reranked
}

// searchSemantic embeds text and queries the vector store. Failures
// degrade to an empty list; the lexical side carries the request.
func (s *Service) searchSemantic(ctx context.Context, text string, k int, kind string) []domain.RankedCandidate {
	vec, err := s.embed.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("semantic search skipped: embed failed",
			zap.String("kind", kind), zap.Error(err))
		metrics.RetrievalDegraded.WithLabelValues("embed").Inc()
		return nil
	}

	hits, err := s.vectors.Query(ctx, s.cfg.Collection, vec, k, nil)
	if err != nil {
		s.logger.Warn("semantic search skipped: vector store unreachable",
			zap.String("kind", kind), zap.Error(err))
		metrics.RetrievalDegraded.WithLabelValues("vector_store").Inc()
		return nil
	}

	cands := make([]domain.RankedCandidate, 0, len(hits))
	for i, hit := range hits {
		cands = append(cands, domain.RankedCandidate{
			Document:     domain.DocumentFromPayload(hit.ID, hit.Payload),
			SemanticRank: i + 1,
			Score:        hit.Score,
		})
	}
	return cands
}

// searchHyde obtains the HyDE expansion and runs it as an auxiliary
// semantic query. Skipped entirely when generation is unavailable.
func (s *Service) searchHyde(ctx context.Context, query string, k int) []domain.RankedCandidate {
	if s.gen == nil {
		return nil
	}
	hypothesis, err := expandHyDE(ctx, s.gen, query)
	if err != nil || hypothesis == "" {
		s.logger.Warn("hyde expansion skipped", zap.Error(err))
		metrics.RetrievalDegraded.WithLabelValues("hyde").Inc()
		return nil
	}
	return s.searchSemantic(ctx, hypothesis, k, "hyde")
}

// rerankPool scores candidates against the original query (never the
// HyDE text). Any scoring failure keeps the fused order unchanged.
// Equal rerank scores keep fused order via the stable sort.
func (s *Service) rerankPool(ctx context.Context, query string, pool []domain.RankedCandidate) []domain.RankedCandidate {
	if s.rerank == nil || len(pool) == 0 {
		return pool
	}

	scored := make([]domain.RankedCandidate, len(pool))
	for i, cand := range pool {
		score, err := s.rerank.Score(ctx, query, cand.Document.Text)
		if err != nil {
			s.logger.Warn("rerank failed, keeping fused order", zap.Error(err))
			metrics.RetrievalDegraded.WithLabelValues("rerank").Inc()
			return pool
		}
		cand.RerankScore = score
		cand.Score = score
		scored[i] = cand
	}

	stableSortByRerank(scored)
	return scored
}
