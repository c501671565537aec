package retriever

import "github.com/marketmind/researchd/internal/domain"

// Lexical is the keyword side of the hybrid retriever.
type Lexical interface {
	Search(query string, k int) []domain.RankedCandidate
}

// Config holds the retrieval tuning knobs. The RRF constant and pool
// factor are configuration rather than hard-coded values.
type Config struct {
	RRFK       int // damping constant in 1/(rank+c), typically 60
	PoolFactor int // rerank pool size = PoolFactor * k
	Collection string
}

// DefaultConfig returns the standard retrieval settings.
func DefaultConfig(collection string) Config {
	return Config{RRFK: 60, PoolFactor: 3, Collection: collection}
}
