package retriever

import (
	"sort"

	"github.com/marketmind/researchd/internal/domain"
)

// fuseRRF merges a lexical list and up to two semantic lists via
// Reciprocal Rank Fusion: score(d) = sum over lists containing d of
// 1/(c + rank). Candidates absent from a list contribute nothing for it,
// so a document ranked in every list always fuses at or above one seen
// in a single list at the same ranks.
func fuseRRF(c int, lexical []domain.RankedCandidate, semantic ...[]domain.RankedCandidate) []domain.RankedCandidate {
	merged := make(map[string]*domain.RankedCandidate)

	for rank, cand := range lexical {
		cand.LexicalRank = rank + 1
		cand.FusedScore = 1.0 / float64(c+rank+1)
		cand.Score = cand.FusedScore
		cc := cand
		merged[cand.Document.ID] = &cc
	}

	for _, list := range semantic {
		for rank, cand := range list {
			s := 1.0 / float64(c+rank+1)
			if existing, ok := merged[cand.Document.ID]; ok {
				existing.FusedScore += s
				existing.Score = existing.FusedScore
				if existing.SemanticRank == 0 || rank+1 < existing.SemanticRank {
					existing.SemanticRank = rank + 1
				}
			} else {
				cand.SemanticRank = rank + 1
				cand.FusedScore = s
				cand.Score = s
				cc := cand
				merged[cand.Document.ID] = &cc
			}
		}
	}

	fused := make([]domain.RankedCandidate, 0, len(merged))
	for _, cand := range merged {
		fused = append(fused, *cand)
	}

	// Deterministic: fused score descending, document ID on ties.
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].FusedScore != fused[j].FusedScore {
			return fused[i].FusedScore > fused[j].FusedScore
		}
		return fused[i].Document.ID < fused[j].Document.ID
	})

	return fused
}

// stableSortByRerank orders by rerank score descending, preserving the
// incoming (fused) order on ties.
func stableSortByRerank(cands []domain.RankedCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].RerankScore > cands[j].RerankScore
	})
}
