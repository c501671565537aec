package retriever

import (
	"math"
	"testing"

	"github.com/marketmind/researchd/internal/domain"
)

func TestFuseRRF_ScoreFormula(t *testing.T) {
	lex := []domain.RankedCandidate{cand("a")}
	sem := []domain.RankedCandidate{cand("a")}

	fused := fuseRRF(60, lex, sem)
	if len(fused) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(fused))
	}
	// rank 1 in both lists: 1/61 + 1/61
	want := 2.0 / 61.0
	if math.Abs(fused[0].FusedScore-want) > 1e-12 {
		t.Errorf("fused score = %f, want %f", fused[0].FusedScore, want)
	}
}

func TestFuseRRF_AllListsBeatsSingleList(t *testing.T) {
	// "a" is last in all three lists; "z" is first in exactly one.
	lex := []domain.RankedCandidate{cand("z"), cand("a")}
	sem1 := []domain.RankedCandidate{cand("b"), cand("a")}
	sem2 := []domain.RankedCandidate{cand("c"), cand("a")}

	fused := fuseRRF(60, lex, sem1, sem2)
	scores := map[string]float64{}
	for _, c := range fused {
		scores[c.Document.ID] = c.FusedScore
	}
	// 3/62 > 1/61: presence in every list outweighs a single top rank.
	if scores["a"] <= scores["z"] {
		t.Errorf("candidate in all lists (%f) should fuse above single-list top rank (%f)",
			scores["a"], scores["z"])
	}
}

func TestFuseRRF_NoDuplicates(t *testing.T) {
	lex := []domain.RankedCandidate{cand("a"), cand("b")}
	sem1 := []domain.RankedCandidate{cand("b"), cand("c")}
	sem2 := []domain.RankedCandidate{cand("c"), cand("a")}

	fused := fuseRRF(60, lex, sem1, sem2)
	seen := map[string]bool{}
	for _, c := range fused {
		if seen[c.Document.ID] {
			t.Fatalf("duplicate document %s", c.Document.ID)
		}
		seen[c.Document.ID] = true
	}
	if len(fused) != 3 {
		t.Fatalf("expected 3 unique candidates, got %d", len(fused))
	}
}

func TestFuseRRF_SortedDescending(t *testing.T) {
	lex := []domain.RankedCandidate{cand("a"), cand("b"), cand("c")}
	sem := []domain.RankedCandidate{cand("c"), cand("d")}

	fused := fuseRRF(60, lex, sem)
	for i := 1; i < len(fused); i++ {
		if fused[i].FusedScore > fused[i-1].FusedScore {
			t.Fatalf("not sorted at index %d", i)
		}
	}
}

func TestFuseRRF_RanksRecorded(t *testing.T) {
	lex := []domain.RankedCandidate{cand("a")}
	sem := []domain.RankedCandidate{cand("b"), cand("a")}

	fused := fuseRRF(60, lex, sem)
	for _, c := range fused {
		switch c.Document.ID {
		case "a":
			if c.LexicalRank != 1 || c.SemanticRank != 2 {
				t.Errorf("a: ranks = (%d,%d), want (1,2)", c.LexicalRank, c.SemanticRank)
			}
		case "b":
			if c.LexicalRank != 0 || c.SemanticRank != 1 {
				t.Errorf("b: ranks = (%d,%d), want (0,1)", c.LexicalRank, c.SemanticRank)
			}
		}
	}
}

func TestStableSortByRerank_TiesKeepFusedOrder(t *testing.T) {
	cands := []domain.RankedCandidate{
		{Document: testDoc("first"), RerankScore: 0.5},
		{Document: testDoc("second"), RerankScore: 0.5},
		{Document: testDoc("third"), RerankScore: 0.9},
	}
	stableSortByRerank(cands)
	if cands[0].Document.ID != "third" {
		t.Fatalf("expected highest rerank first, got %s", cands[0].Document.ID)
	}
	if cands[1].Document.ID != "first" || cands[2].Document.ID != "second" {
		t.Errorf("tie order not preserved: %s, %s", cands[1].Document.ID, cands[2].Document.ID)
	}
}
