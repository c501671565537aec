// Package lexical implements an in-memory BM25 inverted index over the
// document corpus. The index has no persistence of its own; it is
// rebuilt from the document store on startup.
package lexical

import (
	"math"
	"sort"
	"sync"

	"github.com/marketmind/researchd/internal/domain"
)

// BM25 free parameters (Robertson/Sparck Jones defaults).
const (
	k1 = 1.2
	b  = 0.75
)

// Index is a concurrent-reader BM25 index. Re-indexing is idempotent on
// document ID: last write wins.
type Index struct {
	mu        sync.RWMutex
	docs      map[string]domain.Document
	docTokens map[string][]string
	postings  map[string]map[string]int // term -> docID -> term frequency
	totalLen  int
}

// New creates an empty index.
func New() *Index {
	return &Index{
		docs:      make(map[string]domain.Document),
		docTokens: make(map[string][]string),
		postings:  make(map[string]map[string]int),
	}
}

// Add indexes documents. Existing IDs are replaced.
func (ix *Index) Add(docs ...domain.Document) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, doc := range docs {
		if old, ok := ix.docs[doc.ID]; ok {
			ix.removeLocked(old)
		}

		tokens := Tokenize(doc.Text)
		ix.docs[doc.ID] = doc
		ix.docTokens[doc.ID] = tokens
		ix.totalLen += len(tokens)

		for _, tok := range tokens {
			pl, ok := ix.postings[tok]
			if !ok {
				pl = make(map[string]int)
				ix.postings[tok] = pl
			}
			pl[doc.ID]++
		}
	}
}

func (ix *Index) removeLocked(doc domain.Document) {
	tokens := ix.docTokens[doc.ID]
	for _, tok := range tokens {
		if pl, ok := ix.postings[tok]; ok {
			delete(pl, doc.ID)
			if len(pl) == 0 {
				delete(ix.postings, tok)
			}
		}
	}
	ix.totalLen -= len(tokens)
	delete(ix.docs, doc.ID)
	delete(ix.docTokens, doc.ID)
}

// Has reports whether a document ID is indexed.
func (ix *Index) Has(id string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.docs[id]
	return ok
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Search ranks documents by BM25 score descending and returns at most k
// candidates with non-zero score. An empty corpus or an all-stopword
// query yields an empty result, never an error.
func (ix *Index) Search(query string, k int) []domain.RankedCandidate {
	if k <= 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := len(ix.docs)
	if n == 0 {
		return nil
	}

	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	avgLen := float64(ix.totalLen) / float64(n)
	scores := make(map[string]float64)

	for _, term := range terms {
		pl, ok := ix.postings[term]
		if !ok {
			continue
		}
		idf := idf(n, len(pl))
		for docID, tf := range pl {
			docLen := float64(len(ix.docTokens[docID]))
			num := float64(tf) * (k1 + 1)
			den := float64(tf) + k1*(1-b+b*docLen/avgLen)
			scores[docID] += idf * num / den
		}
	}

	ranked := make([]domain.RankedCandidate, 0, len(scores))
	for docID, score := range scores {
		if score <= 0 {
			continue
		}
		ranked = append(ranked, domain.RankedCandidate{
			Document: ix.docs[docID],
			Score:    score,
		})
	}

	// Stable order: score descending, ID ascending on ties so identical
	// corpora always rank identically.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Document.ID < ranked[j].Document.ID
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	for i := range ranked {
		ranked[i].LexicalRank = i + 1
	}
	return ranked
}

// idf is the smoothed variant that never goes negative for very common terms.
func idf(n, df int) float64 {
	return math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
}
