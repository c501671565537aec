package domain

import "time"

// MarketSnapshot is one instrument's live market view. Fundamentals and
// technicals are optional and only present for deep lookups.
type MarketSnapshot struct {
	Symbol       string
	Name         string
	Price        float64
	ChangePct    float64
	Currency     string
	Fundamentals map[string]float64
	Technicals   map[string]float64
	AsOf         time.Time
}

// WebHit is one result from the web-search fallback.
type WebHit struct {
	Title   string
	Snippet string
	URL     string
	Source  string
}

// SourceError records one failed evidence source. Failures degrade
// evidence instead of aborting the request.
type SourceError struct {
	Source string
	Err    error
}

// EvidenceBundle aggregates everything gathered for one request.
// Every field is independently optional: absence lowers confidence,
// it is never an error.
type EvidenceBundle struct {
	RetrievedDocs []RankedCandidate
	Market        []MarketSnapshot
	MemoryHits    []MemoryRecord
	WebHits       []WebHit
	SourceErrors  []SourceError
}

// SourceCount counts the evidence source groups that contributed at
// least one item.
func (b *EvidenceBundle) SourceCount() int {
	n := 0
	if len(b.RetrievedDocs) > 0 {
		n++
	}
	if len(b.Market) > 0 {
		n++
	}
	if len(b.MemoryHits) > 0 {
		n++
	}
	if len(b.WebHits) > 0 {
		n++
	}
	return n
}

// HasLiveMarketData reports whether at least one live snapshot arrived.
func (b *EvidenceBundle) HasLiveMarketData() bool {
	return len(b.Market) > 0
}

// ItemCount is the total number of evidence items across all groups.
func (b *EvidenceBundle) ItemCount() int {
	return len(b.RetrievedDocs) + len(b.Market) + len(b.MemoryHits) + len(b.WebHits)
}
