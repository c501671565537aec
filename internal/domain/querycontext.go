package domain

import "time"

// QueryContext is the single mutable context threaded through one
// pipeline run. Exactly one QueryContext is live per in-flight request;
// stages only add fields and never retract previously set ones, so a
// partially-failed run still reports everything that did complete.
type QueryContext struct {
	RawQuery      string
	ResolvedQuery string
	Mode          AnalysisMode
	StartedAt     time.Time

	// Router output.
	Intent     Intent
	Symbols    []string
	IsFollowUp bool
	NeedsWeb   bool
	PriorTurn  *MemoryRecord

	// Clarifier output.
	NeedsClarification bool
	Clarification      string
	Assumptions        map[string]string

	// Gather output.
	Evidence EvidenceBundle

	// Assessment output.
	Confidence        Confidence
	ConfidenceReasons []Reason
	Contradictions    []Contradiction

	// Synthesis output.
	FinalReport string
}

// NewQueryContext starts a pipeline run for a raw query.
func NewQueryContext(query string, mode AnalysisMode) *QueryContext {
	return &QueryContext{
		RawQuery:      query,
		ResolvedQuery: query,
		Mode:          mode,
		StartedAt:     time.Now(),
	}
}
