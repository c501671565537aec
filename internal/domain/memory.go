package domain

import "time"

// MemoryRecord is one persisted research turn. Records are append-only
// and never mutated after write.
type MemoryRecord struct {
	TurnID    string
	Query     string
	Symbols   []string
	Intent    Intent
	Summary   string
	Timestamp time.Time

	// Similarity and Fresh are set on retrieval, not persisted.
	Similarity float64
	Fresh      bool
}

// Preferences is the per-user settings singleton. Mutated only through
// explicit updates, read by the router and clarifier for auto-fill.
type Preferences struct {
	RiskTolerance     string   `json:"risk_tolerance"`
	InvestmentHorizon string   `json:"investment_horizon"`
	AnalysisStyle     string   `json:"analysis_style"`
	PreferredKPIs     []string `json:"preferred_kpis"`
	Sectors           []string `json:"sectors"`
	WatchSymbols      []string `json:"watch_symbols"`
}

// DefaultPreferences mirrors the profile used when no stored preferences exist.
func DefaultPreferences() Preferences {
	return Preferences{
		RiskTolerance:     "moderate",
		InvestmentHorizon: "long-term",
		AnalysisStyle:     "balanced",
		PreferredKPIs:     []string{"EBITDA", "ROE", "Revenue Growth"},
		Sectors:           []string{"IT", "Banking", "Energy"},
	}
}

// Watching reports whether symbol is on the user's watch list.
func (p Preferences) Watching(symbol string) bool {
	for _, s := range p.WatchSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// PreferenceDelta is a partial preferences update; nil fields are left
// unchanged.
type PreferenceDelta struct {
	RiskTolerance     *string  `json:"risk_tolerance,omitempty"`
	InvestmentHorizon *string  `json:"investment_horizon,omitempty"`
	AnalysisStyle     *string  `json:"analysis_style,omitempty"`
	PreferredKPIs     []string `json:"preferred_kpis,omitempty"`
	Sectors           []string `json:"sectors,omitempty"`
	WatchSymbols      []string `json:"watch_symbols,omitempty"`
}

// Apply merges the delta into p and returns the result.
func (d PreferenceDelta) Apply(p Preferences) Preferences {
	if d.RiskTolerance != nil {
		p.RiskTolerance = *d.RiskTolerance
	}
	if d.InvestmentHorizon != nil {
		p.InvestmentHorizon = *d.InvestmentHorizon
	}
	if d.AnalysisStyle != nil {
		p.AnalysisStyle = *d.AnalysisStyle
	}
	if d.PreferredKPIs != nil {
		p.PreferredKPIs = d.PreferredKPIs
	}
	if d.Sectors != nil {
		p.Sectors = d.Sectors
	}
	if d.WatchSymbols != nil {
		p.WatchSymbols = d.WatchSymbols
	}
	return p
}
