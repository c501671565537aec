package openai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/marketmind/researchd/internal/domain"
)

// Synthesizer renders the evidence bundle into a research report via
// the generation capability.
type Synthesizer struct {
	gen domain.Generator
}

// NewSynthesizer wraps a generator for report synthesis.
func NewSynthesizer(gen domain.Generator) *Synthesizer {
	return &Synthesizer{gen: gen}
}

// Synthesize builds the report prompt and completes it. Deep mode uses
// the long-form template.
func (s *Synthesizer) Synthesize(ctx context.Context, qc *domain.QueryContext, prefs domain.Preferences) (string, error) {
	template := domain.TemplateQuick
	if qc.Mode == domain.ModeDeep {
		template = domain.TemplateDeep
	}
	return s.gen.Complete(ctx, buildReportPrompt(qc, prefs), template)
}

func buildReportPrompt(qc *domain.QueryContext, prefs domain.Preferences) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an equity research assistant. Answer the query using only the evidence below.\n")
	fmt.Fprintf(&b, "Query: %s\nAnalysis type: %s\n", qc.ResolvedQuery, qc.Intent.Label())
	if len(qc.Symbols) > 0 {
		fmt.Fprintf(&b, "Instruments: %s\n", strings.Join(qc.Symbols, ", "))
	}
	fmt.Fprintf(&b, "Investor profile: %s risk tolerance, %s horizon, %s analysis style.\n",
		prefs.RiskTolerance, prefs.InvestmentHorizon, prefs.AnalysisStyle)
	if len(prefs.PreferredKPIs) > 0 {
		fmt.Fprintf(&b, "Emphasize these KPIs when present: %s.\n", strings.Join(prefs.PreferredKPIs, ", "))
	}
	for k, v := range qc.Assumptions {
		fmt.Fprintf(&b, "Assumption: %s = %s\n", k, v)
	}

	if len(qc.Evidence.Market) > 0 {
		b.WriteString("\nLive market data:\n")
		for _, snap := range qc.Evidence.Market {
			fmt.Fprintf(&b, "- %s: %.2f %s, %+.2f%% today", snap.Symbol, snap.Price, snap.Currency, snap.ChangePct)
			writeIndicators(&b, "fundamentals", snap.Fundamentals)
			writeIndicators(&b, "technicals", snap.Technicals)
			b.WriteString("\n")
		}
	}
	if len(qc.Evidence.RetrievedDocs) > 0 {
		b.WriteString("\nRetrieved documents:\n")
		for _, cand := range qc.Evidence.RetrievedDocs {
			fmt.Fprintf(&b, "- [%s] %s\n", cand.Document.SourceType, cand.Document.Text)
		}
	}
	if len(qc.Evidence.WebHits) > 0 {
		b.WriteString("\nWeb results:\n")
		for _, hit := range qc.Evidence.WebHits {
			fmt.Fprintf(&b, "- %s: %s\n", hit.Title, hit.Snippet)
		}
	}
	if len(qc.Evidence.MemoryHits) > 0 {
		b.WriteString("\nRelated past research:\n")
		for _, rec := range qc.Evidence.MemoryHits {
			fmt.Fprintf(&b, "- %s: %s\n", rec.Query, rec.Summary)
		}
	}
	if qc.Evidence.ItemCount() == 0 {
		b.WriteString("\nNo evidence was gathered. Say so and suggest how to rephrase the query.\n")
	}

	b.WriteString("\nWrite a concise, well-structured answer. Attribute claims to their evidence and do not invent numbers.")
	return b.String()
}

func writeIndicators(b *strings.Builder, label string, values map[string]float64) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, " (%s:", label)
	first := true
	for _, k := range sortedKeys(values) {
		if !first {
			b.WriteString(",")
		}
		fmt.Fprintf(b, " %s=%.2f", k, values[k])
		first = false
	}
	b.WriteString(")")
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
