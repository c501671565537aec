// Package pipeline orchestrates one research run through six stages:
// route, clarify, gather, synthesize, assess, persist. Stages only add
// to the query context; a degraded run still reports everything that
// completed.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
	"github.com/marketmind/researchd/internal/metrics"
	"github.com/marketmind/researchd/internal/router"
)

// QueryRouter classifies a query given the prior turn and preferences.
type QueryRouter interface {
	Route(query string, prior *domain.MemoryRecord, prefs domain.Preferences) router.Decision
}

// EvidenceGatherer collects the evidence bundle for a routed query.
type EvidenceGatherer interface {
	Gather(ctx context.Context, qc *domain.QueryContext) domain.EvidenceBundle
}

// Assessor cross-validates evidence and assigns the confidence label.
type Assessor interface {
	Assess(bundle *domain.EvidenceBundle) (domain.Confidence, []domain.Reason, []domain.Contradiction)
}

// Memory is the slice of the memory store the pipeline needs.
type Memory interface {
	LastTurn() *domain.MemoryRecord
	Write(ctx context.Context, rec domain.MemoryRecord) error
	GetPreferences() domain.Preferences
}

// Synthesizer turns the evidence bundle into the final report text.
type Synthesizer interface {
	Synthesize(ctx context.Context, qc *domain.QueryContext, prefs domain.Preferences) (string, error)
}

// Config holds the per-mode time budgets.
type Config struct {
	QuickTimeout time.Duration
	DeepTimeout  time.Duration
}

// DefaultConfig returns the standard time budgets.
func DefaultConfig() Config {
	return Config{QuickTimeout: 30 * time.Second, DeepTimeout: 180 * time.Second}
}

// Pipeline runs research requests end to end.
type Pipeline struct {
	router   QueryRouter
	gatherer EvidenceGatherer
	assessor Assessor
	memory   Memory
	synth    Synthesizer
	cfg      Config
	logger   *zap.Logger
}

func New(r QueryRouter, g EvidenceGatherer, a Assessor, m Memory, s Synthesizer, cfg Config, logger *zap.Logger) *Pipeline {
	if cfg.QuickTimeout == 0 {
		cfg = DefaultConfig()
	}
	return &Pipeline{router: r, gatherer: g, assessor: a, memory: m, synth: s, cfg: cfg, logger: logger}
}

// clarifyIntents are routes that cannot proceed without a subject.
var clarifyIntents = map[domain.Intent]bool{
	domain.IntentStockPrice:      true,
	domain.IntentFundamentals:    true,
	domain.IntentTechnicals:      true,
	domain.IntentRecommendations: true,
	domain.IntentComparison:      true,
}

// horizonIntents get the user's risk profile auto-filled as assumptions.
var horizonIntents = map[domain.Intent]bool{
	domain.IntentRecommendations: true,
	domain.IntentPortfolio:       true,
	domain.IntentDiscovery:       true,
}

// Run executes one research request. The returned context always
// carries whatever the run produced, even alongside an error.
func (p *Pipeline) Run(ctx context.Context, query string, mode domain.AnalysisMode) (*domain.QueryContext, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidQuery
	}
	qc := domain.NewQueryContext(query, mode)

	// ROUTE
	done := stageTimer("route")
	prefs := p.memory.GetPreferences()
	decision := p.router.Route(query, p.memory.LastTurn(), prefs)
	qc.Intent = decision.Intent
	qc.Symbols = decision.Symbols
	qc.IsFollowUp = decision.IsFollowUp
	qc.NeedsWeb = decision.NeedsWeb
	qc.PriorTurn = decision.PriorTurn
	if mode == domain.ModeAuto || mode == "" {
		qc.Mode = decision.Mode
	}
	if qc.IsFollowUp && len(qc.Symbols) > 0 {
		qc.ResolvedQuery = query + " (" + strings.Join(qc.Symbols, ", ") + ")"
	}
	done()

	if qc.Intent == domain.IntentChat {
		qc.FinalReport = chatReply(query)
		qc.Confidence = domain.ConfidenceHigh
		return qc, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeoutFor(qc.Mode))
	defer cancel()

	// CLARIFY
	done = stageTimer("clarify")
	if clarifyIntents[qc.Intent] && len(qc.Symbols) == 0 {
		qc.NeedsClarification = true
		qc.Clarification = "Which stock or company should I look at?"
		done()
		return qc, nil
	}
	if horizonIntents[qc.Intent] {
		qc.Assumptions = map[string]string{
			"risk_tolerance":     prefs.RiskTolerance,
			"investment_horizon": prefs.InvestmentHorizon,
		}
	}
	done()

	// GATHER
	done = stageTimer("gather")
	qc.Evidence = p.gatherer.Gather(ctx, qc)
	done()

	// SYNTHESIZE
	done = stageTimer("synthesize")
	report, err := p.synth.Synthesize(ctx, qc, prefs)
	if err != nil {
		p.logger.Warn("synthesis failed, using evidence fallback", zap.Error(err))
		report = fallbackReport(qc)
	}
	qc.FinalReport = report
	done()

	// ASSESS
	done = stageTimer("assess")
	qc.Confidence, qc.ConfidenceReasons, qc.Contradictions = p.assessor.Assess(&qc.Evidence)
	qc.FinalReport += assessmentFooter(qc)
	done()

	// PERSIST runs even when the request deadline has expired; a lost
	// memory write is logged, never surfaced.
	done = stageTimer("persist")
	persistCtx, persistCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer persistCancel()
	rec := domain.MemoryRecord{
		Query:   qc.RawQuery,
		Symbols: qc.Symbols,
		Intent:  qc.Intent,
		Summary: summarize(qc.FinalReport),
	}
	if err := p.memory.Write(persistCtx, rec); err != nil {
		p.logger.Warn("memory persist failed", zap.Error(err))
	}
	done()

	metrics.PipelineRunsTotal.WithLabelValues(string(qc.Intent), string(qc.Confidence)).Inc()
	p.logger.Info("pipeline run complete",
		zap.String("intent", string(qc.Intent)),
		zap.String("mode", string(qc.Mode)),
		zap.String("confidence", string(qc.Confidence)),
		zap.Duration("elapsed", time.Since(qc.StartedAt)),
	)
	return qc, nil
}

func (p *Pipeline) timeoutFor(mode domain.AnalysisMode) time.Duration {
	if mode == domain.ModeDeep {
		return p.cfg.DeepTimeout
	}
	return p.cfg.QuickTimeout
}

func stageTimer(stage string) func() {
	start := time.Now()
	return func() {
		metrics.PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

func chatReply(query string) string {
	lower := strings.ToLower(strings.TrimSpace(query))
	if strings.Contains(lower, "thank") {
		return "You're welcome. Anything else you'd like to research?"
	}
	return "Hi! Ask me about a stock, a sector, or the market and I'll put together a research summary."
}

// fallbackReport renders the raw evidence when the generation service
// is unavailable. Less polished than a synthesized report but never
// empty-handed.
func fallbackReport(qc *domain.QueryContext) string {
	var b strings.Builder
	b.WriteString("Synthesis is temporarily unavailable; here is the gathered evidence.\n")
	for _, snap := range qc.Evidence.Market {
		fmt.Fprintf(&b, "- %s: %.2f %s (%+.2f%%)\n", snap.Symbol, snap.Price, snap.Currency, snap.ChangePct)
	}
	for i, cand := range qc.Evidence.RetrievedDocs {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "- %s\n", firstLine(cand.Document.Text))
	}
	for i, hit := range qc.Evidence.WebHits {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "- %s (%s)\n", hit.Title, hit.URL)
	}
	if qc.Evidence.ItemCount() == 0 {
		b.WriteString("No evidence could be gathered for this query.\n")
	}
	return b.String()
}

func assessmentFooter(qc *domain.QueryContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n\nConfidence: %s", qc.Confidence)
	for _, c := range qc.Contradictions {
		fmt.Fprintf(&b, "\nNote: %s (%s contradiction)", c.Description, c.Severity)
	}
	return b.String()
}

func summarize(report string) string {
	const max = 300
	report = strings.TrimSpace(report)
	if len(report) <= max {
		return report
	}
	// Back up to a rune boundary so the stored summary stays valid UTF-8.
	cut := max
	for cut > 0 && !utf8.RuneStart(report[cut]) {
		cut--
	}
	return report[:cut]
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i > 0 {
		return text[:i]
	}
	if len(text) > 120 {
		return text[:120]
	}
	return text
}
