package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/marketmind/researchd/internal/domain"
	"github.com/marketmind/researchd/internal/router"
)

func TestRun_EmptyQueryRejected(t *testing.T) {
	p := newTestPipeline(deps{})
	_, err := p.Run(context.Background(), "   ", domain.ModeAuto)
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("err = %v, want ErrInvalidQuery", err)
	}
}

func TestRun_HappyPath(t *testing.T) {
	d := deps{
		router: &fakeRouter{decision: router.Decision{
			Intent:  domain.IntentFundamentals,
			Symbols: []string{"TCS.NS"},
			Mode:    domain.ModeQuick,
		}},
		gatherer: &fakeGatherer{bundle: domain.EvidenceBundle{
			Market: []domain.MarketSnapshot{{Symbol: "TCS.NS", Price: 3500}},
		}},
		assessor: &fakeAssessor{confidence: domain.ConfidenceHigh},
		memory:   &fakeMemory{},
		synth:    &fakeSynth{text: "TCS shows steady margins."},
	}
	p := newTestPipeline(d)

	qc, err := p.Run(context.Background(), "TCS fundamentals", domain.ModeAuto)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if qc.Intent != domain.IntentFundamentals {
		t.Errorf("intent = %s", qc.Intent)
	}
	if !strings.Contains(qc.FinalReport, "TCS shows steady margins.") {
		t.Errorf("report missing synthesis: %q", qc.FinalReport)
	}
	if !strings.Contains(qc.FinalReport, "Confidence: HIGH") {
		t.Errorf("report missing confidence footer: %q", qc.FinalReport)
	}
	if d.gatherer.calls != 1 {
		t.Errorf("gather called %d times", d.gatherer.calls)
	}
	if len(d.memory.written) != 1 {
		t.Fatalf("persist wrote %d records, want 1", len(d.memory.written))
	}
	if d.memory.written[0].Intent != domain.IntentFundamentals {
		t.Errorf("persisted intent = %s", d.memory.written[0].Intent)
	}
}

func TestRun_ChatShortCircuits(t *testing.T) {
	d := deps{
		router:   &fakeRouter{decision: router.Decision{Intent: domain.IntentChat, Mode: domain.ModeQuick}},
		gatherer: &fakeGatherer{},
		memory:   &fakeMemory{},
	}
	p := newTestPipeline(d)

	qc, err := p.Run(context.Background(), "hello", domain.ModeAuto)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if qc.FinalReport == "" {
		t.Error("chat should return a reply")
	}
	if d.gatherer.calls != 0 {
		t.Errorf("chat must not gather evidence, called %d times", d.gatherer.calls)
	}
	if len(d.memory.written) != 0 {
		t.Error("chat turns are not persisted")
	}
}

func TestRun_ClarifyWithoutSymbols(t *testing.T) {
	d := deps{
		router:   &fakeRouter{decision: router.Decision{Intent: domain.IntentStockPrice, Mode: domain.ModeQuick}},
		gatherer: &fakeGatherer{},
	}
	p := newTestPipeline(d)

	qc, err := p.Run(context.Background(), "what is the price", domain.ModeAuto)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !qc.NeedsClarification || qc.Clarification == "" {
		t.Fatalf("expected a clarification request, got %+v", qc)
	}
	if d.gatherer.calls != 0 {
		t.Errorf("clarification must precede gather, called %d times", d.gatherer.calls)
	}
}

func TestRun_HorizonIntentsAutoFillAssumptions(t *testing.T) {
	d := deps{
		router: &fakeRouter{decision: router.Decision{
			Intent:  domain.IntentRecommendations,
			Symbols: []string{"TCS.NS"},
			Mode:    domain.ModeQuick,
		}},
	}
	p := newTestPipeline(d)

	qc, err := p.Run(context.Background(), "should I buy TCS", domain.ModeAuto)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if qc.NeedsClarification {
		t.Fatal("preferences should auto-fill instead of asking")
	}
	if qc.Assumptions["risk_tolerance"] != "moderate" || qc.Assumptions["investment_horizon"] != "long-term" {
		t.Errorf("assumptions = %v", qc.Assumptions)
	}
}

func TestRun_SynthesisFailureFallsBackToEvidence(t *testing.T) {
	d := deps{
		router: &fakeRouter{decision: router.Decision{
			Intent:  domain.IntentStockPrice,
			Symbols: []string{"TCS.NS"},
			Mode:    domain.ModeQuick,
		}},
		gatherer: &fakeGatherer{bundle: domain.EvidenceBundle{
			Market: []domain.MarketSnapshot{{Symbol: "TCS.NS", Price: 3500, Currency: "INR", ChangePct: 1.2}},
		}},
		synth: &fakeSynth{err: errSynthDown},
	}
	p := newTestPipeline(d)

	qc, err := p.Run(context.Background(), "TCS price", domain.ModeAuto)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(qc.FinalReport, "TCS.NS") {
		t.Errorf("fallback report should list gathered evidence: %q", qc.FinalReport)
	}
	if !strings.Contains(qc.FinalReport, "Confidence:") {
		t.Errorf("fallback report still gets the confidence footer: %q", qc.FinalReport)
	}
}

func TestRun_PersistFailureIsNotSurfaced(t *testing.T) {
	d := deps{
		router: &fakeRouter{decision: router.Decision{
			Intent:  domain.IntentStockPrice,
			Symbols: []string{"TCS.NS"},
			Mode:    domain.ModeQuick,
		}},
		memory: &fakeMemory{writeErr: errors.New("store down")},
	}
	p := newTestPipeline(d)

	if _, err := p.Run(context.Background(), "TCS price", domain.ModeAuto); err != nil {
		t.Fatalf("persist failure must not surface: %v", err)
	}
}

func TestRun_ExplicitModeOverridesDetection(t *testing.T) {
	d := deps{
		router: &fakeRouter{decision: router.Decision{
			Intent:  domain.IntentFundamentals,
			Symbols: []string{"TCS.NS"},
			Mode:    domain.ModeQuick,
		}},
	}
	p := newTestPipeline(d)

	qc, err := p.Run(context.Background(), "TCS fundamentals", domain.ModeDeep)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if qc.Mode != domain.ModeDeep {
		t.Errorf("mode = %s, want explicit deep", qc.Mode)
	}

	qc, err = p.Run(context.Background(), "TCS fundamentals", domain.ModeAuto)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if qc.Mode != domain.ModeQuick {
		t.Errorf("mode = %s, want detected quick", qc.Mode)
	}
}

func TestRun_FollowUpResolvedQueryCarriesSymbols(t *testing.T) {
	d := deps{
		router: &fakeRouter{decision: router.Decision{
			Intent:     domain.IntentTechnicals,
			Symbols:    []string{"TCS.NS"},
			IsFollowUp: true,
			Mode:       domain.ModeQuick,
		}},
	}
	p := newTestPipeline(d)

	qc, err := p.Run(context.Background(), "what about its technicals", domain.ModeAuto)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(qc.ResolvedQuery, "TCS.NS") {
		t.Errorf("resolved query should carry inherited symbols: %q", qc.ResolvedQuery)
	}
}

func TestSummarize_CutsAtRuneBoundary(t *testing.T) {
	short := "TCS looks steady."
	if got := summarize(short); got != short {
		t.Errorf("short report should pass through, got %q", got)
	}

	// Byte 300 lands in the middle of the first rupee sign.
	long := strings.Repeat("a", 299) + strings.Repeat("₹", 4)
	got := summarize(long)
	if len(got) > 300 {
		t.Errorf("summary = %d bytes, want <= 300", len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("summary is not valid UTF-8: %q", got[len(got)-4:])
	}
	if got != strings.Repeat("a", 299) {
		t.Errorf("expected the split rune dropped, got %d bytes", len(got))
	}
}
