// Package assess cross-validates gathered evidence and assigns the
// confidence label. The policy is deterministic: identical bundles
// always produce identical labels and reasons.
package assess

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
)

// Thresholds tune contradiction detection, in percent of price change.
type Thresholds struct {
	// TolerancePct is the dead zone: moves within it carry no direction
	// signal and never contradict anything.
	TolerancePct float64
	// SignificantPct upgrades a contradiction from minor to significant.
	SignificantPct float64
}

// DefaultThresholds returns the standard detection thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{TolerancePct: 1.0, SignificantPct: 3.0}
}

// Engine assigns confidence and detects contradictions.
type Engine struct {
	thresholds Thresholds
	logger     *zap.Logger
}

func New(thresholds Thresholds, logger *zap.Logger) *Engine {
	if thresholds.TolerancePct == 0 {
		thresholds = DefaultThresholds()
	}
	return &Engine{thresholds: thresholds, logger: logger}
}

// Assess evaluates the bundle and returns the confidence label, the
// reasons behind it, and any detected contradictions.
func (e *Engine) Assess(bundle *domain.EvidenceBundle) (domain.Confidence, []domain.Reason, []domain.Contradiction) {
	contradictions := e.detectContradictions(bundle)
	confidence, reasons := e.score(bundle, contradictions)

	e.logger.Info("assessment complete",
		zap.String("confidence", string(confidence)),
		zap.Int("contradictions", len(contradictions)),
		zap.Int("sources", bundle.SourceCount()),
	)
	return confidence, reasons, contradictions
}

// detectContradictions compares each instrument's price direction with
// the sentiment of coverage mentioning it. The check is symmetric: a
// rising price against negative coverage flags exactly like a falling
// price against positive coverage.
func (e *Engine) detectContradictions(bundle *domain.EvidenceBundle) []domain.Contradiction {
	var out []domain.Contradiction
	for _, snap := range bundle.Market {
		if snap.ChangePct > -e.thresholds.TolerancePct && snap.ChangePct < e.thresholds.TolerancePct {
			continue
		}
		priceDir := 1
		if snap.ChangePct < 0 {
			priceDir = -1
		}

		sentiment := e.coverageSentiment(bundle, snap.Symbol)
		if sentiment == 0 || sentiment == priceDir {
			continue
		}

		severity := domain.SeverityMinor
		if snap.ChangePct >= e.thresholds.SignificantPct || snap.ChangePct <= -e.thresholds.SignificantPct {
			severity = domain.SeveritySignificant
		}

		direction := "up"
		tone := "negative"
		cause := "the negative coverage may already be priced in"
		if priceDir < 0 {
			direction = "down"
			tone = "positive"
			cause = "the positive coverage is not yet reflected in the price"
		}
		out = append(out, domain.Contradiction{
			Symbol: snap.Symbol,
			Description: fmt.Sprintf("price is %s %.1f%% while coverage sentiment is %s; %s",
				direction, snap.ChangePct, tone, cause),
			Severity: severity,
		})
	}
	return out
}

// coverageSentiment aggregates the polarity of documents and web hits
// that mention the symbol.
func (e *Engine) coverageSentiment(bundle *domain.EvidenceBundle, symbol string) int {
	total := 0
	for _, cand := range bundle.RetrievedDocs {
		if mentionsSymbol(cand.Document.Symbols, cand.Document.Text, symbol) {
			total += sentimentOf(cand.Document.Text)
		}
	}
	for _, hit := range bundle.WebHits {
		if mentionsText(hit.Title+" "+hit.Snippet, symbol) {
			total += sentimentOf(hit.Title + " " + hit.Snippet)
		}
	}
	switch {
	case total > 0:
		return 1
	case total < 0:
		return -1
	default:
		return 0
	}
}

// score applies the confidence policy in order: the first matching rule
// wins.
func (e *Engine) score(bundle *domain.EvidenceBundle, contradictions []domain.Contradiction) (domain.Confidence, []domain.Reason) {
	sources := bundle.SourceCount()
	live := bundle.HasLiveMarketData()
	significant := false
	for _, c := range contradictions {
		if c.Severity == domain.SeveritySignificant {
			significant = true
		}
	}

	var reasons []domain.Reason
	reasons = append(reasons, domain.Reason{
		Text:     fmt.Sprintf("%d evidence source groups contributed", sources),
		Supports: sources >= 3,
	})
	if live {
		reasons = append(reasons, domain.Reason{Text: "live market data available", Supports: true})
	} else {
		reasons = append(reasons, domain.Reason{Text: "no live market data", Supports: false})
	}
	switch {
	case len(contradictions) == 0:
		reasons = append(reasons, domain.Reason{Text: "no contradictions between sources", Supports: true})
	case significant:
		reasons = append(reasons, domain.Reason{Text: "significant contradiction between price action and coverage", Supports: false})
	default:
		reasons = append(reasons, domain.Reason{Text: "minor contradiction between price action and coverage", Supports: false})
	}

	if bundle.ItemCount() == 0 {
		reasons = append(reasons, domain.Reason{Text: "no evidence gathered", Supports: false})
		return domain.ConfidenceLow, reasons
	}
	if sources >= 3 && live && len(contradictions) == 0 {
		return domain.ConfidenceHigh, reasons
	}
	if sources >= 2 && !significant {
		return domain.ConfidenceMedium, reasons
	}
	return domain.ConfidenceLow, reasons
}

func mentionsSymbol(symbols []string, text, symbol string) bool {
	for _, s := range symbols {
		if s == symbol {
			return true
		}
	}
	return mentionsText(text, symbol)
}

// mentionsText matches the bare instrument name, ignoring the exchange
// suffix, so "TCS.NS" matches text talking about "TCS".
func mentionsText(text, symbol string) bool {
	base := symbol
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(base))
}
