// Package router classifies queries into one of ten research routes
// using ordered deterministic rules, detects conversational follow-ups,
// and picks the analysis mode. Same query plus same prior turn always
// yields the same decision.
package router

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
)

// Decision is the routing outcome for one query.
type Decision struct {
	Intent     domain.Intent
	Symbols    []string
	IsFollowUp bool
	NeedsWeb   bool
	Mode       domain.AnalysisMode
	PriorTurn  *domain.MemoryRecord
}

// Router classifies queries. Stateless; prior-turn context comes from
// the caller.
type Router struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Router {
	return &Router{logger: logger}
}

var greetings = []string{
	"hi", "hello", "hey", "yo", "thanks", "thank you", "good morning",
	"good afternoon", "good evening", "bye", "goodbye", "ok", "okay",
}

// followUpRe matches anaphoric references to a prior turn.
var followUpRe = regexp.MustCompile(`(?i)\b(what about|how about|and (its|their|the)|its |their |same for|also (show|check|give)|compare (it|that|them)|this (stock|one|company)|that (stock|one|company)|tell me more|more details|go deeper)\b`)

var deepTriggers = []string{
	"deep dive", "detailed", "comprehensive", "thorough", "in-depth",
	"in depth", "full analysis", "complete analysis", "everything about",
}

var intentKeywords = []struct {
	intent domain.Intent
	words  []string
}{
	{domain.IntentComparison, []string{" vs ", " versus ", "compare", "better than", "or should i"}},
	{domain.IntentRecommendations, []string{"should i buy", "should i sell", "should i hold", "recommend", "target price", "analyst", "rating", "buy or sell", "worth buying"}},
	{domain.IntentTechnicals, []string{"technical", "rsi", "macd", "moving average", "support", "resistance", "breakout", "chart pattern", "momentum", "overbought", "oversold"}},
	{domain.IntentFundamentals, []string{"fundamental", "pe ratio", "p/e", "valuation", "revenue", "profit", "margin", "earnings", "balance sheet", "debt", "roe", "ebitda", "cash flow", "quarterly results"}},
	{domain.IntentNewsSearch, []string{"news", "headline", "announcement", "latest on", "what happened", "why did", "why is"}},
	{domain.IntentStockPrice, []string{"price", "quote", "trading at", "share price", "how much is", "current value", "ltp"}},
	{domain.IntentPortfolio, []string{"my portfolio", "my holdings", "my watchlist", "my stocks", "my watch list"}},
	{domain.IntentDiscovery, []string{"find stocks", "which stocks", "suggest stocks", "top stocks", "best stocks", "screen for", "stocks to", "good stocks"}},
	{domain.IntentGeneral, []string{"market", "nifty", "sensex", "economy", "inflation", "rbi", "fed", "interest rate", "gdp", "sector outlook"}},
}

// webIntents always pull live web results during GATHER.
var webIntents = map[domain.Intent]bool{
	domain.IntentNewsSearch: true,
	domain.IntentDiscovery:  true,
	domain.IntentGeneral:    true,
}

// Route classifies one query. prior is the previous turn of this
// session, or nil; prefs supplies the watch list for the portfolio
// route.
func (r *Router) Route(query string, prior *domain.MemoryRecord, prefs domain.Preferences) Decision {
	trimmed := strings.TrimSpace(query)
	lower := strings.ToLower(trimmed)

	if isGreeting(lower) {
		return Decision{Intent: domain.IntentChat, Mode: domain.ModeQuick}
	}

	d := Decision{Symbols: ResolveSymbols(trimmed), PriorTurn: prior}

	// A follow-up names no symbols of its own but refers back to the
	// prior turn; it inherits that turn's symbols.
	if len(d.Symbols) == 0 && prior != nil && followUpRe.MatchString(lower) {
		d.IsFollowUp = true
		d.Symbols = append(d.Symbols, prior.Symbols...)
	}

	d.Intent = classify(lower, d.Symbols, prefs)

	// A follow-up with no topic shift of its own keeps the prior route.
	if d.IsFollowUp && !anyKeywordMatched(lower) {
		d.Intent = prior.Intent
	}

	d.NeedsWeb = webIntents[d.Intent] || containsAny(lower, "latest", "today", "recent", "this week")
	d.Mode = DetectMode(lower, domain.ModeAuto)

	r.logger.Debug("routed query",
		zap.String("intent", string(d.Intent)),
		zap.Strings("symbols", d.Symbols),
		zap.Bool("follow_up", d.IsFollowUp),
	)
	return d
}

// classify applies the keyword rules in priority order.
func classify(lower string, symbols []string, prefs domain.Preferences) domain.Intent {
	for _, rule := range intentKeywords {
		if !containsAny(lower, rule.words...) {
			continue
		}
		switch rule.intent {
		case domain.IntentComparison:
			// A comparison needs two sides; with one symbol it is a
			// plain lookup, with none it is a market question.
			if len(symbols) >= 2 {
				return domain.IntentComparison
			}
			if len(symbols) == 1 {
				return domain.IntentStockPrice
			}
			return domain.IntentGeneral
		case domain.IntentPortfolio:
			if len(prefs.WatchSymbols) > 0 || len(symbols) > 0 {
				return domain.IntentPortfolio
			}
			return domain.IntentDiscovery
		default:
			return rule.intent
		}
	}

	if allWatched(symbols, prefs) && len(symbols) > 1 {
		return domain.IntentPortfolio
	}
	if len(symbols) > 0 {
		return domain.IntentStockPrice
	}
	return domain.IntentGeneral
}

// DetectMode resolves the effective analysis mode. An explicit request
// wins; otherwise deep-analysis phrasing upgrades from quick.
func DetectMode(lowerQuery string, requested domain.AnalysisMode) domain.AnalysisMode {
	if requested == domain.ModeQuick || requested == domain.ModeDeep {
		return requested
	}
	if containsAny(lowerQuery, deepTriggers...) {
		return domain.ModeDeep
	}
	return domain.ModeQuick
}

func isGreeting(lower string) bool {
	if len(lower) < 4 {
		return true
	}
	stripped := strings.Trim(lower, " !.?")
	for _, g := range greetings {
		if stripped == g {
			return true
		}
	}
	return false
}

func allWatched(symbols []string, prefs domain.Preferences) bool {
	if len(symbols) == 0 {
		return false
	}
	for _, s := range symbols {
		if !prefs.Watching(s) {
			return false
		}
	}
	return true
}

func anyKeywordMatched(lower string) bool {
	for _, rule := range intentKeywords {
		if containsAny(lower, rule.words...) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
