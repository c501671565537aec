package domain

// Intent is the closed set of query routes.
type Intent string

const (
	IntentStockPrice      Intent = "STOCK_PRICE"
	IntentFundamentals    Intent = "FUNDAMENTALS"
	IntentTechnicals      Intent = "TECHNICALS"
	IntentRecommendations Intent = "RECOMMENDATIONS"
	IntentComparison      Intent = "COMPARISON"
	IntentNewsSearch      Intent = "NEWS_SEARCH"
	IntentPortfolio       Intent = "PORTFOLIO"
	IntentDiscovery       Intent = "DISCOVERY"
	IntentGeneral         Intent = "GENERAL"
	IntentChat            Intent = "CHAT"
)

// intentLabels are human-readable route names for reports and logs.
var intentLabels = map[Intent]string{
	IntentStockPrice:      "Price Lookup",
	IntentFundamentals:    "Fundamental Analysis",
	IntentTechnicals:      "Technical Analysis",
	IntentRecommendations: "Analyst Recommendations",
	IntentComparison:      "Comparison",
	IntentNewsSearch:      "News Search",
	IntentPortfolio:       "Portfolio Analysis",
	IntentDiscovery:       "Stock Discovery",
	IntentGeneral:         "General Market",
	IntentChat:            "Conversation",
}

// Label returns a human-readable route name.
func (i Intent) Label() string {
	if l, ok := intentLabels[i]; ok {
		return l
	}
	return string(i)
}

// Valid reports whether i is one of the ten known intents.
func (i Intent) Valid() bool {
	_, ok := intentLabels[i]
	return ok
}

// AnalysisMode controls the pipeline's time budget and gather depth.
type AnalysisMode string

const (
	ModeAuto  AnalysisMode = "auto"
	ModeQuick AnalysisMode = "quick"
	ModeDeep  AnalysisMode = "deep"
)
