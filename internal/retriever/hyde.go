package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/marketmind/researchd/internal/domain"
)

// queryType selects a finance-specific HyDE template. Short queries and
// long documents live in different embedding neighborhoods; a
// hypothetical ideal answer bridges the gap.
type queryType string

const (
	queryEarnings queryType = "earnings"
	queryMarket   queryType = "market"
	querySector   queryType = "sector"
	queryStock    queryType = "stock"
	queryDefault  queryType = "default"
)

var hydeHints = map[queryType]string{
	queryEarnings: "a quarterly earnings analysis covering revenue, EPS, guidance, and analyst reactions",
	queryMarket:   "a market overview covering index moves, central bank policy, inflation data, and sector rotation",
	querySector:   "a sector analysis covering industry trends, regulation, and the competitive landscape",
	queryStock:    "a single-stock report covering price action, earnings, price targets, and trading volume",
	queryDefault:  "a financial news summary covering recent developments and their market implications",
}

func detectQueryType(query string) queryType {
	q := strings.ToLower(query)
	switch {
	case containsAny(q, "earnings", "revenue", "profit", "quarter", "q1", "q2", "q3", "q4"):
		return queryEarnings
	case containsAny(q, "market", "sensex", "nifty", "index", "dow", "nasdaq"):
		return queryMarket
	case containsAny(q, "sector", "industry", "banking", "tech", "pharma", "auto"):
		return querySector
	case containsAny(q, "stock", "share", "price", "buy", "sell"):
		return queryStock
	default:
		return queryDefault
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// expandHyDE asks the generation capability for a short hypothetical
// answer to embed alongside the raw query.
func expandHyDE(ctx context.Context, gen domain.Generator, query string) (string, error) {
	hint := hydeHints[detectQueryType(query)]
	prompt := fmt.Sprintf(
		"Write a short hypothetical passage (3-5 sentences) that would perfectly answer "+
			"the question below, phrased as %s. Use plausible but generic figures. "+
			"Output only the passage.\n\nQuestion: %s",
		hint, query,
	)
	text, err := gen.Complete(ctx, prompt, domain.TemplateHyde)
	if err != nil {
		return "", fmt.Errorf("hyde expansion: %w", err)
	}
	return strings.TrimSpace(text), nil
}
