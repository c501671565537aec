package router

import (
	"regexp"
	"sort"
	"strings"
)

// symbolAliases maps lowercase company names and common shorthand to
// exchange symbols. Longest alias wins so "tata consultancy services"
// resolves before "tata".
var symbolAliases = map[string]string{
	"tata consultancy services": "TCS.NS",
	"tata consultancy":          "TCS.NS",
	"tcs":                       "TCS.NS",
	"infosys":                   "INFY.NS",
	"infy":                      "INFY.NS",
	"reliance industries":       "RELIANCE.NS",
	"reliance":                  "RELIANCE.NS",
	"hdfc bank":                 "HDFCBANK.NS",
	"hdfcbank":                  "HDFCBANK.NS",
	"icici bank":                "ICICIBANK.NS",
	"icici":                     "ICICIBANK.NS",
	"state bank of india":       "SBIN.NS",
	"state bank":                "SBIN.NS",
	"sbi":                       "SBIN.NS",
	"wipro":                     "WIPRO.NS",
	"itc":                       "ITC.NS",
	"bharti airtel":             "BHARTIARTL.NS",
	"airtel":                    "BHARTIARTL.NS",
	"tata motors":               "TATAMOTORS.NS",
	"tata steel":                "TATASTEEL.NS",
	"maruti suzuki":             "MARUTI.NS",
	"maruti":                    "MARUTI.NS",
	"asian paints":              "ASIANPAINT.NS",
	"bajaj finance":             "BAJFINANCE.NS",
	"kotak mahindra bank":       "KOTAKBANK.NS",
	"kotak":                     "KOTAKBANK.NS",
	"axis bank":                 "AXISBANK.NS",
	"larsen and toubro":         "LT.NS",
	"larsen & toubro":           "LT.NS",
	"hindustan unilever":        "HINDUNILVR.NS",
	"adani enterprises":         "ADANIENT.NS",
	"sun pharma":                "SUNPHARMA.NS",
	"hcl tech":                  "HCLTECH.NS",
	"hcl technologies":          "HCLTECH.NS",
}

// aliasesByLength is the alias list sorted longest-first, built once.
var aliasesByLength = func() []string {
	out := make([]string, 0, len(symbolAliases))
	for alias := range symbolAliases {
		out = append(out, alias)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}()

var (
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9.& ]+`)
	// tickerRe matches explicit uppercase tickers, optionally with an
	// exchange suffix, as the user typed them.
	tickerRe = regexp.MustCompile(`\b[A-Z]{2,}(?:\.[A-Z]{1,3})?\b`)
)

// ResolveSymbols extracts exchange symbols from a query. Known company
// names are matched longest-first on word boundaries; explicit uppercase
// tickers are taken verbatim, defaulting to the .NS suffix. Order of
// first appearance is preserved and duplicates are dropped.
func ResolveSymbols(query string) []string {
	var matches []symbolMatch
	seen := map[string]bool{}

	normalized := " " + nonAlnumRe.ReplaceAllString(strings.ToLower(query), " ") + " "
	for _, alias := range aliasesByLength {
		idx := strings.Index(normalized, " "+alias+" ")
		if idx < 0 {
			continue
		}
		sym := symbolAliases[alias]
		if !seen[sym] {
			seen[sym] = true
			matches = append(matches, symbolMatch{pos: idx, symbol: sym})
		}
		// Blank out the matched span so "tata consultancy" does not also
		// resolve the shorter "tata motors" alias fragment.
		normalized = normalized[:idx] + strings.Repeat(" ", len(alias)+2) + normalized[idx+len(alias)+2:]
	}

	for _, loc := range tickerRe.FindAllStringIndex(query, -1) {
		token := query[loc[0]:loc[1]]
		if isCommonUpperWord(token) {
			continue
		}
		sym := token
		if !strings.Contains(sym, ".") {
			sym += ".NS"
		}
		if !seen[sym] {
			seen[sym] = true
			matches = append(matches, symbolMatch{pos: loc[0], symbol: sym})
		}
	}

	if len(matches) == 0 {
		return nil
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.symbol)
	}
	return out
}

type symbolMatch struct {
	pos    int
	symbol string
}

// commonUpperWords are shouty tokens that are not tickers.
var commonUpperWords = map[string]bool{
	"PE": true, "EPS": true, "ROE": true, "RSI": true, "MACD": true,
	"IPO": true, "GDP": true, "RBI": true, "YOY": true, "QOQ": true,
	"EBITDA": true, "NSE": true, "BSE": true, "ETF": true, "FII": true,
	"DII": true, "OK": true, "AND": true, "THE": true, "VS": true,
	"IT": true, "PSU": true, "FMCG": true,
}

func isCommonUpperWord(token string) bool {
	return commonUpperWords[strings.TrimSuffix(token, ".NS")]
}
