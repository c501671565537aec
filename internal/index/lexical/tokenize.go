package lexical

import (
	"regexp"
	"strings"
)

// tokenRe keeps ticker symbols with exchange suffixes (HDFCBANK.NS),
// plain numbers, and percentages intact. Financial queries live and die
// by exact tokens like "q3" or "8.5%".
var tokenRe = regexp.MustCompile(`[a-z0-9]+(?:\.[a-z0-9]+)*%?`)

// Tokenize lowercases text and splits it into search terms. Single-letter
// tokens are dropped unless they are digits.
func Tokenize(text string) []string {
	matches := tokenRe.FindAllString(strings.ToLower(text), -1)
	tokens := matches[:0]
	for _, t := range matches {
		if len(t) > 1 || (t >= "0" && t <= "9") {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
