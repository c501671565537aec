package assess

import "strings"

// Keyword polarity lists for news text. Deliberately small and biased
// toward strong market-moving words; neutral coverage scores zero.
var (
	negativeWords = []string{
		"crash", "plunge", "plummet", "collapse", "crisis", "sell-off",
		"selloff", "slump", "tumble", "downgrade", "missed estimates",
		"miss", "fraud", "probe", "scandal", "layoff", "default",
		"bankrupt", "weak demand", "profit falls", "losses widen",
	}
	positiveWords = []string{
		"beat", "beats", "surge", "soar", "rally", "record high",
		"record profit", "strong growth", "strong results", "upgrade",
		"jump", "outperform", "all-time high", "profit rises",
		"margin expansion", "robust",
	}
)

// sentimentOf scores text polarity: positive counts minus negative
// counts, clamped to the sign.
func sentimentOf(text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			score++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			score--
		}
	}
	switch {
	case score > 0:
		return 1
	case score < 0:
		return -1
	default:
		return 0
	}
}
