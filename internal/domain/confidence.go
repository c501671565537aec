package domain

// Confidence is the three-level label attached to every report.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Reason is one factor behind a confidence label. Supports marks whether
// the factor raised confidence (true) or detracted from it (false).
type Reason struct {
	Text     string
	Supports bool
}

// Severity classifies a contradiction.
type Severity string

const (
	SeverityMinor       Severity = "minor"
	SeveritySignificant Severity = "significant"
)

// Contradiction is a disagreement between evidence sources, typically
// price direction vs. news sentiment for one symbol.
type Contradiction struct {
	Symbol      string
	Description string
	Severity    Severity
}
