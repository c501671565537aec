package chi

import (
	"time"

	"github.com/marketmind/researchd/internal/domain"
)

type researchRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode,omitempty"`
}

type reasonDTO struct {
	Text     string `json:"text"`
	Supports bool   `json:"supports"`
}

type contradictionDTO struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

type researchResponse struct {
	Intent             string             `json:"intent"`
	IntentLabel        string             `json:"intent_label"`
	Symbols            []string           `json:"symbols,omitempty"`
	FollowUp           bool               `json:"follow_up"`
	Mode               string             `json:"mode"`
	NeedsClarification bool               `json:"needs_clarification"`
	Clarification      string             `json:"clarification,omitempty"`
	Assumptions        map[string]string  `json:"assumptions,omitempty"`
	Report             string             `json:"report,omitempty"`
	Confidence         string             `json:"confidence,omitempty"`
	Reasons            []reasonDTO        `json:"confidence_reasons,omitempty"`
	Contradictions     []contradictionDTO `json:"contradictions,omitempty"`
	SourceErrors       []string           `json:"source_errors,omitempty"`
	ElapsedMs          int64              `json:"elapsed_ms"`
}

func newResearchResponse(qc *domain.QueryContext) researchResponse {
	resp := researchResponse{
		Intent:             string(qc.Intent),
		IntentLabel:        qc.Intent.Label(),
		Symbols:            qc.Symbols,
		FollowUp:           qc.IsFollowUp,
		Mode:               string(qc.Mode),
		NeedsClarification: qc.NeedsClarification,
		Clarification:      qc.Clarification,
		Assumptions:        qc.Assumptions,
		Report:             qc.FinalReport,
		Confidence:         string(qc.Confidence),
		ElapsedMs:          time.Since(qc.StartedAt).Milliseconds(),
	}
	for _, r := range qc.ConfidenceReasons {
		resp.Reasons = append(resp.Reasons, reasonDTO{Text: r.Text, Supports: r.Supports})
	}
	for _, c := range qc.Contradictions {
		resp.Contradictions = append(resp.Contradictions, contradictionDTO{
			Symbol:      c.Symbol,
			Description: c.Description,
			Severity:    string(c.Severity),
		})
	}
	for _, se := range qc.Evidence.SourceErrors {
		resp.SourceErrors = append(resp.SourceErrors, se.Source)
	}
	return resp
}

type documentDTO struct {
	Text        string   `json:"text"`
	SourceType  string   `json:"source_type"`
	PublishedAt string   `json:"published_at,omitempty"`
	Symbols     []string `json:"symbols,omitempty"`
}

type documentsRequest struct {
	Documents []documentDTO `json:"documents"`
}

type documentsResponse struct {
	Received int `json:"received"`
	Added    int `json:"added"`
}

type suggestResponse struct {
	Suggestion string `json:"suggestion"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
