// Package chi exposes the research engine over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
)

// ResearchRunner executes one pipeline run.
type ResearchRunner interface {
	Run(ctx context.Context, query string, mode domain.AnalysisMode) (*domain.QueryContext, error)
}

// DocumentIndexer ingests documents into the dual index.
type DocumentIndexer interface {
	Index(ctx context.Context, docs []domain.Document) (int, error)
}

// MemoryService is the settings and suggestion surface of the memory store.
type MemoryService interface {
	GetPreferences() domain.Preferences
	UpdatePreferences(ctx context.Context, delta domain.PreferenceDelta) (domain.Preferences, error)
	SuggestNext() string
}

// Pinger reports storage connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server handles the HTTP API.
type Server struct {
	runner  ResearchRunner
	indexer DocumentIndexer
	memory  MemoryService
	pinger  Pinger
	logger  *zap.Logger
}

// NewServer creates the HTTP handler set.
func NewServer(runner ResearchRunner, indexer DocumentIndexer, memory MemoryService, pinger Pinger, logger *zap.Logger) *Server {
	return &Server{runner: runner, indexer: indexer, memory: memory, pinger: pinger, logger: logger}
}

// Routes mounts all handlers on a fresh router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Post("/research", s.handleResearch)
		r.Post("/documents", s.handleIngest)
		r.Get("/preferences", s.handleGetPreferences)
		r.Put("/preferences", s.handleUpdatePreferences)
		r.Get("/suggest", s.handleSuggest)
	})
	r.Get("/healthz", s.handleHealth)
	return r
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	mode := domain.AnalysisMode(req.Mode)
	switch mode {
	case "", domain.ModeAuto, domain.ModeQuick, domain.ModeDeep:
	default:
		writeError(w, http.StatusBadRequest, "validation_failed", "mode must be auto, quick, or deep")
		return
	}
	if mode == "" {
		mode = domain.ModeAuto
	}

	qc, err := s.runner.Run(r.Context(), req.Query, mode)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newResearchResponse(qc))
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req documentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "documents is required")
		return
	}

	docs := make([]domain.Document, 0, len(req.Documents))
	for _, d := range req.Documents {
		if d.Text == "" {
			writeError(w, http.StatusBadRequest, "validation_failed", "document text is required")
			return
		}
		source := domain.SourceType(d.SourceType)
		switch source {
		case domain.SourceNews, domain.SourceResearch, domain.SourceWeb:
		case "":
			source = domain.SourceNews
		default:
			writeError(w, http.StatusBadRequest, "validation_failed", "unknown source_type "+d.SourceType)
			return
		}
		publishedAt := time.Now()
		if d.PublishedAt != "" {
			ts, err := time.Parse(time.RFC3339, d.PublishedAt)
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_failed", "published_at must be RFC3339")
				return
			}
			publishedAt = ts
		}
		docs = append(docs, domain.NewDocument(d.Text, source, publishedAt, d.Symbols))
	}

	added, err := s.indexer.Index(r.Context(), docs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentsResponse{Received: len(docs), Added: added})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.memory.GetPreferences())
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var delta domain.PreferenceDelta
	if err := json.NewDecoder(r.Body).Decode(&delta); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	updated, err := s.memory.UpdatePreferences(r.Context(), delta)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleSuggest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, suggestResponse{Suggestion: s.memory.SuggestNext()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDomainError maps sentinel errors to HTTP statuses.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, "validation_failed", "query is required")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", "analysis did not finish in time")
	case errors.Is(err, domain.ErrSourceUnavailable), errors.Is(err, domain.ErrGenerationUnavailable):
		writeError(w, http.StatusBadGateway, "upstream_error", "an upstream provider is unavailable")
	default:
		s.logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
