// Package memory persists research turns and user preferences in
// dedicated vector store collections. Turn records are append-only;
// retrieval is similarity search over the embedded query. Memory
// failures never fail the primary request; callers log and proceed.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
)

// preferencesID is the fixed upsert key for the preferences singleton.
const preferencesID = "user_preferences_v1"

// Config holds memory store settings.
type Config struct {
	TurnsCollection string
	PrefsCollection string
	// MinSimilarity is the retrieval threshold; below it a stored turn is
	// treated as "no relevant memory", not an error.
	MinSimilarity float64
	// FreshTTL bounds how long a cached research turn counts as fresh.
	FreshTTL time.Duration
	Dims     int
}

// DefaultConfig returns the standard memory settings.
func DefaultConfig(dims int) Config {
	return Config{
		TurnsCollection: "memory_turns",
		PrefsCollection: "memory_prefs",
		MinSimilarity:   0.70,
		FreshTTL:        24 * time.Hour,
		Dims:            dims,
	}
}

// Store is the conversational memory. Concurrent readers are safe;
// writes serialize on an internal lock.
type Store struct {
	vectors domain.VectorStore
	embed   domain.Embedder
	cfg     Config
	logger  *zap.Logger

	mu           sync.RWMutex
	prefs        domain.Preferences
	lastTurn     *domain.MemoryRecord
	symbolCounts map[string]int
	intentCounts map[domain.Intent]int
}

// New creates a memory store over the vector store capability.
func New(vectors domain.VectorStore, embed domain.Embedder, cfg Config, logger *zap.Logger) *Store {
	return &Store{
		vectors:      vectors,
		embed:        embed,
		cfg:          cfg,
		logger:       logger,
		prefs:        domain.DefaultPreferences(),
		symbolCounts: make(map[string]int),
		intentCounts: make(map[domain.Intent]int),
	}
}

// Init ensures collections exist and loads stored preferences.
func (s *Store) Init(ctx context.Context) error {
	for _, coll := range []string{s.cfg.TurnsCollection, s.cfg.PrefsCollection} {
		if err := s.vectors.EnsureCollection(ctx, coll, s.cfg.Dims); err != nil {
			return fmt.Errorf("ensure collection %s: %w", coll, err)
		}
	}

	hits, err := s.vectors.List(ctx, s.cfg.PrefsCollection, 0, 1)
	if err != nil {
		s.logger.Warn("could not load stored preferences, using defaults", zap.Error(err))
		return nil
	}
	for _, h := range hits {
		var stored domain.Preferences
		if err := json.Unmarshal([]byte(h.Payload["preferences"]), &stored); err != nil {
			s.logger.Warn("stored preferences unreadable, using defaults", zap.Error(err))
			continue
		}
		s.mu.Lock()
		s.prefs = stored
		s.mu.Unlock()
	}
	return nil
}

// Write appends one turn record. Records are never mutated after write
// and writes are not retried to avoid duplicates.
func (s *Store) Write(ctx context.Context, rec domain.MemoryRecord) error {
	if rec.TurnID == "" {
		rec.TurnID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	vec, err := s.embed.Embed(ctx, embeddingText(rec))
	if err != nil {
		return fmt.Errorf("embed memory record: %w", err)
	}

	payload := map[string]string{
		"query":     rec.Query,
		"symbols":   strings.Join(rec.Symbols, ","),
		"intent":    string(rec.Intent),
		"summary":   rec.Summary,
		"timestamp": rec.Timestamp.UTC().Format(time.RFC3339),
	}
	if err := s.vectors.Upsert(ctx, s.cfg.TurnsCollection, rec.TurnID, vec, payload); err != nil {
		return fmt.Errorf("persist memory record: %w", err)
	}

	s.mu.Lock()
	s.lastTurn = &rec
	for _, sym := range rec.Symbols {
		s.symbolCounts[sym]++
	}
	s.intentCounts[rec.Intent]++
	s.mu.Unlock()

	return nil
}

// QuerySimilar returns at most k past turns whose similarity clears the
// configured threshold, most similar first. Below-threshold results are
// dropped silently.
func (s *Store) QuerySimilar(ctx context.Context, query string, k int) ([]domain.MemoryRecord, error) {
	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed memory query: %w", err)
	}

	hits, err := s.vectors.Query(ctx, s.cfg.TurnsCollection, vec, k, nil)
	if err != nil {
		return nil, fmt.Errorf("query memory: %w", err)
	}

	now := time.Now()
	records := make([]domain.MemoryRecord, 0, len(hits))
	for _, h := range hits {
		if h.Score < s.cfg.MinSimilarity {
			continue
		}
		records = append(records, s.recordFromHit(h, now))
	}
	return records, nil
}

// LastTurn returns the most recent turn of this session, or nil.
func (s *Store) LastTurn() *domain.MemoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastTurn == nil {
		return nil
	}
	rec := *s.lastTurn
	return &rec
}

// GetPreferences returns the current preferences snapshot.
func (s *Store) GetPreferences() domain.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// UpdatePreferences applies a partial update and persists the result.
// The only operation that mutates preferences.
func (s *Store) UpdatePreferences(ctx context.Context, delta domain.PreferenceDelta) (domain.Preferences, error) {
	s.mu.Lock()
	updated := delta.Apply(s.prefs)
	s.prefs = updated
	s.mu.Unlock()

	raw, err := json.Marshal(updated)
	if err != nil {
		return updated, fmt.Errorf("encode preferences: %w", err)
	}

	vec, err := s.embed.Embed(ctx, "user preferences: "+string(raw))
	if err != nil {
		return updated, fmt.Errorf("embed preferences: %w", err)
	}

	payload := map[string]string{
		"preferences": string(raw),
		"updated_at":  time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.vectors.Upsert(ctx, s.cfg.PrefsCollection, preferencesID, vec, payload); err != nil {
		return updated, fmt.Errorf("persist preferences: %w", err)
	}
	return updated, nil
}

// SuggestNext summarizes this session's research patterns into a
// suggestion for what to look at next.
func (s *Store) SuggestNext() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.symbolCounts) == 0 && len(s.intentCounts) == 0 {
		return "No research history yet. Try asking about a stock on your watch list."
	}

	var parts []string
	if top := topKey(s.symbolCounts); top != "" {
		parts = append(parts, fmt.Sprintf("You research %s most often.", top))
	}
	if len(s.intentCounts) > 0 {
		counts := make(map[string]int, len(s.intentCounts))
		for intent, n := range s.intentCounts {
			counts[intent.Label()] = n
		}
		parts = append(parts, fmt.Sprintf("Your most used analysis type is %s.", topKey(counts)))
	}
	if len(s.prefs.Sectors) > 0 {
		parts = append(parts, fmt.Sprintf(
			"Based on your sector interest (%s), check for rotation signals.",
			strings.Join(s.prefs.Sectors, ", ")))
	}
	return strings.Join(parts, " ")
}

func (s *Store) recordFromHit(h domain.VectorHit, now time.Time) domain.MemoryRecord {
	rec := domain.MemoryRecord{
		TurnID:     h.ID,
		Query:      h.Payload["query"],
		Intent:     domain.Intent(h.Payload["intent"]),
		Summary:    h.Payload["summary"],
		Similarity: h.Score,
	}
	if syms := h.Payload["symbols"]; syms != "" {
		rec.Symbols = strings.Split(syms, ",")
	}
	if ts, err := time.Parse(time.RFC3339, h.Payload["timestamp"]); err == nil {
		rec.Timestamp = ts
		rec.Fresh = now.Sub(ts) <= s.cfg.FreshTTL
	}
	return rec
}

// embeddingText is the similarity key: the query plus the symbols it
// resolved to, so "what about its technicals" lands near prior turns on
// the same instrument.
func embeddingText(rec domain.MemoryRecord) string {
	if len(rec.Symbols) == 0 {
		return rec.Query
	}
	return rec.Query + " " + strings.Join(rec.Symbols, " ")
}

func topKey(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}
