package domain

import "context"

// Embedder vectorizes text. Implemented by an external embedding service.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TemplateID selects a prompt template for the generation capability.
type TemplateID string

const (
	TemplateHyde    TemplateID = "hyde"
	TemplateQuick   TemplateID = "quick"
	TemplateDeep    TemplateID = "deep"
	TemplateSuggest TemplateID = "suggest"
)

// Generator produces text from a prompt. Used for HyDE expansion and
// for report synthesis; the core treats it as a black box.
type Generator interface {
	Complete(ctx context.Context, prompt string, template TemplateID) (string, error)
}

// Reranker scores a (query, candidate) pair jointly, cross-encoder style.
type Reranker interface {
	Score(ctx context.Context, query, candidate string) (float64, error)
}

// VectorHit is one semantic search result: the stored payload plus a
// similarity score in [0,1].
type VectorHit struct {
	ID      string
	Score   float64
	Payload map[string]string
}

// VectorStore is the capability wrapper around the external vector index.
type VectorStore interface {
	EnsureCollection(ctx context.Context, collection string, dims int) error
	Upsert(ctx context.Context, collection, id string, vector []float32, payload map[string]string) error
	Query(ctx context.Context, collection string, vector []float32, k int, filter map[string]string) ([]VectorHit, error)
	// List pages stored payloads; used to rebuild the lexical index on startup.
	List(ctx context.Context, collection string, offset, limit int) ([]VectorHit, error)
}

// MarketDataTool fetches a live snapshot for one instrument.
type MarketDataTool interface {
	Snapshot(ctx context.Context, symbol string, deep bool) (MarketSnapshot, error)
}

// WebSearchTool is the deep-search fallback for topics the local corpus
// does not cover.
type WebSearchTool interface {
	Search(ctx context.Context, query string, k int) ([]WebHit, error)
}
