package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// SourceType identifies where a document was ingested from.
type SourceType string

const (
	SourceNews     SourceType = "news"
	SourceResearch SourceType = "research"
	SourceWeb      SourceType = "web"
)

// Document is the unit indexed by both the lexical and the semantic index.
// Documents are immutable once ingested; identity is content-derived so
// re-ingesting the same text overwrites rather than duplicates.
type Document struct {
	ID          string
	Text        string
	SourceType  SourceType
	PublishedAt time.Time
	Symbols     []string
}

// NewDocument builds a document with a content-derived ID.
func NewDocument(text string, source SourceType, publishedAt time.Time, symbols []string) Document {
	return Document{
		ID:          ContentID(text),
		Text:        text,
		SourceType:  source,
		PublishedAt: publishedAt,
		Symbols:     symbols,
	}
}

// ContentID derives the dedup key for a document text.
// Normalized to survive whitespace and case differences between feeds.
func ContentID(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:16])
}

// Payload flattens the document for vector store storage.
func (d Document) Payload() map[string]string {
	return map[string]string{
		"text":         d.Text,
		"source_type":  string(d.SourceType),
		"published_at": d.PublishedAt.UTC().Format(time.RFC3339),
		"symbols":      strings.Join(d.Symbols, ","),
	}
}

// DocumentFromPayload restores a document from a vector store payload.
func DocumentFromPayload(id string, payload map[string]string) Document {
	doc := Document{
		ID:         id,
		Text:       payload["text"],
		SourceType: SourceType(payload["source_type"]),
	}
	if ts, err := time.Parse(time.RFC3339, payload["published_at"]); err == nil {
		doc.PublishedAt = ts
	}
	if s := payload["symbols"]; s != "" {
		doc.Symbols = strings.Split(s, ",")
	}
	return doc
}

// RankedCandidate is a retrieval candidate as it moves through lexical
// scoring, RRF fusion, and cross-encoder reranking. Ranks are 1-based;
// 0 means the candidate was absent from that list.
type RankedCandidate struct {
	Document     Document
	LexicalRank  int
	SemanticRank int
	FusedScore   float64
	RerankScore  float64
	// Score is the stage-dependent ordering key: BM25 for lexical hits,
	// fused score after RRF, rerank score after the cross-encoder.
	Score float64
}
