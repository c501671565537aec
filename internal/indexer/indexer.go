// Package indexer ingests documents into both retrieval indexes: the
// in-process lexical index and the external vector store. Identity is
// content-derived, so re-ingesting the same text is an overwrite.
package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
)

// LexicalIndex is the in-process side of the dual index.
type LexicalIndex interface {
	Add(docs ...domain.Document)
	Has(id string) bool
	Len() int
}

// Indexer writes documents to both indexes.
type Indexer struct {
	lexical    LexicalIndex
	vectors    domain.VectorStore
	embed      domain.Embedder
	collection string
	dims       int
	logger     *zap.Logger
}

func New(lexical LexicalIndex, vectors domain.VectorStore, embed domain.Embedder, collection string, dims int, logger *zap.Logger) *Indexer {
	return &Indexer{
		lexical:    lexical,
		vectors:    vectors,
		embed:      embed,
		collection: collection,
		dims:       dims,
		logger:     logger,
	}
}

// Init ensures the document collection exists.
func (ix *Indexer) Init(ctx context.Context) error {
	return ix.vectors.EnsureCollection(ctx, ix.collection, ix.dims)
}

// Index ingests documents, skipping exact duplicates. Returns how many
// documents were newly indexed. The vector store is written first so a
// partial failure never leaves a lexical-only document that semantic
// search cannot see.
func (ix *Indexer) Index(ctx context.Context, docs []domain.Document) (int, error) {
	added := 0
	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = domain.ContentID(doc.Text)
		}
		if ix.lexical.Has(doc.ID) {
			continue
		}

		vec, err := ix.embed.Embed(ctx, doc.Text)
		if err != nil {
			return added, fmt.Errorf("embed document %s: %w", doc.ID, err)
		}
		if err := ix.vectors.Upsert(ctx, ix.collection, doc.ID, vec, doc.Payload()); err != nil {
			return added, fmt.Errorf("upsert document %s: %w", doc.ID, err)
		}
		ix.lexical.Add(doc)
		added++
	}

	ix.logger.Info("indexed documents",
		zap.Int("received", len(docs)),
		zap.Int("added", added),
		zap.Int("corpus_size", ix.lexical.Len()),
	)
	return added, nil
}

// RebuildLexical repopulates the in-process index from the vector store.
// Called once on startup; the vector store is the durable copy.
func (ix *Indexer) RebuildLexical(ctx context.Context) (int, error) {
	const page = 200
	total := 0
	for offset := 0; ; offset += page {
		hits, err := ix.vectors.List(ctx, ix.collection, offset, page)
		if err != nil {
			return total, fmt.Errorf("list collection %s: %w", ix.collection, err)
		}
		if len(hits) == 0 {
			break
		}
		docs := make([]domain.Document, 0, len(hits))
		for _, h := range hits {
			docs = append(docs, domain.DocumentFromPayload(h.ID, h.Payload))
		}
		ix.lexical.Add(docs...)
		total += len(docs)
		if len(hits) < page {
			break
		}
	}
	ix.logger.Info("lexical index rebuilt", zap.Int("documents", total))
	return total, nil
}
