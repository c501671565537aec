package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/marketmind/researchd/internal/domain"
)

// vectorField is the reserved hash field holding the embedding blob.
const vectorField = "vector"

// EnsureCollection creates the FT index for a collection if it does not
// exist yet. The schema indexes the vector plus the source_type and
// symbols payload fields so searches can pre-filter on them.
func (s *Store) EnsureCollection(ctx context.Context, collection string, dims int) error {
	if collection == "" {
		return fmt.Errorf("collection is required")
	}
	if dims <= 0 {
		return fmt.Errorf("vector DIM must be positive")
	}

	args := []string{
		indexName(collection),
		"ON", "HASH",
		"PREFIX", "1", s.keyPrefix(collection),
		"SCHEMA",
		vectorField, "VECTOR", "FLAT", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(dims),
		"DISTANCE_METRIC", "COSINE",
		"source_type", "TAG",
		"symbols", "TAG", "SEPARATOR", ",",
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return fmt.Errorf("create index %s: %w", indexName(collection), err)
	}
	return nil
}

// Upsert stores one record. Writing an existing id overwrites it.
func (s *Store) Upsert(ctx context.Context, collection, id string, vector []float32, payload map[string]string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	if len(vector) == 0 {
		return fmt.Errorf("vector is required")
	}

	cmd := s.b().Hset().Key(s.key(collection, id)).FieldValue().
		FieldValue(vectorField, vectorToBytes(vector))
	for k, v := range payload {
		if k == vectorField {
			continue
		}
		cmd = cmd.FieldValue(k, v)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return fmt.Errorf("upsert %s: %w", id, err)
	}
	return nil
}

// Query runs a KNN similarity search. filter narrows by exact payload
// field values; a nil filter searches the whole collection.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, k int, filter map[string]string) ([]domain.VectorHit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	knnPart := fmt.Sprintf("[KNN %d @%s $BLOB]", k, vectorField)
	queryStr := "*=>" + knnPart
	if f := buildTagFilters(filter); f != "" {
		queryStr = "(" + f + ")=>" + knnPart
	}

	args := []string{
		indexName(collection), queryStr,
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") {
			return nil, fmt.Errorf("collection %s: %w", collection, domain.ErrCollectionNotFound)
		}
		return nil, fmt.Errorf("knn search %s: %w", collection, err)
	}

	return s.parseKNNResult(raw, collection)
}

// List pages all records of a collection in index order.
func (s *Store) List(ctx context.Context, collection string, offset, limit int) ([]domain.VectorHit, error) {
	args := []string{
		indexName(collection), "*",
		"LIMIT", strconv.Itoa(offset), strconv.Itoa(limit),
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") {
			return nil, fmt.Errorf("collection %s: %w", collection, domain.ErrCollectionNotFound)
		}
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	return s.parseListResult(raw, collection)
}

// parseKNNResult walks the RESP2 reply. 2-stride:
// [total, key1, fields1, key2, fields2, ...]
func (s *Store) parseKNNResult(raw []rueidis.RedisMessage, collection string) ([]domain.VectorHit, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	hits := make([]domain.VectorHit, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		hit := domain.VectorHit{
			ID:      strings.TrimPrefix(key, s.keyPrefix(collection)),
			Payload: parseFieldPairs(fields),
		}
		if scoreStr, ok := hit.Payload["__vector_score"]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				hit.Score = max(0, 1.0-d) // cosine distance → similarity, clamped to [0,1]
			}
			delete(hit.Payload, "__vector_score")
		}
		delete(hit.Payload, vectorField)
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *Store) parseListResult(raw []rueidis.RedisMessage, collection string) ([]domain.VectorHit, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	hits := make([]domain.VectorHit, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		hit := domain.VectorHit{
			ID:      strings.TrimPrefix(key, s.keyPrefix(collection)),
			Payload: parseFieldPairs(fields),
		}
		delete(hit.Payload, vectorField)
		hits = append(hits, hit)
	}
	return hits, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// buildTagFilters renders a map of exact matches as FT tag pre-filters.
func buildTagFilters(filter map[string]string) string {
	if len(filter) == 0 {
		return ""
	}
	parts := make([]string, 0, len(filter))
	for k, v := range filter {
		parts = append(parts, fmt.Sprintf("@%s:{%s}", k, tagEscaper.Replace(v)))
	}
	// Deterministic order for testability.
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
