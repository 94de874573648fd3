// Package retrieval fuses dense vector search with lexical BM25 ranking
// into a single relevance ordering over one ticker's section chunks.
package retrieval

import (
	"context"
	"log/slog"
	"sort"

	"github.com/finsight/filings-mcp/internal/lexical"
	"github.com/finsight/filings-mcp/internal/storage"
)

const (
	// denseWeight and lexicalWeight blend the two channels. Dense carries
	// the semantic signal; lexical rewards exact keyword hits that
	// embeddings dilute.
	denseWeight   = 0.7
	lexicalWeight = 0.3

	// lexicalNormDivisor maps raw BM25 scores into [0, 1] before blending.
	// Anything at or above this raw score saturates at 1.0.
	lexicalNormDivisor = 10.0

	// candidateMultiplier over-fetches each channel so a chunk ranked just
	// outside the limit in one channel can still win after fusion.
	candidateMultiplier = 2

	// dedupKeyLen is the text prefix length used to identify the same
	// chunk across channels.
	dedupKeyLen = 100
)

// DenseStore is the vector search surface of the storage layer.
type DenseStore interface {
	SearchSections(ctx context.Context, embedding []float32, ticker string, limit int) ([]*storage.ScoredSection, error)
}

// QueryEmbedder turns a query string into a dense vector.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// LexicalSearcher ranks a ticker's corpus by keyword relevance. A nil result
// means the lexical channel is unavailable for this query.
type LexicalSearcher interface {
	Search(ctx context.Context, ticker, query string, limit int) []lexical.ScoredChunk
}

// Result is one fused retrieval hit. DenseScore and LexicalScore hold the
// per-channel contributions; LexicalScore is the raw BM25 value before
// normalization. A chunk found by only one channel scores zero in the other.
type Result struct {
	Chunk        *storage.SectionChunk
	Score        float64
	DenseScore   float64
	LexicalScore float64
}

// Retriever runs hybrid retrieval against a single ticker's indexed chunks.
type Retriever struct {
	store    DenseStore
	embedder QueryEmbedder
	lexical  LexicalSearcher
	logger   *slog.Logger
}

// NewRetriever wires the dense and lexical channels together.
func NewRetriever(store DenseStore, embedder QueryEmbedder, lex LexicalSearcher, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		store:    store,
		embedder: embedder,
		lexical:  lex,
		logger:   logger,
	}
}

// Retrieve returns up to limit chunks for the query, ordered by descending
// fused score. With hybrid disabled, or when the lexical channel returns
// nothing, the dense ranking is returned unchanged. Retrieval never fails:
// an embedding or search error degrades to whatever channels remain, down to
// an empty result set, and the caller decides the fallback.
func (r *Retriever) Retrieve(ctx context.Context, query, ticker string, limit int, useHybrid bool) []Result {
	if limit <= 0 {
		return nil
	}

	if !useHybrid {
		return r.denseSearch(ctx, query, ticker, limit)
	}

	dense := r.denseSearch(ctx, query, ticker, limit*candidateMultiplier)
	sparse := r.lexical.Search(ctx, ticker, query, limit*candidateMultiplier)

	if len(sparse) == 0 {
		if len(dense) > limit {
			dense = dense[:limit]
		}
		return dense
	}

	return fuse(dense, sparse, limit)
}

// denseSearch embeds the query and runs vector search. Failures in either
// step are logged and return an empty set.
func (r *Retriever) denseSearch(ctx context.Context, query, ticker string, limit int) []Result {
	embedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		r.logger.Warn("query embedding failed", "ticker", ticker, "error", err)
		return nil
	}

	hits, err := r.store.SearchSections(ctx, embedding, ticker, limit)
	if err != nil {
		r.logger.Warn("dense search failed", "ticker", ticker, "error", err)
		return nil
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			Chunk:      hit.Chunk,
			Score:      hit.Score,
			DenseScore: hit.Score,
		})
	}
	return results
}

// fuse merges the two candidate pools, deduplicating on a text prefix, and
// blends the channel scores into the final ordering. Dense candidates are
// visited first, so ties between equal fused scores resolve in favor of the
// higher dense rank.
func fuse(dense []Result, sparse []lexical.ScoredChunk, limit int) []Result {
	merged := make([]Result, 0, len(dense)+len(sparse))
	index := make(map[string]int, len(dense)+len(sparse))

	for _, d := range dense {
		key := dedupKey(d.Chunk.Text)
		if _, seen := index[key]; seen {
			continue
		}
		index[key] = len(merged)
		merged = append(merged, d)
	}

	for _, s := range sparse {
		key := dedupKey(s.Chunk.Text)
		if i, seen := index[key]; seen {
			merged[i].LexicalScore = s.Score
			continue
		}
		index[key] = len(merged)
		merged = append(merged, Result{Chunk: s.Chunk, LexicalScore: s.Score})
	}

	for i := range merged {
		merged[i].Score = denseWeight*merged[i].DenseScore +
			lexicalWeight*normalizeLexical(merged[i].LexicalScore)
	}

	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Score > merged[b].Score
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// normalizeLexical clamps a raw BM25 score into [0, 1].
func normalizeLexical(score float64) float64 {
	norm := score / lexicalNormDivisor
	if norm > 1.0 {
		return 1.0
	}
	return norm
}

// dedupKey identifies a chunk across channels by its leading text. Section
// chunking never produces two distinct chunks sharing their first hundred
// characters.
func dedupKey(text string) string {
	if len(text) > dedupKeyLen {
		return text[:dedupKeyLen]
	}
	return text
}
