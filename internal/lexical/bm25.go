// Package lexical provides keyword-frequency ranking over one ticker's
// section chunks. Indexes are built lazily per ticker and cached for the
// process lifetime.
package lexical

import (
	"math"
	"sort"
	"strings"

	"github.com/finsight/filings-mcp/internal/storage"
)

// Okapi BM25 parameters.
const (
	defaultK1 = 1.5
	defaultB  = 0.75
)

// ScoredChunk pairs a corpus chunk with its BM25 relevance.
type ScoredChunk struct {
	Chunk *storage.SectionChunk
	Score float64
}

// Index is an in-memory BM25 ranking structure over a fixed corpus.
// Term statistics are scoped to the corpus it was built from; corpora for
// different tickers never share statistics.
type Index struct {
	chunks []*storage.SectionChunk
	tf     []map[string]int
	docLen []int
	avgLen float64
	idf    map[string]float64
	k1, b  float64
}

// NewIndex tokenizes the corpus and precomputes term statistics.
func NewIndex(chunks []*storage.SectionChunk) *Index {
	ix := &Index{
		chunks: chunks,
		tf:     make([]map[string]int, len(chunks)),
		docLen: make([]int, len(chunks)),
		idf:    make(map[string]float64),
		k1:     defaultK1,
		b:      defaultB,
	}

	df := make(map[string]int)
	total := 0
	for i, chunk := range chunks {
		tokens := Tokenize(chunk.Text)
		freq := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freq[tok]++
		}
		for tok := range freq {
			df[tok]++
		}
		ix.tf[i] = freq
		ix.docLen[i] = len(tokens)
		total += len(tokens)
	}
	if len(chunks) > 0 {
		ix.avgLen = float64(total) / float64(len(chunks))
	}

	// Smoothed IDF keeps every term's contribution non-negative.
	n := float64(len(chunks))
	for tok, d := range df {
		ix.idf[tok] = math.Log(1 + (n-float64(d)+0.5)/(float64(d)+0.5))
	}

	return ix
}

// Len returns the corpus size.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Search scores every corpus chunk against the query and returns the top
// results ordered by descending score. Chunks with no overlapping terms
// score zero but remain eligible, matching rank-all behavior.
func (ix *Index) Search(query string, limit int) []ScoredChunk {
	tokens := Tokenize(query)

	results := make([]ScoredChunk, len(ix.chunks))
	for i, chunk := range ix.chunks {
		results[i] = ScoredChunk{Chunk: chunk, Score: ix.score(tokens, i)}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// score computes the BM25 relevance of chunk i for the query tokens.
func (ix *Index) score(tokens []string, i int) float64 {
	if ix.docLen[i] == 0 || ix.avgLen == 0 {
		return 0
	}

	norm := ix.k1 * (1 - ix.b + ix.b*float64(ix.docLen[i])/ix.avgLen)
	var s float64
	for _, tok := range tokens {
		tf := ix.tf[i][tok]
		if tf == 0 {
			continue
		}
		s += ix.idf[tok] * float64(tf) * (ix.k1 + 1) / (float64(tf) + norm)
	}
	return s
}

// Tokenize lowercases and whitespace-splits text. No stemming, no stopword
// removal.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
