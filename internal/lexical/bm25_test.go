package lexical

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/finsight/filings-mcp/internal/storage"
)

func testCorpus() []*storage.SectionChunk {
	return []*storage.SectionChunk{
		{Text: "revenue grew twelve percent driven by services revenue", Section: "MD&A"},
		{Text: "properties consist of office space in cupertino", Section: "Properties"},
		{Text: "net income and diluted earnings per share increased", Section: "Income Statement"},
		{Text: "risk factors include supply chain concentration", Section: "Risk Factors"},
	}
}

func TestIndex_RanksTermMatchesFirst(t *testing.T) {
	ix := NewIndex(testCorpus())

	results := ix.Search("revenue growth", 4)
	if len(results) != 4 {
		t.Fatalf("Expected 4 results, got %d", len(results))
	}
	if results[0].Chunk.Section != "MD&A" {
		t.Errorf("Expected MD&A chunk first, got %q", results[0].Chunk.Section)
	}
	if results[0].Score <= 0 {
		t.Errorf("Matching document should score above zero, got %f", results[0].Score)
	}
	// Non-matching documents score zero but remain eligible.
	for _, r := range results[1:] {
		if r.Score < 0 {
			t.Errorf("BM25 scores must be non-negative, got %f", r.Score)
		}
	}
}

func TestIndex_LimitAndStability(t *testing.T) {
	ix := NewIndex(testCorpus())

	results := ix.Search("revenue", 2)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	// Identical queries produce identical rankings.
	again := ix.Search("revenue", 2)
	for i := range results {
		if results[i].Chunk.Section != again[i].Chunk.Section || results[i].Score != again[i].Score {
			t.Errorf("Ranking not deterministic at position %d", i)
		}
	}
}

func TestIndex_EmptyCorpus(t *testing.T) {
	ix := NewIndex(nil)
	if got := ix.Search("anything", 5); len(got) != 0 {
		t.Errorf("Expected no results from empty corpus, got %d", len(got))
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Revenue\tGREW  12%")
	want := []string{"revenue", "grew", "12%"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d tokens, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Token %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

// fakeSource counts corpus fetches so tests can observe build caching.
type fakeSource struct {
	mu     sync.Mutex
	calls  int
	chunks []*storage.SectionChunk
	err    error
}

func (f *fakeSource) SectionsByTicker(ctx context.Context, ticker string) ([]*storage.SectionChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.chunks, f.err
}

func TestCache_BuildsOncePerTicker(t *testing.T) {
	src := &fakeSource{chunks: testCorpus()}
	cache := NewCache(src, nil)

	ctx := context.Background()
	for range 3 {
		if got := cache.Search(ctx, "AAPL", "revenue", 2); len(got) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(got))
		}
	}

	if src.calls != 1 {
		t.Errorf("Expected exactly 1 corpus fetch, got %d", src.calls)
	}
}

func TestCache_ConcurrentFirstQueriesSerialize(t *testing.T) {
	src := &fakeSource{chunks: testCorpus()}
	cache := NewCache(src, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.Search(context.Background(), "AAPL", "revenue", 2)
		}()
	}
	wg.Wait()

	if src.calls != 1 {
		t.Errorf("Concurrent first queries must share one build, got %d fetches", src.calls)
	}
}

func TestCache_SourceFailureDegradesToEmpty(t *testing.T) {
	src := &fakeSource{err: errors.New("qdrant unreachable")}
	cache := NewCache(src, nil)

	if got := cache.Search(context.Background(), "AAPL", "revenue", 5); got != nil {
		t.Errorf("Expected nil results on build failure, got %v", got)
	}

	// Failed builds are not cached; the next query retries the fetch.
	cache.Search(context.Background(), "AAPL", "revenue", 5)
	if src.calls != 2 {
		t.Errorf("Expected retry after failed build, got %d fetches", src.calls)
	}
}

func TestCache_InvalidateForcesRebuild(t *testing.T) {
	src := &fakeSource{chunks: testCorpus()}
	cache := NewCache(src, nil)

	cache.Search(context.Background(), "AAPL", "revenue", 2)
	cache.Invalidate("AAPL")
	cache.Search(context.Background(), "AAPL", "revenue", 2)

	if src.calls != 2 {
		t.Errorf("Expected rebuild after invalidation, got %d fetches", src.calls)
	}
}
