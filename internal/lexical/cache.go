package lexical

import (
	"context"
	"log/slog"
	"sync"

	"github.com/finsight/filings-mcp/internal/storage"
)

// CorpusSource fetches all indexed chunks for one ticker. The storage layer
// implements this via its Scroll API.
type CorpusSource interface {
	SectionsByTicker(ctx context.Context, ticker string) ([]*storage.SectionChunk, error)
}

// Cache holds one BM25 index per ticker, built on first query and kept for
// the process lifetime. The corpus is small and fixed, so there is no
// eviction.
type Cache struct {
	source CorpusSource
	logger *slog.Logger

	mu      sync.RWMutex
	indexes map[string]*Index

	buildMu sync.Mutex
	builds  map[string]*sync.Mutex
}

// NewCache creates a cache backed by the given corpus source.
func NewCache(source CorpusSource, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		source:  source,
		logger:  logger,
		indexes: make(map[string]*Index),
		builds:  make(map[string]*sync.Mutex),
	}
}

// Search ranks the ticker's corpus against the query, building the index
// first if this is the ticker's first query. A build failure degrades to an
// empty result set; it is never surfaced to the caller, and the failed build
// is not cached so a later query can retry.
func (c *Cache) Search(ctx context.Context, ticker, query string, limit int) []ScoredChunk {
	ix, err := c.index(ctx, ticker)
	if err != nil {
		c.logger.Warn("lexical index unavailable", "ticker", ticker, "error", err)
		return nil
	}
	if ix == nil || ix.Len() == 0 {
		return nil
	}
	return ix.Search(query, limit)
}

// index returns the cached index for the ticker, building it if needed.
// Builds for the same ticker are serialized: the first caller builds while
// later callers block on the per-ticker lock and then reuse the result.
// Builds for different tickers proceed concurrently.
func (c *Cache) index(ctx context.Context, ticker string) (*Index, error) {
	c.mu.RLock()
	ix, ok := c.indexes[ticker]
	c.mu.RUnlock()
	if ok {
		return ix, nil
	}

	lock := c.tickerLock(ticker)
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have finished the build while we waited.
	c.mu.RLock()
	ix, ok = c.indexes[ticker]
	c.mu.RUnlock()
	if ok {
		return ix, nil
	}

	chunks, err := c.source.SectionsByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	ix = NewIndex(chunks)
	c.mu.Lock()
	c.indexes[ticker] = ix
	c.mu.Unlock()

	c.logger.Info("built lexical index", "ticker", ticker, "chunks", ix.Len())
	return ix, nil
}

func (c *Cache) tickerLock(ticker string) *sync.Mutex {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()
	lock, ok := c.builds[ticker]
	if !ok {
		lock = &sync.Mutex{}
		c.builds[ticker] = lock
	}
	return lock
}

// Invalidate drops a ticker's cached index. Called after re-ingestion so the
// next query rebuilds against the replacement corpus.
func (c *Cache) Invalidate(ticker string) {
	c.mu.Lock()
	delete(c.indexes, ticker)
	c.mu.Unlock()
}
