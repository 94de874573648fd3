// Package indexer orchestrates filing ingestion: load, clean, chunk, embed,
// and store.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finsight/filings-mcp/internal/analyst"
	"github.com/finsight/filings-mcp/internal/embedding"
	"github.com/finsight/filings-mcp/internal/filings"
	"github.com/finsight/filings-mcp/internal/markdown"
	"github.com/finsight/filings-mcp/internal/section"
	"github.com/finsight/filings-mcp/internal/storage"
)

// IndexResult contains statistics about an ingestion run.
type IndexResult struct {
	TotalFilings      int
	TotalChunks       int
	SuccessfulFilings int
	FailedFilings     []FailedFiling
	Duration          time.Duration
}

// FailedFiling records a filing that failed to ingest.
type FailedFiling struct {
	Path   string
	Reason string
}

// Invalidator drops a ticker's cached lexical index after re-ingestion.
type Invalidator interface {
	Invalidate(ticker string)
}

// Pipeline runs the full ingestion for a directory of processed filings.
type Pipeline struct {
	chunker   *section.Chunker
	outliner  *markdown.Outliner
	embedder  *embedding.Embedder
	generator *analyst.Generator
	storage   *storage.QdrantStorage
	lexical   Invalidator
	logger    *slog.Logger
}

// NewPipeline creates an ingestion pipeline with the given components. The
// lexical invalidator may be nil when no query server shares the process.
func NewPipeline(
	chunker *section.Chunker,
	outliner *markdown.Outliner,
	embedder *embedding.Embedder,
	generator *analyst.Generator,
	storage *storage.QdrantStorage,
	lexical Invalidator,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		chunker:   chunker,
		outliner:  outliner,
		embedder:  embedder,
		generator: generator,
		storage:   storage,
		lexical:   lexical,
		logger:    logger,
	}
}

// IndexAll discovers and ingests every filing under dir. A filing that fails
// is recorded and skipped; the run continues with the rest.
func (p *Pipeline) IndexAll(ctx context.Context, dir string) (*IndexResult, error) {
	start := time.Now()
	result := &IndexResult{}

	files, err := filings.Discover(dir)
	if err != nil {
		return nil, fmt.Errorf("discover filings: %w", err)
	}
	result.TotalFilings = len(files)
	p.logger.Info("Starting ingestion", "dir", dir, "filings", len(files))

	for _, file := range files {
		chunks, err := p.processFiling(ctx, file)
		if err != nil {
			p.logger.Warn("Failed to ingest filing", "path", file.Path, "error", err)
			result.FailedFilings = append(result.FailedFilings, FailedFiling{
				Path:   file.Path,
				Reason: err.Error(),
			})
			continue
		}
		result.SuccessfulFilings++
		result.TotalChunks += chunks
	}

	result.Duration = time.Since(start)
	p.logger.Info("Ingestion complete",
		"successful", result.SuccessfulFilings,
		"failed", len(result.FailedFilings),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)

	return result, nil
}

// processFiling ingests a single filing. Returns the number of section
// chunks stored.
func (p *Pipeline) processFiling(ctx context.Context, file filings.File) (int, error) {
	raw, err := file.Load()
	if err != nil {
		return 0, fmt.Errorf("load: %w", err)
	}
	p.logger.Debug("Loaded filing", "path", file.Path, "size", len(raw))

	content := section.StripLeadingNoise(raw)
	if content == "" {
		return 0, fmt.Errorf("no substantive content after noise removal")
	}

	chunked := p.chunker.Chunk(content, file.Ticker)
	if len(chunked.Chunks) == 0 {
		return 0, fmt.Errorf("no chunks produced")
	}
	if chunked.DroppedTail != "" {
		p.logger.Debug("Dropped short trailing fragment",
			"path", file.Path, "chars", len(chunked.DroppedTail))
	}

	outline, err := p.outliner.Outline([]byte(content))
	if err != nil {
		p.logger.Warn("Outline extraction failed, using empty", "path", file.Path, "error", err)
		outline = nil
	}

	summary := ""
	if p.generator != nil {
		meta, err := p.generator.Summarize(ctx, file.Ticker, file.Year, content)
		if err != nil {
			p.logger.Warn("Summary generation failed, using empty", "path", file.Path, "error", err)
		} else {
			summary = meta.Summary
		}
	}

	texts := make([]string, len(chunked.Chunks))
	for i, chunk := range chunked.Chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embeddings: %w", err)
	}

	// Replace, not merge: drop whatever was indexed for this ticker first.
	if err := p.storage.DeleteTicker(ctx, file.Ticker); err != nil {
		return 0, fmt.Errorf("delete previous version: %w", err)
	}

	filing := &storage.Filing{
		ID:        uuid.New().String(),
		Ticker:    file.Ticker,
		Year:      file.Year,
		FilePath:  file.Path,
		Content:   content,
		Summary:   summary,
		Outline:   outline,
		IndexedAt: time.Now(),
	}
	if err := p.storage.UpsertFiling(ctx, filing); err != nil {
		return 0, fmt.Errorf("store filing: %w", err)
	}

	sections := make([]*storage.SectionChunk, len(chunked.Chunks))
	for i, chunk := range chunked.Chunks {
		sections[i] = &storage.SectionChunk{
			ID:          uuid.New().String(),
			Ticker:      chunk.Ticker,
			Section:     chunk.Section,
			Text:        chunk.Text,
			StartLine:   chunk.StartLine,
			EndLine:     chunk.EndLine,
			Year:        file.Year,
			FilePath:    file.Path,
			ChunkLength: len(chunk.Text),
			TablesCount: strings.Count(chunk.Text, "|") / 3,
			Embedding:   embeddings[i],
		}
	}
	if err := p.storage.UpsertSections(ctx, sections); err != nil {
		return 0, fmt.Errorf("store sections: %w", err)
	}

	if p.lexical != nil {
		p.lexical.Invalidate(file.Ticker)
	}

	p.logger.Info("Ingested filing",
		"ticker", file.Ticker, "year", file.Year, "chunks", len(sections))
	return len(sections), nil
}
