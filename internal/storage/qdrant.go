package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantStorage wraps the Qdrant client with connection management and
// health checks.
type QdrantStorage struct {
	client *qdrant.Client
	host   string
	port   int
}

// NewQdrantStorage creates a new Qdrant client with health validation.
// It performs a health check with retry on startup and fails fast if Qdrant
// is unreachable.
func NewQdrantStorage(host string, port int) (*QdrantStorage, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	storage := &QdrantStorage{
		client: client,
		host:   host,
		port:   port,
	}

	ctx := context.Background()
	if err := storage.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return storage, nil
}

// healthCheckWithRetry performs a health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStorage) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		return s.Health(ctx)
	}

	return backoff.Retry(operation, exponentialBackoff)
}

// Health performs a single health check against Qdrant.
func (s *QdrantStorage) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// EnsureCollections creates the sections and filings collections with their
// payload indexes if they do not already exist. Idempotent.
func (s *QdrantStorage) EnsureCollections(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	existing := make(map[string]bool, len(collections))
	for _, name := range collections {
		existing[name] = true
	}

	if !existing[SectionsCollection] {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: SectionsCollection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     VectorDimension,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create sections collection: %w", err)
		}

		// Without these indexes, ticker filtering degrades badly.
		for _, field := range []string{"ticker", "section", "year"} {
			_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
				CollectionName: SectionsCollection,
				FieldName:      field,
				FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			})
			if err != nil {
				return fmt.Errorf("failed to create index for field %s: %w", field, err)
			}
		}
	}

	if !existing[FilingsCollection] {
		// Directory points are stored without vectors; the named-vector
		// config allows upserting points with an empty vector map.
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: FilingsCollection,
			VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
				"summary": {
					Size:     VectorDimension,
					Distance: qdrant.Distance_Cosine,
				},
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create filings collection: %w", err)
		}

		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: FilingsCollection,
			FieldName:      "ticker",
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create ticker index: %w", err)
		}
	}

	return nil
}

// ClearCollections deletes and recreates both collections. Used by the
// ingest CLI for full re-index scenarios.
func (s *QdrantStorage) ClearCollections(ctx context.Context) error {
	for _, name := range []string{SectionsCollection, FilingsCollection} {
		if err := s.client.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to delete collection %s: %w", name, err)
		}
	}
	return s.EnsureCollections(ctx)
}

// DeleteTicker removes all points for a ticker from both collections.
// Re-ingestion replaces a company's data rather than patching it.
func (s *QdrantStorage) DeleteTicker(ctx context.Context, ticker string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("ticker", ticker)},
	}

	for _, name := range []string{SectionsCollection, FilingsCollection} {
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: name,
			Points:         qdrant.NewPointsSelectorFilter(filter),
		})
		if err != nil {
			return fmt.Errorf("failed to delete %s points for %s: %w", name, ticker, err)
		}
	}
	return nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// upsertWithRetry performs an upsert with exponential backoff.
func (s *QdrantStorage) upsertWithRetry(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
		})
		return err
	}

	return backoff.Retry(operation, exponentialBackoff)
}

// UpsertFiling stores a company directory entry. Filing points have no
// embedding vector; they exist for the company list and full-text fallback.
func (s *QdrantStorage) UpsertFiling(ctx context.Context, filing *Filing) error {
	outline := make([]interface{}, len(filing.Outline))
	for i, heading := range filing.Outline {
		outline[i] = heading
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(filing.ID),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{}),
		Payload: qdrant.NewValueMap(map[string]any{
			"ticker":     filing.Ticker,
			"year":       filing.Year,
			"file_path":  filing.FilePath,
			"content":    filing.Content,
			"summary":    filing.Summary,
			"outline":    outline,
			"indexed_at": filing.IndexedAt.Format(time.RFC3339),
		}),
	}

	return s.upsertWithRetry(ctx, FilingsCollection, []*qdrant.PointStruct{point})
}

// UpsertSections stores section chunks with embeddings, batched in groups of
// 100 for performance.
func (s *QdrantStorage) UpsertSections(ctx context.Context, chunks []*SectionChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for i, chunk := range chunks {
		if len(chunk.Embedding) != VectorDimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), VectorDimension)
		}
	}

	batchSize := 100
	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))

		batch := chunks[i:end]
		points := make([]*qdrant.PointStruct, len(batch))
		for j, chunk := range batch {
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(chunk.ID),
				Vectors: qdrant.NewVectors(chunk.Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					"ticker":       chunk.Ticker,
					"section":      chunk.Section,
					"text":         chunk.Text,
					"start_line":   chunk.StartLine,
					"end_line":     chunk.EndLine,
					"year":         chunk.Year,
					"file_path":    chunk.FilePath,
					"chunk_length": chunk.ChunkLength,
					"tables_count": chunk.TablesCount,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, SectionsCollection, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// sectionFromPayload rebuilds a SectionChunk from a point payload.
func sectionFromPayload(id string, payload map[string]*qdrant.Value) *SectionChunk {
	return &SectionChunk{
		ID:          id,
		Ticker:      payload["ticker"].GetStringValue(),
		Section:     payload["section"].GetStringValue(),
		Text:        payload["text"].GetStringValue(),
		StartLine:   int(payload["start_line"].GetIntegerValue()),
		EndLine:     int(payload["end_line"].GetIntegerValue()),
		Year:        payload["year"].GetStringValue(),
		FilePath:    payload["file_path"].GetStringValue(),
		ChunkLength: int(payload["chunk_length"].GetIntegerValue()),
		TablesCount: int(payload["tables_count"].GetIntegerValue()),
	}
}

// SearchSections performs vector similarity search over one ticker's chunks.
// Results are ordered by descending similarity. The call is single-attempt:
// query-path failures are the caller's fallback decision, not retried here.
func (s *QdrantStorage) SearchSections(ctx context.Context, embedding []float32, ticker string, limit int) ([]*ScoredSection, error) {
	if len(embedding) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), VectorDimension)
	}

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("ticker", ticker)},
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: SectionsCollection,
		Query:          qdrant.NewQuery(embedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search sections: %w", err)
	}

	scored := make([]*ScoredSection, 0, len(results))
	for _, result := range results {
		scored = append(scored, &ScoredSection{
			Chunk: sectionFromPayload(result.Id.GetUuid(), result.Payload),
			Score: float64(result.Score),
		})
	}

	return scored, nil
}

// SectionsByTicker scrolls all chunks for one ticker, in stable ID order as
// returned by Qdrant. The lexical cache uses this to build its corpus.
func (s *QdrantStorage) SectionsByTicker(ctx context.Context, ticker string) ([]*SectionChunk, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("ticker", ticker)},
	}

	var chunks []*SectionChunk
	var offset *qdrant.PointId
	batchSize := uint32(100)

	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: SectionsCollection,
			Filter:         filter,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll sections: %w", err)
		}

		for _, result := range results {
			chunks = append(chunks, sectionFromPayload(result.Id.GetUuid(), result.Payload))
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	return chunks, nil
}

// filingFromPayload rebuilds a Filing from a point payload.
func filingFromPayload(id string, payload map[string]*qdrant.Value) *Filing {
	indexedAt, err := time.Parse(time.RFC3339, payload["indexed_at"].GetStringValue())
	if err != nil {
		indexedAt = time.Time{}
	}

	var outline []string
	if outlineVal, ok := payload["outline"]; ok && outlineVal.GetListValue() != nil {
		for _, val := range outlineVal.GetListValue().Values {
			outline = append(outline, val.GetStringValue())
		}
	}

	return &Filing{
		ID:        id,
		Ticker:    payload["ticker"].GetStringValue(),
		Year:      payload["year"].GetStringValue(),
		FilePath:  payload["file_path"].GetStringValue(),
		Content:   payload["content"].GetStringValue(),
		Summary:   payload["summary"].GetStringValue(),
		Outline:   outline,
		IndexedAt: indexedAt,
	}
}

// GetFiling retrieves a company's directory entry by ticker.
// Returns ErrFilingNotFound if the ticker is not indexed.
func (s *QdrantStorage) GetFiling(ctx context.Context, ticker string) (*Filing, error) {
	results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: FilingsCollection,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("ticker", ticker)},
		},
		Limit:       qdrant.PtrOf(uint32(1)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query filing: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrFilingNotFound
	}

	point := results[0]
	return filingFromPayload(point.Id.GetUuid(), point.Payload), nil
}

// ListFilings returns every directory entry, sorted by ticker. Content is
// excluded from the payload to keep the listing light.
func (s *QdrantStorage) ListFilings(ctx context.Context) ([]*Filing, error) {
	var filings []*Filing
	var offset *qdrant.PointId
	batchSize := uint32(100)

	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: FilingsCollection,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload: qdrant.NewWithPayloadInclude(
				"ticker", "year", "file_path", "summary", "outline", "indexed_at",
			),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll filings: %w", err)
		}

		for _, result := range results {
			filings = append(filings, filingFromPayload(result.Id.GetUuid(), result.Payload))
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	sort.Slice(filings, func(i, j int) bool { return filings[i].Ticker < filings[j].Ticker })
	return filings, nil
}

// CollectionInfo contains collection statistics.
type CollectionInfo struct {
	SectionPoints uint64
	FilingPoints  uint64
}

// GetCollectionInfo retrieves point counts for both collections.
func (s *QdrantStorage) GetCollectionInfo(ctx context.Context) (*CollectionInfo, error) {
	sections, err := s.client.GetCollectionInfo(ctx, SectionsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to get sections collection: %w", err)
	}

	filings, err := s.client.GetCollectionInfo(ctx, FilingsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to get filings collection: %w", err)
	}

	return &CollectionInfo{
		SectionPoints: sections.GetPointsCount(),
		FilingPoints:  filings.GetPointsCount(),
	}, nil
}
