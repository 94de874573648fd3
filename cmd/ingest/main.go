// Package main provides the ingestion CLI for processed 10-K filings.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/finsight/filings-mcp/internal/analyst"
	"github.com/finsight/filings-mcp/internal/embedding"
	"github.com/finsight/filings-mcp/internal/indexer"
	"github.com/finsight/filings-mcp/internal/markdown"
	"github.com/finsight/filings-mcp/internal/section"
	"github.com/finsight/filings-mcp/internal/storage"
)

var (
	filingsDir  string
	resetIndex  bool
	skipSummary bool
)

var rootCmd = &cobra.Command{
	Use:   "filings-ingest",
	Short: "SEC 10-K filing ingestion tool",
	Long:  "CLI tool for managing the 10-K filing index in Qdrant",
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index processed filing markdown files",
	Long: `Ingests all TICKER_YEAR.md files from the processed data directory.

This command:
1. Connects to Qdrant and verifies health
2. Strips XBRL conversion noise from each filing
3. Chunks filings by 10-K section boundaries
4. Generates embeddings and filing summaries
5. Replaces each ticker's previous index version

Environment variables:
  QDRANT_HOST    Qdrant hostname (default: localhost)
  QDRANT_PORT    Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY OpenAI API key for embeddings and summaries (required)`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&filingsDir, "dir", "processed_data", "Directory of processed filing markdown files")
	ingestCmd.Flags().BoolVar(&resetIndex, "reset", false, "Clear both collections before ingesting")
	ingestCmd.Flags().BoolVar(&skipSummary, "skip-summaries", false, "Skip LLM summary generation")
	rootCmd.AddCommand(ingestCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	fmt.Println("Starting ingestion...")
	fmt.Println()

	// Get environment configuration
	qdrantHost := getEnv("QDRANT_HOST", "localhost")
	qdrantPort := getEnvInt("QDRANT_PORT", 6334)

	// 1. Connect to Qdrant
	fmt.Printf("Connecting to Qdrant at %s:%d...\n", qdrantHost, qdrantPort)
	store, err := storage.NewQdrantStorage(qdrantHost, qdrantPort)
	if err != nil {
		return fmt.Errorf("Failed to connect to Qdrant: %w", err)
	}
	defer store.Close()

	// 2. Check health
	if err := store.Health(ctx); err != nil {
		return fmt.Errorf("Qdrant health check failed: %w", err)
	}
	fmt.Println("Qdrant healthy")

	// 3. Ensure collections exist
	if err := store.EnsureCollections(ctx); err != nil {
		return fmt.Errorf("Failed to ensure collections: %w", err)
	}

	// 4. Initialize embedding client
	embeddingClient, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("Failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, 0) // Use default batch size

	// 5. Initialize other components
	chunker := section.NewChunker(0) // Default substantiveness threshold
	outliner := markdown.NewOutliner()
	var generator *analyst.Generator
	if !skipSummary {
		// Use the same OpenAI client from embeddings for summary generation
		generator = analyst.NewGenerator(embeddingClient.Client(), nil)
	}

	// 6. Optionally clear existing collections
	if resetIndex {
		fmt.Println()
		fmt.Println("Clearing existing collections...")
		if err := store.ClearCollections(ctx); err != nil {
			return fmt.Errorf("Failed to clear collections: %w", err)
		}
		fmt.Println("Collections cleared")
	}

	// 7. Initialize pipeline and run ingestion
	fmt.Println()
	fmt.Printf("Ingesting filings from %s...\n", filingsDir)
	pipeline := indexer.NewPipeline(chunker, outliner, embedder, generator, store, nil, slog.Default())

	result, err := pipeline.IndexAll(ctx, filingsDir)
	if err != nil {
		return fmt.Errorf("Ingestion failed: %w", err)
	}

	// 8. Print results
	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  Filings: %d/%d\n", result.SuccessfulFilings, result.TotalFilings)
	fmt.Printf("  Sections: %d\n", result.TotalChunks)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))

	// 9. Print failed filings if any
	if len(result.FailedFilings) > 0 {
		fmt.Println()
		fmt.Println("Failed filings:")
		for _, failed := range result.FailedFilings {
			fmt.Printf("  - %s: %s\n", failed.Path, failed.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))

	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
