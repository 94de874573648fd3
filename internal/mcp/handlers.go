package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/finsight/filings-mcp/internal/analyst"
	"github.com/finsight/filings-mcp/internal/retrieval"
	"github.com/finsight/filings-mcp/internal/storage"
)

// makeAnalyzeHandler creates the analyze_filings tool handler.
// Analyze flow:
// 1. Extract tickers from the query
// 2. Retrieve and assemble relevant sections per company
// 3. Generate the analyst answer over the combined context
func makeAnalyzeHandler(service *analyst.Service) func(
	context.Context, *mcp.CallToolRequest, AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeInput) (
		*mcp.CallToolResult, AnalyzeOutput, error,
	) {
		opts := analyst.NewOptions()
		if input.MaxCompanies > 0 {
			opts.MaxCompanies = input.MaxCompanies
		}
		if input.UseHybrid != nil {
			opts.UseHybrid = *input.UseHybrid
		}

		analysis, err := service.Analyze(ctx, input.Query, opts)
		if err != nil {
			if errors.Is(err, analyst.ErrNoTickers) {
				return nil, AnalyzeOutput{}, fmt.Errorf(
					"no companies found in query; mention company names or tickers")
			}
			if errors.Is(err, analyst.ErrNoFilings) {
				return nil, AnalyzeOutput{}, fmt.Errorf(
					"none of the mentioned companies has an indexed filing; use list_companies to see what is available")
			}
			return nil, AnalyzeOutput{}, fmt.Errorf("analysis failed: %w", err)
		}

		companies := make([]CompanySource, len(analysis.Companies))
		for i, c := range analysis.Companies {
			companies[i] = CompanySource{
				Ticker:       c.Ticker,
				Year:         c.Year,
				Sections:     c.Sections,
				Tokens:       c.Tokens,
				UsedFallback: c.UsedFallback,
			}
		}

		return nil, AnalyzeOutput{
			Answer:    analysis.Answer,
			Companies: companies,
		}, nil
	}
}

// makeSearchHandler creates the search_sections tool handler. Returns the
// ranked section chunks for one ticker without running the LLM.
func makeSearchHandler(retriever *retrieval.Retriever) func(
	context.Context, *mcp.CallToolRequest, SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
		*mcp.CallToolResult, SearchOutput, error,
	) {
		limit := input.Limit
		if limit <= 0 {
			limit = analyst.DefaultSectionLimit
		}
		useHybrid := true
		if input.UseHybrid != nil {
			useHybrid = *input.UseHybrid
		}

		ticker := strings.ToUpper(strings.TrimSpace(input.Ticker))
		if ticker == "" {
			return nil, SearchOutput{}, fmt.Errorf("ticker is required")
		}

		hits := retriever.Retrieve(ctx, input.Query, ticker, limit, useHybrid)

		results := make([]SectionResult, 0, len(hits))
		for _, hit := range hits {
			results = append(results, SectionResult{
				Section:   hit.Chunk.Section,
				Text:      hit.Chunk.Text,
				Score:     hit.Score,
				StartLine: hit.Chunk.StartLine,
				EndLine:   hit.Chunk.EndLine,
				Year:      hit.Chunk.Year,
			})
		}

		if len(results) == 0 {
			return nil, SearchOutput{
				Results: []SectionResult{},
				Message: fmt.Sprintf("No matching sections for %s. The ticker may not be indexed.", ticker),
			}, nil
		}

		return nil, SearchOutput{Results: results}, nil
	}
}

// makeListHandler creates the list_companies tool handler.
func makeListHandler(store *storage.QdrantStorage) func(
	context.Context, *mcp.CallToolRequest, ListCompaniesInput,
) (*mcp.CallToolResult, ListCompaniesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListCompaniesInput) (
		*mcp.CallToolResult, ListCompaniesOutput, error,
	) {
		filings, err := store.ListFilings(ctx)
		if err != nil {
			return nil, ListCompaniesOutput{}, fmt.Errorf("failed to list filings: %w", err)
		}

		companies := make([]CompanyInfo, 0, len(filings))
		for _, filing := range filings {
			outline := filing.Outline
			if outline == nil {
				outline = []string{} // Ensure non-nil for JSON marshaling
			}
			companies = append(companies, CompanyInfo{
				Ticker:    filing.Ticker,
				Year:      filing.Year,
				Summary:   filing.Summary,
				Outline:   outline,
				IndexedAt: filing.IndexedAt,
			})
		}

		return nil, ListCompaniesOutput{
			Companies: companies,
			Count:     len(companies),
		}, nil
	}
}

// makeStatusHandler creates the get_index_status tool handler. Reports
// filing and section point counts plus the most recent ingestion time.
func makeStatusHandler(store *storage.QdrantStorage) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		filings, err := store.ListFilings(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("qdrant_error: failed to list filings: %w", err)
		}

		info, err := store.GetCollectionInfo(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("qdrant_error: failed to get collection info: %w", err)
		}

		tickers := make([]string, 0, len(filings))
		var lastIndexed time.Time
		for _, filing := range filings {
			tickers = append(tickers, filing.Ticker)
			if filing.IndexedAt.After(lastIndexed) {
				lastIndexed = filing.IndexedAt
			}
		}
		sort.Strings(tickers)

		out := StatusOutput{
			TotalFilings:  len(filings),
			TotalSections: int(info.SectionPoints),
			Tickers:       tickers,
		}
		if !lastIndexed.IsZero() {
			out.LastIndexed = lastIndexed.Format(time.RFC3339)
		}
		return nil, out, nil
	}
}
