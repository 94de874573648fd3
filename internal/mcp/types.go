// Package mcp provides the MCP server exposing 10-K filing analysis tools.
package mcp

import "time"

// AnalyzeInput defines the input parameters for the analyze_filings tool.
type AnalyzeInput struct {
	// Query is the financial question, naming companies by ticker or name.
	Query string `json:"query" jsonschema:"required,description=Financial question naming one or more companies by ticker or name"`
	// MaxCompanies caps how many companies the query fans out to.
	MaxCompanies int `json:"max_companies,omitempty" jsonschema:"minimum=1,maximum=5,default=3,description=Maximum number of companies to analyze"`
	// UseHybrid toggles lexical reranking on top of vector search.
	UseHybrid *bool `json:"use_hybrid,omitempty" jsonschema:"default=true,description=Blend keyword matching with semantic search"`
}

// AnalyzeOutput contains the generated analysis.
type AnalyzeOutput struct {
	// Answer is the analyst-style response with markdown tables.
	Answer string `json:"answer"`
	// Companies describes what context fed the answer, per company.
	Companies []CompanySource `json:"companies"`
}

// CompanySource records the retrieval context used for one company.
type CompanySource struct {
	Ticker       string `json:"ticker"`
	Year         string `json:"year"`
	Sections     int    `json:"sections"`
	Tokens       int    `json:"tokens"`
	UsedFallback bool   `json:"used_fallback"`
}

// SearchInput defines the input parameters for the search_sections tool.
type SearchInput struct {
	// Query is the search text.
	Query string `json:"query" jsonschema:"required,description=The search query"`
	// Ticker scopes the search to one company's filing.
	Ticker string `json:"ticker" jsonschema:"required,description=Company ticker symbol (e.g. AAPL)"`
	// Limit is the maximum number of sections to return.
	Limit int `json:"limit,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of sections to return"`
	// UseHybrid toggles lexical reranking on top of vector search.
	UseHybrid *bool `json:"use_hybrid,omitempty" jsonschema:"default=true,description=Blend keyword matching with semantic search"`
}

// SearchOutput contains the ranked section matches.
type SearchOutput struct {
	Results []SectionResult `json:"results"`
	// Message provides informational context (e.g., "No matching sections").
	Message string `json:"message,omitempty"`
}

// SectionResult is one ranked section chunk.
type SectionResult struct {
	Section   string  `json:"section"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Year      string  `json:"year"`
}

// ListCompaniesInput defines the input for the list_companies tool.
// This tool takes no parameters.
type ListCompaniesInput struct {
	// No input parameters required
}

// ListCompaniesOutput contains the filing directory.
type ListCompaniesOutput struct {
	Companies []CompanyInfo `json:"companies"`
	Count     int           `json:"count"`
}

// CompanyInfo is one indexed filing in the directory.
type CompanyInfo struct {
	Ticker    string    `json:"ticker"`
	Year      string    `json:"year"`
	Summary   string    `json:"summary"`
	Outline   []string  `json:"outline"`
	IndexedAt time.Time `json:"indexed_at"`
}

// StatusInput defines the input for the get_index_status tool.
type StatusInput struct {
	// No input parameters required
}

// StatusOutput describes the current state of the index.
type StatusOutput struct {
	TotalFilings  int      `json:"total_filings"`
	TotalSections int      `json:"total_sections"`
	Tickers       []string `json:"tickers"`
	LastIndexed   string   `json:"last_indexed,omitempty"`
}
