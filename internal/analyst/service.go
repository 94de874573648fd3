package analyst

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finsight/filings-mcp/internal/assembler"
	"github.com/finsight/filings-mcp/internal/filings"
	"github.com/finsight/filings-mcp/internal/retrieval"
	"github.com/finsight/filings-mcp/internal/storage"
)

const (
	// DefaultSectionLimit is the retrieval depth per company. Five sections
	// cover most queries without flooding the context.
	DefaultSectionLimit = 5

	// DefaultMaxCompanies bounds how many tickers one query fans out to.
	DefaultMaxCompanies = 3
)

var (
	// ErrNoTickers means the query named no recognizable company.
	ErrNoTickers = errors.New("no companies found in query")

	// ErrNoFilings means none of the named companies has an indexed filing.
	ErrNoFilings = errors.New("no indexed filings for the requested companies")
)

// FilingStore reads indexed filings for fallback content and metadata.
type FilingStore interface {
	GetFiling(ctx context.Context, ticker string) (*storage.Filing, error)
}

// Retriever returns ranked section chunks for one ticker.
type Retriever interface {
	Retrieve(ctx context.Context, query, ticker string, limit int, useHybrid bool) []retrieval.Result
}

// AnswerGenerator produces the final analysis from assembled documents.
type AnswerGenerator interface {
	Answer(ctx context.Context, query, documents string) (string, error)
}

// CompanyContext records what went into the analysis for one company.
type CompanyContext struct {
	Ticker       string `json:"ticker"`
	Year         string `json:"year"`
	Sections     int    `json:"sections"`
	Tokens       int    `json:"tokens"`
	UsedFallback bool   `json:"used_fallback"`
}

// Analysis is the full result of one analyze call.
type Analysis struct {
	Query     string           `json:"query"`
	Answer    string           `json:"answer"`
	Companies []CompanyContext `json:"companies"`
}

// Options tune one analyze call. Zero values take the defaults; UseHybrid
// defaults to on via NewOptions.
type Options struct {
	SectionLimit int
	MaxCompanies int
	TokenBudget  int
	UseHybrid    bool
}

// NewOptions returns the default analyze options.
func NewOptions() Options {
	return Options{
		SectionLimit: DefaultSectionLimit,
		MaxCompanies: DefaultMaxCompanies,
		TokenBudget:  assembler.DefaultTokenBudget,
		UseHybrid:    true,
	}
}

// Service runs the full analyze pipeline: ticker extraction, per-company
// retrieval and assembly, then answer generation.
type Service struct {
	store     FilingStore
	retriever Retriever
	generator AnswerGenerator
	logger    *slog.Logger
}

// NewService wires the analyze pipeline together.
func NewService(store FilingStore, retriever Retriever, generator AnswerGenerator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		retriever: retriever,
		generator: generator,
		logger:    logger,
	}
}

// Analyze answers a financial query against the indexed filings. Companies
// without an indexed filing are skipped; a company whose retrieval comes
// back empty falls back to its full filing content so the answer never
// silently omits a named company.
func (s *Service) Analyze(ctx context.Context, query string, opts Options) (*Analysis, error) {
	tickers := filings.ExtractTickers(query)
	if len(tickers) == 0 {
		return nil, ErrNoTickers
	}

	maxCompanies := opts.MaxCompanies
	if maxCompanies <= 0 {
		maxCompanies = DefaultMaxCompanies
	}
	if len(tickers) > maxCompanies {
		tickers = tickers[:maxCompanies]
	}

	sectionLimit := opts.SectionLimit
	if sectionLimit <= 0 {
		sectionLimit = DefaultSectionLimit
	}

	s.logger.Info("analyzing query", "query", query, "tickers", tickers)

	var blocks []string
	var companies []CompanyContext
	for _, ticker := range tickers {
		filing, err := s.store.GetFiling(ctx, ticker)
		if err != nil {
			if errors.Is(err, storage.ErrFilingNotFound) {
				s.logger.Warn("ticker not indexed", "ticker", ticker)
				continue
			}
			return nil, fmt.Errorf("load filing for %s: %w", ticker, err)
		}

		results := s.retriever.Retrieve(ctx, query, ticker, sectionLimit, opts.UseHybrid)
		content := assembler.Assemble(results, opts.TokenBudget)

		company := CompanyContext{
			Ticker:   ticker,
			Year:     filing.Year,
			Sections: len(results),
		}
		if content == "" {
			// Retrieval found nothing usable. The whole filing is better
			// than dropping the company from the answer.
			s.logger.Warn("no relevant sections, using full filing", "ticker", ticker)
			content = filing.Content
			company.Sections = 0
			company.UsedFallback = true
		}
		company.Tokens = assembler.EstimateTokens(content)

		blocks = append(blocks, fmt.Sprintf("=== %s (%s) ===\n%s\n", ticker, filing.Year, content))
		companies = append(companies, company)
	}

	if len(blocks) == 0 {
		return nil, ErrNoFilings
	}

	documents := strings.Join(blocks, "\n\n")
	s.logger.Info("generating analysis",
		"companies", len(companies), "tokens", assembler.EstimateTokens(documents))

	answer, err := s.generator.Answer(ctx, query, documents)
	if err != nil {
		return nil, fmt.Errorf("generate analysis: %w", err)
	}

	return &Analysis{
		Query:     query,
		Answer:    answer,
		Companies: companies,
	}, nil
}
