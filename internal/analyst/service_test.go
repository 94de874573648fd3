package analyst

import (
	"context"
	"strings"
	"testing"

	"github.com/finsight/filings-mcp/internal/retrieval"
	"github.com/finsight/filings-mcp/internal/storage"
)

type fakeFilingStore struct {
	filings map[string]*storage.Filing
}

func (f *fakeFilingStore) GetFiling(ctx context.Context, ticker string) (*storage.Filing, error) {
	filing, ok := f.filings[ticker]
	if !ok {
		return nil, storage.ErrFilingNotFound
	}
	return filing, nil
}

type fakeRetriever struct {
	results map[string][]retrieval.Result
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query, ticker string, limit int, useHybrid bool) []retrieval.Result {
	return f.results[ticker]
}

type fakeGenerator struct {
	documents string
	answer    string
}

func (f *fakeGenerator) Answer(ctx context.Context, query, documents string) (string, error) {
	f.documents = documents
	return f.answer, nil
}

func filing(ticker, year, content string) *storage.Filing {
	return &storage.Filing{Ticker: ticker, Year: year, Content: content}
}

func hit(section, text string, score float64) retrieval.Result {
	return retrieval.Result{
		Chunk: &storage.SectionChunk{Section: section, Text: text},
		Score: score,
	}
}

func TestAnalyze_RetrievedSections(t *testing.T) {
	store := &fakeFilingStore{filings: map[string]*storage.Filing{
		"AAPL": filing("AAPL", "2024", "full filing content"),
	}}
	retriever := &fakeRetriever{results: map[string][]retrieval.Result{
		"AAPL": {hit("MD&A", "Revenue grew twelve percent.", 0.876)},
	}}
	gen := &fakeGenerator{answer: "Revenue grew."}

	svc := NewService(store, retriever, gen, nil)
	analysis, err := svc.Analyze(context.Background(), "How did AAPL revenue do?", NewOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if analysis.Answer != "Revenue grew." {
		t.Errorf("Unexpected answer: %q", analysis.Answer)
	}
	if len(analysis.Companies) != 1 {
		t.Fatalf("Expected 1 company, got %d", len(analysis.Companies))
	}
	company := analysis.Companies[0]
	if company.Ticker != "AAPL" || company.Sections != 1 || company.UsedFallback {
		t.Errorf("Unexpected company context: %+v", company)
	}

	if !strings.Contains(gen.documents, "=== AAPL (2024) ===") {
		t.Errorf("Documents missing company block:\n%s", gen.documents)
	}
	if !strings.Contains(gen.documents, "### MD&A (Relevance: 0.876)") {
		t.Errorf("Documents missing relevance block:\n%s", gen.documents)
	}
	if strings.Contains(gen.documents, "full filing content") {
		t.Errorf("Should not fall back to full filing when sections exist:\n%s", gen.documents)
	}
}

func TestAnalyze_FallsBackToFullFiling(t *testing.T) {
	store := &fakeFilingStore{filings: map[string]*storage.Filing{
		"AAPL": filing("AAPL", "2024", "full filing content"),
	}}
	gen := &fakeGenerator{answer: "ok"}

	svc := NewService(store, &fakeRetriever{}, gen, nil)
	analysis, err := svc.Analyze(context.Background(), "How did AAPL revenue do?", NewOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	company := analysis.Companies[0]
	if !company.UsedFallback || company.Sections != 0 {
		t.Errorf("Expected full-filing fallback, got %+v", company)
	}
	if !strings.Contains(gen.documents, "full filing content") {
		t.Errorf("Documents missing fallback content:\n%s", gen.documents)
	}
}

func TestAnalyze_SkipsUnindexedTickers(t *testing.T) {
	store := &fakeFilingStore{filings: map[string]*storage.Filing{
		"AAPL": filing("AAPL", "2024", "apple content"),
	}}
	retriever := &fakeRetriever{results: map[string][]retrieval.Result{
		"AAPL": {hit("MD&A", "Revenue grew.", 0.9)},
	}}
	gen := &fakeGenerator{answer: "ok"}

	svc := NewService(store, retriever, gen, nil)
	analysis, err := svc.Analyze(context.Background(), "Compare AAPL and ZZZZ", NewOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(analysis.Companies) != 1 || analysis.Companies[0].Ticker != "AAPL" {
		t.Errorf("Expected only AAPL, got %+v", analysis.Companies)
	}
}

func TestAnalyze_NoTickers(t *testing.T) {
	svc := NewService(&fakeFilingStore{}, &fakeRetriever{}, &fakeGenerator{}, nil)
	_, err := svc.Analyze(context.Background(), "what happened to revenue", NewOptions())
	if err != ErrNoTickers {
		t.Errorf("Expected ErrNoTickers, got %v", err)
	}
}

func TestAnalyze_NoFilings(t *testing.T) {
	svc := NewService(&fakeFilingStore{}, &fakeRetriever{}, &fakeGenerator{}, nil)
	_, err := svc.Analyze(context.Background(), "How did AAPL do?", NewOptions())
	if err != ErrNoFilings {
		t.Errorf("Expected ErrNoFilings, got %v", err)
	}
}

func TestAnalyze_LimitsCompanies(t *testing.T) {
	store := &fakeFilingStore{filings: map[string]*storage.Filing{
		"AAPL": filing("AAPL", "2024", "a"),
		"MSFT": filing("MSFT", "2024", "m"),
	}}
	gen := &fakeGenerator{answer: "ok"}

	svc := NewService(store, &fakeRetriever{}, gen, nil)
	opts := NewOptions()
	opts.MaxCompanies = 1

	analysis, err := svc.Analyze(context.Background(), "Compare AAPL and MSFT", opts)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(analysis.Companies) != 1 {
		t.Errorf("Expected companies capped at 1, got %d", len(analysis.Companies))
	}
}

func TestRepairTables(t *testing.T) {
	// Pervasive tabs with 3+ cells per row get converted to pipe rows.
	rows := make([]string, 0, 6)
	for range 6 {
		rows = append(rows, "Revenue\t2024\t2023")
	}
	input := strings.Join(rows, "\n") + "\nplain line"

	fixed, changed := repairTables(input)
	if !changed {
		t.Fatal("Expected table repair to trigger")
	}
	if !strings.Contains(fixed, "| Revenue | 2024 | 2023 |") {
		t.Errorf("Expected pipe-formatted rows:\n%s", fixed)
	}
	if !strings.Contains(fixed, "plain line") {
		t.Errorf("Non-table lines must pass through:\n%s", fixed)
	}

	// Sparse tabs are left alone.
	if _, changed := repairTables("a\tb\tc"); changed {
		t.Error("Sparse tabs should not trigger repair")
	}
}
