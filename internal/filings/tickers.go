package filings

import (
	"regexp"
	"sort"
	"strings"
)

// companyTickers maps common company names and product aliases to tickers,
// for queries that name the company instead of the symbol.
var companyTickers = map[string]string{
	"apple": "AAPL", "microsoft": "MSFT", "amazon": "AMZN", "google": "GOOGL",
	"alphabet": "GOOGL", "meta": "META", "facebook": "META", "tesla": "TSLA",
	"nvidia": "NVDA", "netflix": "NFLX", "disney": "DIS", "jpmorgan": "JPM",
	"jpm": "JPM", "bank of america": "BAC", "goldman sachs": "GS",
	"morgan stanley": "MS", "citigroup": "C", "wells fargo": "WFC",
	"aws": "AMZN", "azure": "MSFT", "gcp": "GOOGL",
}

// symbolPattern matches bare uppercase ticker symbols. Two letters minimum,
// so ordinary capitalized words like "I" or "A" never match.
var symbolPattern = regexp.MustCompile(`\b[A-Z]{2,5}\b`)

// ExtractTickers pulls ticker symbols out of a free-text query: explicit
// uppercase symbols first, then known company names in alphabetical order.
// Duplicates are dropped.
func ExtractTickers(query string) []string {
	var tickers []string
	seen := make(map[string]bool)

	for _, sym := range symbolPattern.FindAllString(query, -1) {
		if !seen[sym] {
			seen[sym] = true
			tickers = append(tickers, sym)
		}
	}

	names := make([]string, 0, len(companyTickers))
	for name := range companyTickers {
		names = append(names, name)
	}
	sort.Strings(names)

	lower := strings.ToLower(query)
	for _, name := range names {
		sym := companyTickers[name]
		if strings.Contains(lower, name) && !seen[sym] {
			seen[sym] = true
			tickers = append(tickers, sym)
		}
	}

	return tickers
}
