// Package filings locates and loads processed 10-K markdown files from the
// local filesystem. Filenames carry the metadata: TICKER_YEAR.md.
package filings

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultYear is assumed when a filename carries no four-digit year.
const DefaultYear = "2024"

// File is one discovered filing document, not yet loaded.
type File struct {
	Ticker string
	Year   string
	Path   string
}

// Discover lists the markdown filings under dir, sorted by ticker. It
// returns an error when the directory is missing; an empty directory is not
// an error.
func Discover(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read filings dir: %w", err)
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		files = append(files, File{
			Ticker: TickerFromFilename(entry.Name()),
			Year:   YearFromFilename(entry.Name()),
			Path:   filepath.Join(dir, entry.Name()),
		})
	}

	sort.Slice(files, func(a, b int) bool {
		return files[a].Ticker < files[b].Ticker
	})
	return files, nil
}

// Load reads the filing's content.
func (f File) Load() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("read filing %s: %w", f.Path, err)
	}
	return string(data), nil
}

// TickerFromFilename extracts the ticker from names like AAPL_2024.md.
// Everything before the first underscore, uppercased.
func TickerFromFilename(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	ticker, _, _ := strings.Cut(stem, "_")
	if ticker == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(ticker)
}

// YearFromFilename extracts the first four-digit part of names like
// AAPL_2024.md, falling back to DefaultYear.
func YearFromFilename(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	for _, part := range strings.Split(stem, "_") {
		if len(part) == 4 && isDigits(part) {
			return part
		}
	}
	return DefaultYear
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
