// Package section splits cleaned 10-K filings into section-labeled chunks.
// Section boundaries are detected with an ordered regexp table over the
// canonical item structure; markdown tables are kept atomic.
package section

import "strings"

// DefaultMinChunkChars is the substantiveness threshold: a closed buffer
// whose trimmed text is not longer than this merges forward into the next
// section instead of being emitted.
const DefaultMinChunkChars = 100

// Chunk is a contiguous, section-scoped slice of a filing.
type Chunk struct {
	Ticker    string
	Section   string
	Text      string
	StartLine int // index of the chunk's first line in the source
	EndLine   int // index one past the chunk's last line
}

// Result carries the emitted chunks plus the trailing fragment, if any, that
// was too short to emit and had no following section to merge into.
type Result struct {
	Chunks      []Chunk
	DroppedTail string
}

// Chunker turns cleaned filing text into ordered section chunks.
type Chunker struct {
	minChars int
}

// NewChunker creates a chunker with the given substantiveness threshold.
// A non-positive threshold selects DefaultMinChunkChars.
func NewChunker(minChars int) *Chunker {
	if minChars <= 0 {
		minChars = DefaultMinChunkChars
	}
	return &Chunker{minChars: minChars}
}

// Chunk scans the document line by line and emits one chunk per recognized
// section. Table blocks (pipe-prefixed line grids) are consumed atomically
// and never tested for section boundaries. A buffer closed below the
// threshold is carried into the next section's accumulation, so the emitted
// chunks concatenate back to the source with nothing duplicated and at most
// the trailing fragment missing.
func (c *Chunker) Chunk(content, ticker string) Result {
	var res Result
	lines := strings.Split(content, "\n")

	current := DefaultSection
	var buf []string
	bufStart := 0
	inTable := false
	var table []string

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !inTable && strings.HasPrefix(trimmed, "|") && !strings.Contains(line, "---") {
			inTable = true
			table = append(table, line)
			continue
		}
		if inTable {
			if strings.HasPrefix(trimmed, "|") || trimmed == "" {
				table = append(table, line)
				continue
			}
			// Table ended; flush it atomically, then treat this line normally.
			buf = append(buf, table...)
			table = nil
			inTable = false
		}

		if label, ok := matchSection(line); ok && label != current {
			text := strings.TrimSpace(strings.Join(buf, "\n"))
			if len(text) > c.minChars {
				res.Chunks = append(res.Chunks, Chunk{
					Ticker:    ticker,
					Section:   current,
					Text:      text,
					StartLine: bufStart,
					EndLine:   i,
				})
				buf = buf[:0:0]
				bufStart = i
			}
			// A short buffer stays put and merges into the new section.
			current = label
			buf = append(buf, line)
			continue
		}

		buf = append(buf, line)
	}

	if len(table) > 0 {
		buf = append(buf, table...)
	}

	if text := strings.TrimSpace(strings.Join(buf, "\n")); text != "" {
		if len(text) > c.minChars {
			res.Chunks = append(res.Chunks, Chunk{
				Ticker:    ticker,
				Section:   current,
				Text:      text,
				StartLine: bufStart,
				EndLine:   len(lines),
			})
		} else {
			res.DroppedTail = text
		}
	}

	return res
}
