package section

import (
	"strings"
	"testing"
)

func pad(n int) string {
	return strings.TrimSpace(strings.Repeat("padding ", n))
}

// TestChunk_BasicSections tests splitting on canonical item headings.
func TestChunk_BasicSections(t *testing.T) {
	input := "Item 1. Business\n" + pad(20) + "\nItem 1A. Risk Factors\n" + pad(20) + "\nItem 7. Management's Discussion\n" + pad(20)

	res := NewChunker(100).Chunk(input, "AAPL")
	if len(res.Chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(res.Chunks))
	}

	expected := []string{"Business", "Risk Factors", "MD&A"}
	for i, want := range expected {
		if res.Chunks[i].Section != want {
			t.Errorf("Chunk %d section: expected %q, got %q", i, want, res.Chunks[i].Section)
		}
		if res.Chunks[i].Ticker != "AAPL" {
			t.Errorf("Chunk %d ticker: expected AAPL, got %q", i, res.Chunks[i].Ticker)
		}
	}

	// Header line belongs to the chunk it introduces.
	if !strings.HasPrefix(res.Chunks[1].Text, "Item 1A.") {
		t.Errorf("Chunk 1 should start with its heading, got %q", res.Chunks[1].Text[:30])
	}
	if strings.Contains(res.Chunks[0].Text, "Item 1A.") {
		t.Errorf("Chunk 0 should not contain the next section's heading")
	}
}

// TestChunk_ShortSectionMergesForward verifies the substantiveness rule:
// a section shorter than the threshold joins the following section.
func TestChunk_ShortSectionMergesForward(t *testing.T) {
	input := "Item 1. Business\nSmall text\nItem 7. Management\nBigger text that exceeds one hundred characters padding padding padding padding padding padding."

	res := NewChunker(100).Chunk(input, "MSFT")
	if len(res.Chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(res.Chunks))
	}

	chunk := res.Chunks[0]
	if chunk.Section != "MD&A" {
		t.Errorf("Expected MD&A section, got %q", chunk.Section)
	}
	// Merge-forward keeps the short Business text instead of dropping it.
	if !strings.Contains(chunk.Text, "Small text") {
		t.Errorf("Short section content was lost")
	}
	if chunk.StartLine != 0 {
		t.Errorf("Merged chunk should start at line 0, got %d", chunk.StartLine)
	}
	if chunk.EndLine != 4 {
		t.Errorf("Expected end line 4, got %d", chunk.EndLine)
	}
}

// TestChunk_TableAtomicity verifies that a pipe-delimited grid is never
// split, even when a cell's text looks like a section heading.
func TestChunk_TableAtomicity(t *testing.T) {
	table := "| Metric | FY24 |\n|---|---|\n| Item 1A. Risk Factors mention | 12 |\n| Revenue | 391,035 |\n| Net income | 93,736 |"
	input := "Item 7. Management's Discussion\n" + pad(20) + "\n" + table + "\n" + pad(20)

	res := NewChunker(100).Chunk(input, "AAPL")
	if len(res.Chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(res.Chunks))
	}

	// All table lines appear contiguously in one chunk.
	if !strings.Contains(res.Chunks[0].Text, table) {
		t.Errorf("Table block was split or reordered:\n%s", res.Chunks[0].Text)
	}
}

// TestChunk_TableAtEOF verifies a table still open at end of input is flushed.
func TestChunk_TableAtEOF(t *testing.T) {
	input := "Item 2. Properties\n" + pad(20) + "\n| Location | Sq ft |\n|---|---|\n| Cupertino | 2,800,000 |"

	res := NewChunker(100).Chunk(input, "AAPL")
	if len(res.Chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(res.Chunks))
	}
	if !strings.Contains(res.Chunks[0].Text, "Cupertino") {
		t.Errorf("Trailing table lines were lost")
	}
}

// TestChunk_NoHeadings verifies a document without recognized headings yields
// a single Introduction chunk, or none when below the threshold.
func TestChunk_NoHeadings(t *testing.T) {
	res := NewChunker(100).Chunk(pad(30), "GOOG")
	if len(res.Chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(res.Chunks))
	}
	if res.Chunks[0].Section != "Introduction" {
		t.Errorf("Expected Introduction label, got %q", res.Chunks[0].Section)
	}

	res = NewChunker(100).Chunk("too short to index", "GOOG")
	if len(res.Chunks) != 0 {
		t.Errorf("Expected 0 chunks for sub-threshold document, got %d", len(res.Chunks))
	}
	if res.DroppedTail != "too short to index" {
		t.Errorf("Dropped tail not reported, got %q", res.DroppedTail)
	}
}

// TestChunk_Coverage verifies no line is duplicated or lost across chunks.
func TestChunk_Coverage(t *testing.T) {
	input := "Intro paragraph with enough text to stand on its own " + pad(10) + "\nItem 1. Business\n" + pad(20) + "\nItem 1A. Risk Factors\n" + pad(20)

	res := NewChunker(100).Chunk(input, "AAPL")
	var joined []string
	for _, ch := range res.Chunks {
		joined = append(joined, ch.Text)
	}
	got := strings.Join(joined, "\n")
	if got != strings.TrimSpace(input) {
		t.Errorf("Concatenated chunks do not reconstruct source:\nwant %q\ngot  %q", input, got)
	}

	// Line ranges must tile the document without overlap.
	for i := 1; i < len(res.Chunks); i++ {
		if res.Chunks[i].StartLine != res.Chunks[i-1].EndLine {
			t.Errorf("Gap or overlap between chunk %d and %d", i-1, i)
		}
	}
}

// TestChunk_SectionOrder verifies labels follow source order.
func TestChunk_SectionOrder(t *testing.T) {
	input := "Item 1. Business\n" + pad(20) +
		"\nItem 3. Legal Proceedings\n" + pad(20) +
		"\nItem 8. Financial Statements\n" + pad(20) +
		"\nCONSOLIDATED BALANCE SHEETS\n" + pad(20)

	res := NewChunker(100).Chunk(input, "AAPL")
	want := []string{"Business", "Legal Proceedings", "Financial Statements", "Balance Sheet"}
	if len(res.Chunks) != len(want) {
		t.Fatalf("Expected %d chunks, got %d", len(want), len(res.Chunks))
	}
	for i, label := range want {
		if res.Chunks[i].Section != label {
			t.Errorf("Chunk %d: expected %q, got %q", i, label, res.Chunks[i].Section)
		}
	}
}

// TestChunk_MinimumSubstantiveness verifies no emitted chunk is below the
// configured threshold.
func TestChunk_MinimumSubstantiveness(t *testing.T) {
	input := "Item 1. Business\nshort\nItem 2. Properties\nshort again\nItem 3. Legal Proceedings\n" + pad(30)

	res := NewChunker(100).Chunk(input, "AAPL")
	for i, ch := range res.Chunks {
		if len(strings.TrimSpace(ch.Text)) <= 100 {
			t.Errorf("Chunk %d below threshold: %d chars", i, len(ch.Text))
		}
	}
}

func TestMatchSection_PriorityOrder(t *testing.T) {
	cases := []struct {
		line  string
		label string
	}{
		{"Item 1. Business", "Business"},
		{"Item 1A. Risk Factors", "Risk Factors"},
		{"ITEM 7. MANAGEMENT'S DISCUSSION AND ANALYSIS", "MD&A"},
		{"Item 7A. Quantitative and Qualitative Disclosures", "Market Risk"},
		{"CONSOLIDATED STATEMENTS OF OPERATIONS", "Income Statement"},
		{"Notes to Consolidated Financial Statements", "Notes to Financial Statements"},
		{"REVENUE", "Revenue"},
		{"NET INCOME", "Net Income"},
	}

	for _, tc := range cases {
		label, ok := matchSection(tc.line)
		if !ok {
			t.Errorf("No match for %q", tc.line)
			continue
		}
		if label != tc.label {
			t.Errorf("%q: expected %q, got %q", tc.line, tc.label, label)
		}
	}

	if _, ok := matchSection("The Business grew this year"); ok {
		t.Errorf("Patterns must anchor at line start")
	}
}

func TestStripLeadingNoise(t *testing.T) {
	input := "xmlns declarations\nus-gaap:RevenueFromContract\niso4217:USD\nfalse\n\nApple Inc. Annual Report\nBody text with us-gaap: mention kept intact"

	got := StripLeadingNoise(input)
	if !strings.HasPrefix(got, "Apple Inc. Annual Report") {
		t.Errorf("Noise block not stripped, got %q", got)
	}
	// The scan is one-shot: indicators after the first clean line survive.
	if !strings.Contains(got, "us-gaap: mention kept intact") {
		t.Errorf("Post-content lines must pass through unchanged")
	}
}

func TestStripLeadingNoise_AllNoise(t *testing.T) {
	if got := StripLeadingNoise("xbrli:context\nus-gaap:Thing\n"); got != "" {
		t.Errorf("Expected empty output for all-noise input, got %q", got)
	}
}
