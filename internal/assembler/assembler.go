// Package assembler turns ranked retrieval results into a single context
// string that fits a token budget.
package assembler

import (
	"fmt"
	"strings"

	"github.com/finsight/filings-mcp/internal/retrieval"
)

// DefaultTokenBudget caps the assembled context. Sized for models with a
// 128k window, leaving headroom for the system prompt and the answer.
const DefaultTokenBudget = 50000

// EstimateTokens approximates the token count of text as one token per four
// bytes. Rough but cheap, and it only has to be consistent with itself.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// Assemble formats results into relevance-labeled blocks, walking them in
// rank order and stopping at the first chunk whose text would push the
// running estimate past the budget. Later, smaller chunks are not
// backfilled; rank order is worth more than squeezing the budget full.
// The budget counts chunk text only, not the section headers. A
// non-positive budget falls back to DefaultTokenBudget. Empty results
// produce an empty string, which callers treat as "no usable context".
func Assemble(results []retrieval.Result, tokenBudget int) string {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}

	var blocks []string
	used := 0
	for _, r := range results {
		cost := EstimateTokens(r.Chunk.Text)
		if used+cost > tokenBudget {
			break
		}
		blocks = append(blocks, formatBlock(r))
		used += cost
	}

	return strings.Join(blocks, "\n\n")
}

func formatBlock(r retrieval.Result) string {
	return fmt.Sprintf("### %s (Relevance: %.3f)\n%s", r.Chunk.Section, r.Score, r.Chunk.Text)
}
