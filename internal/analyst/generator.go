// Package analyst generates filing summaries and query answers with GPT-4o.
package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
)

// DefaultMaxTokens caps the content sent for summary generation, in tokens.
const DefaultMaxTokens = 16000

// answerSystemPrompt steers the model toward table fidelity. Converted 10-K
// filings are table-heavy and models like to paraphrase numbers; the prompt
// pins them to the source values and to pipe-separated markdown output.
const answerSystemPrompt = `You are a financial analyst expert. Analyze the provided financial documents and answer the user's query.

CRITICAL INSTRUCTIONS FOR TABLES:
- Pay EXTREMELY close attention to TABLES - they contain critical financial data
- Preserve EXACT numbers, dates, and percentages from tables - do not round or approximate
- When showing tables in your response, you MUST use proper markdown table format with pipe separators (|)
- DO NOT use tabs, spaces, or any other format - ONLY use markdown table format
- Markdown table format example:
  | Column 1 | Column 2 | Column 3 |
  |----------|----------|----------|
  | Data 1   | Data 2   | Data 3   |
- Extract data directly from tables - do not make up numbers
- If the query asks for a table, reconstruct it completely with all rows and columns in markdown format
- Preserve table structure: row headers (security types, categories), column headers (years, periods), and all data cells
- For calculations (percentages, differences), show your work or cite the exact values used
- Cite specific sections and table names when referencing data (e.g., "Interest Rate Risk table", "Item 7A")
- If data is not found, clearly state that rather than guessing

Format your response as a clear, structured analysis with properly formatted markdown tables when relevant. ALWAYS use | separators for tables, never tabs or spaces.`

// FilingSummary is the LLM-generated digest stored alongside a filing.
type FilingSummary struct {
	Summary string   `json:"summary"`
	Topics  []string `json:"topics"`
}

// Generator produces summaries and answers using GPT-4o.
type Generator struct {
	client    *openai.Client
	maxTokens int
	logger    *slog.Logger
}

// NewGenerator creates a generator with the given OpenAI client. Optional
// maxTokens sets the summary truncation limit (defaults to DefaultMaxTokens).
func NewGenerator(client *openai.Client, logger *slog.Logger, maxTokens ...int) *Generator {
	max := DefaultMaxTokens
	if len(maxTokens) > 0 && maxTokens[0] > 0 {
		max = maxTokens[0]
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		client:    client,
		maxTokens: max,
		logger:    logger,
	}
}

// Summarize produces a short digest of one filing for the filing directory.
func (g *Generator) Summarize(ctx context.Context, ticker, year, content string) (*FilingSummary, error) {
	truncated := g.truncateContent(content)

	prompt := fmt.Sprintf(`Analyze this SEC Form 10-K filing and provide:
1. A concise summary (1-2 sentences) capturing the company's business and the year's key results
2. A list of the major topics covered (segments, risks, financial statement items)

Company: %s
Fiscal year: %s

Filing content:
%s

Respond in JSON format:
{"summary": "Brief description of the filing", "topics": ["Topic1", "Topic2"]}`, ticker, year, truncated)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModelGPT4o,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	var summary FilingSummary
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &summary); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &summary, nil
}

// Answer runs the analyst prompt over the assembled document context and
// returns the model's analysis, with table formatting repaired if the model
// ignored the pipe-separator instruction.
func (g *Generator) Answer(ctx context.Context, query, documents string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(answerSystemPrompt),
			openai.UserMessage(fmt.Sprintf("User Query: %s\n\nDocuments:\n%s", query, documents)),
		},
		Model: openai.ChatModelGPT4o,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	answer := resp.Choices[0].Message.Content
	if fixed, changed := repairTables(answer); changed {
		g.logger.Info("repaired tab-separated tables in answer")
		answer = fixed
	}
	return answer, nil
}

// repairTables converts tab-separated table rows into markdown pipe rows.
// Only kicks in when tabs are pervasive enough to look like tables rather
// than incidental whitespace.
func repairTables(answer string) (string, bool) {
	if strings.Count(answer, "\t") <= 10 {
		return answer, false
	}

	lines := strings.Split(answer, "\n")
	changed := false
	for i, line := range lines {
		cells := strings.Split(line, "\t")
		if len(cells) < 3 {
			continue
		}
		for j, cell := range cells {
			cells[j] = strings.TrimSpace(cell)
		}
		lines[i] = "| " + strings.Join(cells, " | ") + " |"
		changed = true
	}
	if !changed {
		return answer, false
	}
	return strings.Join(lines, "\n"), true
}

// truncateContent trims content to fit the summary token limit, estimating
// four characters per token.
func (g *Generator) truncateContent(content string) string {
	maxChars := g.maxTokens * 4
	if len(content) <= maxChars {
		return content
	}
	g.logger.Warn("truncating content for summary",
		"from_chars", len(content), "to_chars", maxChars)
	return content[:maxChars]
}
