package section

import "regexp"

// DefaultSection is the label applied to content appearing before the first
// recognized section heading.
const DefaultSection = "Introduction"

// pattern pairs a compiled heading regexp with the section label it assigns.
// Patterns are tried in order and the first match wins, so more specific
// headings must appear before broader ones.
type pattern struct {
	re    *regexp.Regexp
	label string
}

// patterns covers the canonical 10-K item structure plus the consolidated
// financial statement headings that appear inside Item 8.
var patterns = []pattern{
	{regexp.MustCompile(`(?i)^Item\s+1\.?\s*[:\-]?\s*Business`), "Business"},
	{regexp.MustCompile(`(?i)^Item\s+1A\.?\s*[:\-]?\s*Risk\s+Factors`), "Risk Factors"},
	{regexp.MustCompile(`(?i)^Item\s+1B\.?\s*[:\-]?\s*Unresolved`), "Unresolved Staff Comments"},
	{regexp.MustCompile(`(?i)^Item\s+1C\.?\s*[:\-]?\s*Cybersecurity`), "Cybersecurity"},
	{regexp.MustCompile(`(?i)^Item\s+2\.?\s*[:\-]?\s*Properties`), "Properties"},
	{regexp.MustCompile(`(?i)^Item\s+3\.?\s*[:\-]?\s*Legal\s+Proceedings`), "Legal Proceedings"},
	{regexp.MustCompile(`(?i)^Item\s+4\.?\s*[:\-]?\s*Mine\s+Safety`), "Mine Safety"},
	{regexp.MustCompile(`(?i)^Item\s+5\.?\s*[:\-]?\s*Market`), "Market Information"},
	{regexp.MustCompile(`(?i)^Item\s+6\.?\s*[:\-]?\s*\[?Reserved\]?`), "Reserved"},
	{regexp.MustCompile(`(?i)^Item\s+7\.?\s*[:\-]?\s*Management`), "MD&A"},
	{regexp.MustCompile(`(?i)^Item\s+7A\.?\s*[:\-]?\s*Quantitative`), "Market Risk"},
	{regexp.MustCompile(`(?i)^Item\s+8\.?\s*[:\-]?\s*Financial\s+Statements`), "Financial Statements"},
	{regexp.MustCompile(`(?i)^Item\s+9\.?\s*[:\-]?\s*Changes`), "Changes in Accountants"},
	{regexp.MustCompile(`(?i)^Item\s+9A\.?\s*[:\-]?\s*Controls`), "Controls and Procedures"},
	{regexp.MustCompile(`(?i)^Item\s+9B\.?\s*[:\-]?\s*Other\s+Information`), "Other Information"},
	{regexp.MustCompile(`(?i)^Item\s+10\.?\s*[:\-]?\s*Directors`), "Directors and Officers"},
	{regexp.MustCompile(`(?i)^Item\s+11\.?\s*[:\-]?\s*Executive\s+Compensation`), "Executive Compensation"},
	{regexp.MustCompile(`(?i)^Item\s+12\.?\s*[:\-]?\s*Security\s+Ownership`), "Security Ownership"},
	{regexp.MustCompile(`(?i)^Item\s+13\.?\s*[:\-]?\s*Certain\s+Relationships`), "Relationships and Transactions"},
	{regexp.MustCompile(`(?i)^Item\s+14\.?\s*[:\-]?\s*Principal\s+Accountant`), "Principal Accountant"},
	{regexp.MustCompile(`(?i)^CONSOLIDATED\s+STATEMENTS?\s+OF\s+(INCOME|OPERATIONS|EARNINGS)`), "Income Statement"},
	{regexp.MustCompile(`(?i)^CONSOLIDATED\s+BALANCE\s+SHEETS?`), "Balance Sheet"},
	{regexp.MustCompile(`(?i)^CONSOLIDATED\s+STATEMENTS?\s+OF\s+CASH\s+FLOWS?`), "Cash Flow Statement"},
	{regexp.MustCompile(`(?i)^NOTES?\s+TO\s+(CONSOLIDATED\s+)?FINANCIAL\s+STATEMENTS?`), "Notes to Financial Statements"},
	{regexp.MustCompile(`(?i)^SEGMENT\s+INFORMATION`), "Segment Information"},
	{regexp.MustCompile(`(?i)^REVENUE`), "Revenue"},
	{regexp.MustCompile(`(?i)^NET\s+INCOME`), "Net Income"},
}

// matchSection returns the label for the first pattern matching the line.
func matchSection(line string) (string, bool) {
	for _, p := range patterns {
		if p.re.MatchString(line) {
			return p.label, true
		}
	}
	return "", false
}
