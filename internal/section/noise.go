package section

import "strings"

// noiseIndicators mark XBRL machine-metadata lines that SEC submission
// converters leave at the top of a filing.
var noiseIndicators = []string{
	"us-gaap:",
	"xbrli:",
	"iso4217:",
	"Member",
	"http://",
}

// StripLeadingNoise removes the XBRL tag block that precedes the readable
// body of a converted filing. It scans from the top and discards lines until
// the first non-blank line carrying no metadata indicator; everything from
// that line on passes through unchanged, indicators included. The scan is
// one-shot and order-dependent, not a per-line filter.
func StripLeadingNoise(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "xml") || strings.HasPrefix(trimmed, "false") {
			continue
		}
		if containsIndicator(line) {
			continue
		}
		return strings.Join(lines[i:], "\n")
	}
	return ""
}

func containsIndicator(line string) bool {
	for _, ind := range noiseIndicators {
		if strings.Contains(line, ind) {
			return true
		}
	}
	return false
}
