// detail.go provides the detail_level parameter shared by the listing tools.
//
//   - summary: id, name, location and date only
//   - standard: default, attributes plus a truncated description
//   - full: everything, untruncated
package hiketools

import "fmt"

// Detail level constants.
const (
	DetailSummary  = "summary"
	DetailStandard = "standard"
	DetailFull     = "full"
)

// DetailLevelValues returns the enum values for MCP tool definitions.
func DetailLevelValues() []string {
	return []string{DetailSummary, DetailStandard, DetailFull}
}

// ParseDetailLevel normalizes a detail_level string, defaulting to "standard"
// for empty or unrecognized values.
func ParseDetailLevel(s string) string {
	switch s {
	case DetailSummary, DetailFull:
		return s
	default:
		return DetailStandard
	}
}

// SummaryFooter is appended to summary-mode responses.
const SummaryFooter = "\n---\nUse detail_level: standard or full for more detail."

// NavigationHint returns a one-line footer when results are capped by a limit.
// Returns an empty string when all results fit or total is 0.
func NavigationHint(showing, total int, hint string) string {
	if total <= 0 || showing >= total {
		return ""
	}
	if hint != "" {
		return fmt.Sprintf("\nShowing %d of %d. %s", showing, total, hint)
	}
	return fmt.Sprintf("\nShowing %d of %d.", showing, total)
}

// Truncate shortens s to at most max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
