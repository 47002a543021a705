package format

import (
	"fmt"
	"strings"
)

// Truncate shortens s to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// List joins ids with commas, or returns "-" for an empty list.
func List(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}

// Percent formats a 0..1 ratio as a percentage.
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// Score formats a 0..100 score with two decimals.
func Score(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// BoolMark returns "✓" for true and "✗" for false.
func BoolMark(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}
