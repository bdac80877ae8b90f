package utils

import (
	"strings"
	"unicode/utf8"
)

// ProgressBar draws a fixed width bar with a marker at the current position.
func ProgressBar(current, total, width int) string {
	if width <= 0 {
		width = 20
	}
	if total <= 0 {
		return strings.Repeat("▬", width)
	}
	if current < 0 {
		current = 0
	}
	if current > total {
		current = total
	}
	pos := current * width / total
	if pos >= width {
		pos = width - 1
	}
	return strings.Repeat("▬", pos) + "🔘" + strings.Repeat("▬", width-pos-1)
}

// Truncate shortens s to at most max runes, ending in an ellipsis when cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-3]) + "..."
}
