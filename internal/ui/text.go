package ui

import (
	"strings"
	"unicode/utf8"
)

// MaxCellChars bounds free text (messages, server error bodies) shown in a
// report table cell.
const MaxCellChars = 120

// TruncateSimple performs simple end truncation with "..." suffix.
// UTF-8 safe.
func TruncateSimple(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}

// SingleLine collapses every run of whitespace, newlines included, into one
// space so multi-line text fits a table cell or log line.
func SingleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// CellText prepares free text for a report table cell: one line, at most
// MaxCellChars runes.
func CellText(text string) string {
	return TruncateSimple(SingleLine(text), MaxCellChars)
}
