package validators

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeString trims, drops control characters and caps the result at maxLen runes.
// Counting runes keeps Devanagari and other multi-byte search terms intact.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))

	if maxLen > 0 && utf8.RuneCountInString(cleaned) > maxLen {
		cleaned = string([]rune(cleaned)[:maxLen])
	}
	return strings.TrimSpace(cleaned)
}
