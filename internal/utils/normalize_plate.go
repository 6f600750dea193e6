package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minMessageLen = 3
	minPlateLen   = 6
	maxPlateLen   = 8
)

// NormalizePlate strips whitespace and hyphens and upper-cases the rest.
func NormalizePlate(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, normalized)
	normalized = strings.ToUpper(normalized)
	return normalized
}

// IsLikelyPlate is the permissive entry check for chat messages: at least
// three characters and at least one digit once separators are removed.
func IsLikelyPlate(text string) bool {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < minMessageLen {
		return false
	}
	return strings.IndexFunc(NormalizePlate(trimmed), isDigit) >= 0
}

// IsValidPlate accepts normalized plates of 6 to 8 characters. It is stricter
// than IsLikelyPlate and runs independently of it.
func IsValidPlate(raw string) bool {
	n := utf8.RuneCountInString(NormalizePlate(raw))
	return n >= minPlateLen && n <= maxPlateLen
}

// IsTooShort reports whether a message is below the length the bot answers at all.
func IsTooShort(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < minMessageLen
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
