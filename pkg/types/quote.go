package types

import (
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Quote returns a string literal, with single quotes escaped
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// DoubleQuote returns an identifier, with double quotes escaped
func DoubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// IsSingleQuoted returns true if the string is wrapped in single quotes
func IsSingleQuoted(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'")
}

// IsDoubleQuoted returns true if the string is wrapped in double quotes
func IsDoubleQuoted(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)
}

// IsNumeric returns true if the string is non-empty and consists only of digits
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
