// Package normalize canonicalizes user-supplied identity fields so
// lookups and uniqueness checks behave predictably.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// RegisterNumber uppercases and trims a college register number.
func RegisterNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
