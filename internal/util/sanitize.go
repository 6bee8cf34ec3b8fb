package util

import (
	"html"
	"strings"
)

// SanitizeInput trims and escapes HTML/script-like characters from free-form
// profile text before it is persisted.
func SanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return html.EscapeString(s)
}

// NormalizeEmail lowercases and trims an email address so that lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
