// Package normalize provides canonical forms for user-supplied identity
// fields so comparisons and storage are consistent across handlers.
package normalize

import "strings"

// Email returns a trimmed, lowercased email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role returns the trimmed, lowercased role string. It does not validate;
// use models.ValidRole for that.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status returns the trimmed, lowercased status string. Empty input is
// treated as "active", matching store defaults.
func Status(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return "active"
	}
	return v
}

// AuthMode returns the trimmed, lowercased auth mode string.
func AuthMode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
