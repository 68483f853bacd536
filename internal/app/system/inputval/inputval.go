// Package inputval sanitizes and validates user-supplied display strings
// (conversation titles, group names, display names) at the API boundary.
package inputval

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips all markup: display strings are plain text everywhere
// they are rendered.
var strict = bluemonday.StrictPolicy()

const (
	maxTitleLen = 200
	maxNameLen  = 100
)

// Title sanitizes a conversation title. Empty after sanitization is an
// error; overlong titles are rejected rather than truncated.
func Title(s string) (string, error) {
	clean := strings.TrimSpace(strict.Sanitize(s))
	if clean == "" {
		return "", fmt.Errorf("title is empty")
	}
	if len(clean) > maxTitleLen {
		return "", fmt.Errorf("title exceeds %d characters", maxTitleLen)
	}
	return clean, nil
}

// Name sanitizes a group, folder, or display name.
func Name(s string) (string, error) {
	clean := strings.TrimSpace(strict.Sanitize(s))
	if clean == "" {
		return "", fmt.Errorf("name is empty")
	}
	if len(clean) > maxNameLen {
		return "", fmt.Errorf("name exceeds %d characters", maxNameLen)
	}
	return clean, nil
}
