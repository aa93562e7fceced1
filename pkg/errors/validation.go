package errors

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length limits for user-supplied text.
const (
	MaxLabelLength = 200
	MaxTitleLength = 200
	MaxIDLength    = 64
)

// ValidateLabel validates a topic label.
//
// Labels must be non-blank, at most MaxLabelLength characters long and free
// of control characters. Tabs and newlines are rejected too because the
// terminal canvas renders labels on a single line.
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return New(ErrCodeInvalidLabel, "label cannot be empty")
	}
	if n := utf8.RuneCountInString(label); n > MaxLabelLength {
		return New(ErrCodeInvalidLabel, "label too long (%d characters, max %d)", n, MaxLabelLength)
	}
	if hasControl(label) {
		return New(ErrCodeInvalidLabel, "label contains control characters")
	}
	return nil
}

// ValidateTitle validates a mind map title. An empty title is allowed.
func ValidateTitle(title string) error {
	if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		return New(ErrCodeInvalidInput, "title too long (%d characters, max %d)", n, MaxTitleLength)
	}
	if hasControl(title) {
		return New(ErrCodeInvalidInput, "title contains control characters")
	}
	return nil
}

// ValidateID validates a mind map or node identifier.
//
// Identifiers become file names and cache keys, so besides length and
// control characters they may not contain path separators or "..".
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "identifier cannot be empty")
	}
	if len(id) > MaxIDLength {
		return New(ErrCodeInvalidID, "identifier too long (max %d characters)", MaxIDLength)
	}
	if hasControl(id) {
		return New(ErrCodeInvalidID, "identifier contains control characters")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return New(ErrCodeInvalidID, "identifier contains invalid characters: %q", id)
	}
	return nil
}

// ValidatePath validates a mind map file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - Extension must be .json, .yaml or .yml
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if hasControl(path) {
		return New(ErrCodeInvalidPath, "path contains invalid characters")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return nil
	default:
		return New(ErrCodeInvalidFormat, "unsupported file extension %q (use .json, .yaml or .yml)", filepath.Ext(path))
	}
}

func hasControl(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
