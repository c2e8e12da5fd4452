package errors

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxPromptLength bounds the prompt forwarded to the planning service.
const MaxPromptLength = 4000

// ValidatePrompt validates a free-text generation prompt.
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only prompts
//   - No null bytes or control characters other than newline and tab
//   - Maximum length of MaxPromptLength runes
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return New(ErrCodeInvalidPrompt, "prompt cannot be empty")
	}

	if utf8.RuneCountInString(prompt) > MaxPromptLength {
		return New(ErrCodeInvalidPrompt, "prompt too long (max %d characters)", MaxPromptLength)
	}

	for _, r := range prompt {
		if r == '\n' || r == '\t' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPrompt, "prompt contains invalid control characters")
		}
	}

	return nil
}

// sectionTypeRegex matches section type identifiers as emitted by the planner
// (camelCase words, optionally with dashes or underscores).
var sectionTypeRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// ValidateSectionType validates a section type used as a content store key.
// Unknown but well-formed types are accepted; they render as placeholders.
func ValidateSectionType(typ string) error {
	if typ == "" {
		return New(ErrCodeInvalidSection, "section type cannot be empty")
	}

	if len(typ) > 128 {
		return New(ErrCodeInvalidSection, "section type too long (max 128 characters)")
	}

	if !sectionTypeRegex.MatchString(typ) {
		return New(ErrCodeInvalidSection, "invalid section type: %q", typ)
	}

	return nil
}

// ValidateField validates a content field name addressed by an edit.
// An empty field is allowed; it addresses a whole list element.
func ValidateField(field string) error {
	if len(field) > 128 {
		return New(ErrCodeInvalidEdit, "field name too long (max 128 characters)")
	}

	for _, r := range field {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidEdit, "field name contains invalid characters")
		}
	}

	return nil
}

// ValidatePath validates a local output or plan file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
