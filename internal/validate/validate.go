// Package validate is the fixed rule catalog for the submission pipeline.
// Each rule takes raw input and returns nil or a *RuleError carrying a
// machine-readable kind and a user-facing message. Rules have no side effects
// and may be called any number of times.
package validate

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
)

// Rule failure kinds.
const (
	KindEmptyField           = "empty_field"
	KindInvalidEmail         = "invalid_email"
	KindLengthViolation      = "length_violation"
	KindUnsupportedMediaType = "unsupported_media_type"
	KindPayloadTooLarge      = "payload_too_large"
	KindInvalidNumber        = "invalid_number"
)

// RuleError is a structured validation failure. It is fatal to the current
// submission and its Message is surfaced verbatim to the user.
type RuleError struct {
	Kind    string
	Field   string
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

// Required fails when the value (or every element of the slice) is empty
// after trimming.
func Required(field, value string) *RuleError {
	if strings.TrimSpace(value) == "" {
		return &RuleError{
			Kind:    KindEmptyField,
			Field:   field,
			Message: fmt.Sprintf("%s is required.", label(field)),
		}
	}
	return nil
}

// RequiredSlice fails unless at least one element is non-empty after trimming.
func RequiredSlice(field string, values []string) *RuleError {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return nil
		}
	}
	return &RuleError{
		Kind:    KindEmptyField,
		Field:   field,
		Message: fmt.Sprintf("%s is required.", label(field)),
	}
}

// Email fails unless the value is a syntactically valid address.
func Email(field, value string) *RuleError {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || !strings.Contains(value, "@") {
		return &RuleError{
			Kind:    KindInvalidEmail,
			Field:   field,
			Message: fmt.Sprintf("%s must be a valid email address.", label(field)),
		}
	}
	return nil
}

// MinLength fails when the trimmed value is shorter than min.
func MinLength(field, value string, min int) *RuleError {
	if len(strings.TrimSpace(value)) < min {
		return &RuleError{
			Kind:    KindLengthViolation,
			Field:   field,
			Message: fmt.Sprintf("%s must be at least %d characters.", label(field), min),
		}
	}
	return nil
}

// MaxLength fails when the trimmed value is longer than max.
func MaxLength(field, value string, max int) *RuleError {
	if len(strings.TrimSpace(value)) > max {
		return &RuleError{
			Kind:    KindLengthViolation,
			Field:   field,
			Message: fmt.Sprintf("%s must be at most %d characters.", label(field), max),
		}
	}
	return nil
}

// FileType fails unless the mime type is in the allowed set.
func FileType(field, mimeType string, allowed map[string]bool) *RuleError {
	if !allowed[strings.ToLower(strings.TrimSpace(mimeType))] {
		return &RuleError{
			Kind:    KindUnsupportedMediaType,
			Field:   field,
			Message: "Only image files (JPEG, PNG, GIF, WebP) are allowed.",
		}
	}
	return nil
}

// FileSize fails when the payload exceeds maxBytes.
func FileSize(field string, sizeBytes, maxBytes int64) *RuleError {
	if sizeBytes > maxBytes {
		return &RuleError{
			Kind:    KindPayloadTooLarge,
			Field:   field,
			Message: fmt.Sprintf("File is too large. Maximum size is %dMB.", maxBytes/(1024*1024)),
		}
	}
	return nil
}

// Numeric fails unless the value parses as a number.
func Numeric(field, value string) *RuleError {
	if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
		return &RuleError{
			Kind:    KindInvalidNumber,
			Field:   field,
			Message: fmt.Sprintf("%s must be a number.", label(field)),
		}
	}
	return nil
}

// Positive fails unless the value parses as a number greater than zero.
func Positive(field, value string) *RuleError {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || n <= 0 {
		return &RuleError{
			Kind:    KindInvalidNumber,
			Field:   field,
			Message: fmt.Sprintf("%s must be a positive number.", label(field)),
		}
	}
	return nil
}

// label turns a form field name into user-facing text: "listing_title"
// becomes "Listing title".
func label(field string) string {
	text := strings.ReplaceAll(field, "_", " ")
	if text == "" {
		return "Field"
	}
	return strings.ToUpper(text[:1]) + text[1:]
}
