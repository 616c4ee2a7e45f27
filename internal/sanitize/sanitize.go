// Package sanitize cleans raw form input before validation. Every function is
// pure and idempotent: sanitizing already-clean input returns it unchanged.
package sanitize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	spaceRe      = regexp.MustCompile(`[ \t]+`)
	priceRe      = regexp.MustCompile(`[^0-9.,]`)
	emailBadRe   = regexp.MustCompile(`[^a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~@\-]`)
	scriptRe     = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	eventAttrRe  = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	disallowedRe = regexp.MustCompile(`(?i)</?(?:iframe|object|embed|form|input|link|meta)[^>]*>`)
)

// Text strips tags and control characters, collapses runs of spaces and tabs,
// and trims the result. Line breaks are not preserved.
func Text(value string) string {
	clean := tagRe.ReplaceAllString(value, "")
	clean = stripControl(clean, false)
	clean = spaceRe.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

// HTML keeps basic formatting markup but removes script/style blocks, inline
// event handlers, and embedding elements. Used for rich-text descriptions.
func HTML(value string) string {
	clean := scriptRe.ReplaceAllString(value, "")
	clean = disallowedRe.ReplaceAllString(clean, "")
	clean = eventAttrRe.ReplaceAllString(clean, "")
	clean = stripControl(clean, true)
	return strings.TrimSpace(clean)
}

// Email lowercases, trims, and drops characters that cannot appear in an
// address. Syntax checking belongs to the validate package.
func Email(value string) string {
	clean := strings.TrimSpace(strings.ToLower(value))
	return emailBadRe.ReplaceAllString(clean, "")
}

// Int parses a non-negative integer, returning 0 for garbage or negatives.
func Int(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Price keeps digits, commas, and dots so "USD 1,250,000.00" becomes
// "1,250,000.00". The value stays a display string; it is never coerced to a
// number.
func Price(value string) string {
	return priceRe.ReplaceAllString(value, "")
}

// FileName strips path separators and control characters from an uploaded
// file's client-supplied name.
func FileName(value string) string {
	clean := strings.ReplaceAll(value, "\\", "/")
	if i := strings.LastIndex(clean, "/"); i >= 0 {
		clean = clean[i+1:]
	}
	return strings.TrimSpace(stripControl(clean, false))
}

// TextSlice applies Text to every element, dropping entries that clean to
// empty.
func TextSlice(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if clean := Text(v); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func stripControl(s string, keepNewlines bool) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			if keepNewlines {
				return r
			}
			return ' '
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
