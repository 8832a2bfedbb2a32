package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize returns the canonical comparison key for a submission:
// surrounding whitespace is trimmed and the text is lowercased with the
// language-independent Unicode mapping.
//
// Internal whitespace is kept as-is, so "a  b" and "a b" are different keys.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	// A Caser is stateful; build one per call so Normalize stays safe for
	// concurrent requests.
	return cases.Lower(language.Und).String(text)
}

// DisplayText is the form of the submission shown to the user and written
// to the card front.
func DisplayText(text string) string {
	return strings.TrimSpace(text)
}
