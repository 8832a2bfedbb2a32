package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTextLength is the default limit on submission length, in characters.
const MaxTextLength = 200

const allowedPunctuation = "-'.,!?;:()"

// ValidateText checks a raw submission before it is normalized.
// maxLen <= 0 falls back to MaxTextLength.
func ValidateText(text string, maxLen int) error {
	if maxLen <= 0 {
		maxLen = MaxTextLength
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return NewValidationError("word", "required")
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return NewValidationError("word", fmt.Sprintf("max %d characters", maxLen))
	}
	for _, r := range trimmed {
		if !isAllowedRune(r) {
			return NewValidationError("word", "contains unsupported characters")
		}
	}
	return nil
}

func isAllowedRune(r rune) bool {
	switch {
	case unicode.IsLetter(r), unicode.Is(unicode.M, r), unicode.IsDigit(r), unicode.IsSpace(r):
		return true
	}
	return strings.ContainsRune(allowedPunctuation, r)
}
