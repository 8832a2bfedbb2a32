package domain

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

var languageCodeRe = regexp.MustCompile(`^[A-Za-z]{2}([-_][A-Za-z]{2})?$`)

var languageNames = map[string]string{
	"ar":    "Arabic",
	"cs":    "Czech",
	"da":    "Danish",
	"de":    "German",
	"el":    "Greek",
	"en":    "English",
	"en-GB": "British English",
	"en-US": "American English",
	"es":    "Spanish",
	"fi":    "Finnish",
	"fr":    "French",
	"he":    "Hebrew",
	"hi":    "Hindi",
	"hu":    "Hungarian",
	"it":    "Italian",
	"ja":    "Japanese",
	"ko":    "Korean",
	"nl":    "Dutch",
	"no":    "Norwegian",
	"pl":    "Polish",
	"pt":    "Portuguese",
	"pt-BR": "Brazilian Portuguese",
	"ro":    "Romanian",
	"ru":    "Russian",
	"sv":    "Swedish",
	"th":    "Thai",
	"tr":    "Turkish",
	"uk":    "Ukrainian",
	"vi":    "Vietnamese",
	"zh":    "Chinese",
}

// ParseLanguage validates an ISO 639-1 code with an optional region suffix
// and returns its canonical BCP 47 form ("pt_br" -> "pt-BR").
// An empty code yields DefaultLanguage.
func ParseLanguage(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultLanguage, nil
	}
	if !languageCodeRe.MatchString(code) {
		return "", NewValidationError("language", "must be an ISO 639-1 code, optionally with a region (e.g. fr, pt-BR)")
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return "", NewValidationError("language", "unknown language code")
	}
	return tag.String(), nil
}

// LanguageName returns a human-readable name for code. Codes missing from
// the table fall back to their base language, then to the uppercased code.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	base, _, _ := strings.Cut(code, "-")
	if name, ok := languageNames[strings.ToLower(base)]; ok {
		return name
	}
	return strings.ToUpper(code)
}
