package domain

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Fixed tags carried by every queued card.
const (
	TagDomain    = "dom_words"
	TagPermanent = "time_permanent"
	TagType      = "type_definition"
)

// MaxTagLength bounds a single caller-supplied tag.
const MaxTagLength = 64

// LanguageTag returns the tag that marks a card's language, e.g. "lang_fr"
// or "lang_pt_br".
func LanguageTag(lang string) string {
	return "lang_" + strings.ToLower(strings.ReplaceAll(lang, "-", "_"))
}

// RequiredTags returns the tags every entry in lang must carry.
func RequiredTags(lang string) []string {
	return []string{TagDomain, LanguageTag(lang), TagPermanent, TagType}
}

// BuildTags merges the required set with caller extras. The result is
// sorted and free of duplicates so it compares equal regardless of the
// order the caller used.
func BuildTags(lang string, extras []string) []string {
	tags := RequiredTags(lang)
	for _, t := range extras {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	slices.Sort(tags)
	return slices.Compact(tags)
}

// ValidateTags checks caller-supplied tags. Anki separates tags by spaces,
// so a tag may not contain whitespace.
func ValidateTags(tags []string) []FieldError {
	var errs []FieldError
	for i, t := range tags {
		t = strings.TrimSpace(t)
		field := fmt.Sprintf("tags[%d]", i)
		switch {
		case t == "":
			errs = append(errs, FieldError{Field: field, Message: "must not be empty"})
		case strings.IndexFunc(t, unicode.IsSpace) >= 0:
			errs = append(errs, FieldError{Field: field, Message: "must not contain whitespace"})
		case utf8.RuneCountInString(t) > MaxTagLength:
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("max %d characters", MaxTagLength)})
		}
	}
	return errs
}
