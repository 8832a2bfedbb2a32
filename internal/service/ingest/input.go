package ingest

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/wordqueue/internal/domain"
)

// SubmitInput holds one submission as received from a client.
type SubmitInput struct {
	Word     string
	Tags     []string
	Deck     string
	NoteType string
	Language string
}

// submission is a validated SubmitInput with defaults applied.
type submission struct {
	raw      string
	display  string
	key      string
	bucket   string
	kind     string
	language string
	tags     []string
}

// prepare validates the input and applies defaults. All field errors are
// collected into one *domain.ValidationError.
func (s *Service) prepare(in SubmitInput) (submission, error) {
	var errs []domain.FieldError

	if err := domain.ValidateText(in.Word, s.cfg.MaxWordLength); err != nil {
		errs = append(errs, fieldErrors(err)...)
	}

	lang := s.cfg.DefaultLanguage
	if strings.TrimSpace(in.Language) != "" {
		parsed, err := domain.ParseLanguage(in.Language)
		if err != nil {
			errs = append(errs, fieldErrors(err)...)
		}
		lang = parsed
	}

	errs = append(errs, domain.ValidateTags(in.Tags)...)

	bucket := orDefault(in.Deck, s.cfg.DefaultDeck)
	if utf8.RuneCountInString(bucket) > maxNameLen {
		errs = append(errs, domain.FieldError{Field: "deck", Message: fmt.Sprintf("max %d characters", maxNameLen)})
	}
	kind := orDefault(in.NoteType, s.cfg.DefaultNoteType)
	if utf8.RuneCountInString(kind) > maxNameLen {
		errs = append(errs, domain.FieldError{Field: "note_type", Message: fmt.Sprintf("max %d characters", maxNameLen)})
	}

	if len(errs) > 0 {
		return submission{}, domain.NewValidationErrors(errs)
	}

	return submission{
		raw:      in.Word,
		display:  domain.DisplayText(in.Word),
		key:      domain.Normalize(in.Word),
		bucket:   bucket,
		kind:     kind,
		language: lang,
		tags:     domain.BuildTags(lang, in.Tags),
	}, nil
}

func fieldErrors(err error) []domain.FieldError {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	return []domain.FieldError{{Field: "input", Message: err.Error()}}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
