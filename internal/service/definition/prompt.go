package definition

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/heartmarshall/wordqueue/internal/domain"
)

const systemPrompt = "You write entries for a learner's vocabulary flashcards. " +
	"Reply with the definition text only: no headings, no quotes, no markdown, no examples."

const wordTemplate = `Define the %[1]s word "%[2]s" in %[1]s.
Give its most common meaning in one or two short sentences a learner can understand.
If it has an important second meaning, add it after a semicolon.`

const phraseTemplate = `Explain the meaning of the %[1]s phrase "%[2]s" in %[1]s.
Describe what it means as a whole and when it is used, in one or two short sentences.`

type prompt struct {
	system string
	user   string
}

// buildPrompt picks the phrase template when the trimmed text contains
// whitespace and the single-word template otherwise.
func buildPrompt(text, languageCode string) prompt {
	display := domain.DisplayText(text)
	lang := domain.LanguageName(languageCode)

	tmpl := wordTemplate
	if isPhrase(display) {
		tmpl = phraseTemplate
	}
	return prompt{
		system: systemPrompt,
		user:   fmt.Sprintf(tmpl, lang, display),
	}
}

func isPhrase(text string) bool {
	return strings.ContainsFunc(text, unicode.IsSpace)
}
