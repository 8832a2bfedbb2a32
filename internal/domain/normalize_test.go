package domain

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  hello  ", want: "hello"},
		{name: "lowercase", input: "Hello World", want: "hello world"},
		{name: "internal whitespace preserved", input: "hello   world", want: "hello   world"},
		{name: "diacritics preserved", input: "Café", want: "café"},
		{name: "hyphens preserved", input: "Well-Known", want: "well-known"},
		{name: "apostrophes preserved", input: "Don't", want: "don't"},
		{name: "empty string", input: "", want: ""},
		{name: "only spaces", input: "   ", want: ""},
		{name: "tabs and newlines", input: "\t Bonjour \n", want: "bonjour"},
		{name: "cyrillic", input: "Привет", want: "привет"},
		{name: "greek", input: "ΚΑΛΗΜΕΡΑ", want: "καλημερα"},
		{name: "single word", input: "ABANDON", want: "abandon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Bonjour", "  BONJOUR ", "bonjour", "Serendipity", "a  b", "Ünïcödé Wörds",
		"Привет Мир", "don't STOP", "  (Parentheses) ", "",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
		if got := Normalize(DisplayText(in)); got != once {
			t.Errorf("Normalize(DisplayText(%q)) = %q, want %q", in, got, once)
		}
	}
}

func TestNormalize_CaseAndSpacingVariantsCollapse(t *testing.T) {
	t.Parallel()

	variants := []string{"Bonjour", "bonjour", "BONJOUR", "  bOnJoUr\t"}
	want := Normalize(variants[0])
	for _, v := range variants[1:] {
		if got := Normalize(v); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestDisplayText(t *testing.T) {
	t.Parallel()

	if got := DisplayText("  Hello World \n"); got != "Hello World" {
		t.Errorf("DisplayText() = %q, want %q", got, "Hello World")
	}
}
