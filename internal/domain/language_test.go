package domain

import (
	"errors"
	"testing"
)

func TestParseLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "en"},
		{in: "fr", want: "fr"},
		{in: "FR", want: "fr"},
		{in: "pt-br", want: "pt-BR"},
		{in: "pt_BR", want: "pt-BR"},
		{in: " de ", want: "de"},
		{in: "english", wantErr: true},
		{in: "e", wantErr: true},
		{in: "fr-FRA", wantErr: true},
		{in: "12", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLanguage(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseLanguage(%q): expected validation error, got %v", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLanguage(%q): unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLanguage(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLanguageName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"en":    "English",
		"fr":    "French",
		"pt-BR": "Brazilian Portuguese",
		"de-AT": "German",
		"xx":    "XX",
		"qq-ZZ": "QQ-ZZ",
	}
	for in, want := range tests {
		if got := LanguageName(in); got != want {
			t.Errorf("LanguageName(%q) = %q, want %q", in, got, want)
		}
	}
}
