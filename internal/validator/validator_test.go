package validator

import (
	"strings"
	"testing"
)

const (
	englishSentence = "This is a longer piece of text that should be detected as English."
	frenchSentence  = "Ceci est un texte assez long qui devrait être reconnu comme du français."
	germanSentence  = "Dies ist ein ziemlich langer Text, der als Deutsch erkannt werden sollte."
)

func TestIsValid(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		text    string
		target  string
		valid   bool
		wantErr bool
	}{
		{"empty target passes", "Some translated text", "", true, false},
		{"empty translation", "", "en", false, true},
		{"whitespace translation", "   ", "French", false, true},
		{"short text passes", "Hi", "en", true, false},
		{"unknown target passes", englishSentence, "Klingon", true, false},
		{"iso code match", englishSentence, "en", true, false},
		{"english name match", frenchSentence, "French", true, false},
		{"name is case-insensitive", germanSentence, "german", true, false},
		{"russian name match", frenchSentence, "Французский", true, false},
		{"iso code mismatch", englishSentence, "uk", false, true},
		{"name mismatch", germanSentence, "French", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, err := v.IsValid(tt.text, tt.target)
			if valid != tt.valid {
				t.Errorf("IsValid(%q, %q) valid = %v, want %v", tt.text, tt.target, valid, tt.valid)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("IsValid(%q, %q) err = %v, wantErr %v", tt.text, tt.target, err, tt.wantErr)
			}
		})
	}
}

func TestIsValid_MismatchErrorNamesLanguages(t *testing.T) {
	v := New()

	_, err := v.IsValid(germanSentence, "French")
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "French") || !strings.Contains(msg, "German") {
		t.Errorf("error %q should name both languages", msg)
	}
}
