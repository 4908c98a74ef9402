// Package validator checks that a translation is written in the language the
// user asked for.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/transcritic/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

// Validator is expensive to build (language models); build it once and share it.
type Validator struct {
	det *detector.Detector
}

func New() *Validator {
	return &Validator{det: detector.New()}
}

// IsValid reports whether translatedText appears to be written in
// targetLanguage, which may be a language name or an ISO 639-1 code.
//
// Unknown target names, short texts and ambiguous detections pass. A mismatch
// returns false with an error naming both languages.
func (v *Validator) IsValid(translatedText, targetLanguage string) (bool, error) {
	if targetLanguage == "" {
		return true, nil
	}

	text := strings.TrimSpace(translatedText)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	want, ok := detector.Resolve(targetLanguage)
	if !ok {
		return true, nil
	}

	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	got, ok := v.det.Detect(text)
	if !ok {
		return true, nil
	}

	if got != want {
		return false, fmt.Errorf("expected %s but detected %s", want, got)
	}

	return true, nil
}
