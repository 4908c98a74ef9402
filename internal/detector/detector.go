// Package detector identifies the language of a piece of text and resolves
// user-supplied language names ("French", "fr", "Французский") to languages.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// nativeNames accepts the Russian names of the languages offered in the web form.
var nativeNames = map[string]lingua.Language{
	"английский":  lingua.English,
	"французский": lingua.French,
	"немецкий":    lingua.German,
	"испанский":   lingua.Spanish,
	"итальянский": lingua.Italian,
	"русский":     lingua.Russian,
	"украинский":  lingua.Ukrainian,
	"китайский":   lingua.Chinese,
	"японский":    lingua.Japanese,
}

type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// Resolve maps an English name, an ISO 639-1 code or a Russian name to a
// language. Matching is case-insensitive.
func Resolve(name string) (lingua.Language, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return lingua.Unknown, false
	}
	if lang, ok := nativeNames[strings.ToLower(name)]; ok {
		return lang, true
	}
	for _, lang := range lingua.AllLanguages() {
		if strings.EqualFold(lang.String(), name) || strings.EqualFold(lang.IsoCode639_1().String(), name) {
			return lang, true
		}
	}
	return lingua.Unknown, false
}
