// Package prompt renders the instructions sent to the generation service.
//
// Both builders are pure: the same arguments always yield the same string,
// and the user's text is embedded exactly as given.
package prompt

import "fmt"

const translationTemplate = `Translate the following text into %s.
Respond only with the translation, without any commentary.

Text: %s`

const evaluationTemplate = `Rate the quality of this translation on a scale from 1 to 10.

Original: %s

Translation: %s

Target language: %s

Give the score and a short justification.`

// Translation builds the prompt asking the model to translate text into language.
func Translation(text, language string) string {
	return fmt.Sprintf(translationTemplate, language, text)
}

// Evaluation builds the prompt asking the model to score translated against original.
func Evaluation(original, translated, language string) string {
	return fmt.Sprintf(evaluationTemplate, original, translated, language)
}
