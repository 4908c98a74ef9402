package internal

import "time"

// Terminal states a recorded run can end in.
const (
	RunDone              = "done"
	RunTranslationFailed = "translation_failed"
)

// Run is the persisted record of one finished pipeline invocation.
type Run struct {
	ID               string    `json:"id"`
	OriginalText     string    `json:"original_text"`
	TargetLanguage   string    `json:"target_language"`
	TranslatedText   string    `json:"translated_text"`
	EvaluationRaw    string    `json:"evaluation_raw"`
	EvaluationFailed bool      `json:"evaluation_failed"`
	State            string    `json:"state"`
	Error            string    `json:"error,omitempty"`
	LanguageMismatch bool      `json:"language_mismatch"`
	Timestamp        time.Time `json:"timestamp"`
}
