package orchestrator

import "github.com/valpere/transcritic/internal"

// State is a step of one pipeline run:
//
//	Idle -> Rejected
//	Idle -> Translating -> TranslationFailed
//	Idle -> Translating -> Evaluating -> Done
//
// Rejected, TranslationFailed and Done are terminal.
type State string

const (
	StateIdle              State = "idle"
	StateRejected          State = "rejected"
	StateTranslating       State = "translating"
	StateTranslationFailed State = internal.RunTranslationFailed
	StateEvaluating        State = "evaluating"
	StateDone              State = internal.RunDone
)

func (s State) String() string {
	return string(s)
}

func (s State) Terminal() bool {
	return s == StateRejected || s == StateTranslationFailed || s == StateDone
}
