package generation

import "fmt"

// ErrorKind classifies why a call to the generation service did not succeed.
type ErrorKind int

const (
	MissingCredential ErrorKind = iota + 1
	ConnectionFailure
	Timeout
	HTTPStatus
	ResponseParseFailure
)

func (k ErrorKind) String() string {
	switch k {
	case MissingCredential:
		return "missing_credential"
	case ConnectionFailure:
		return "connection_failure"
	case Timeout:
		return "timeout"
	case HTTPStatus:
		return "http_status"
	case ResponseParseFailure:
		return "response_parse_failure"
	default:
		return fmt.Sprintf("error_kind(%d)", int(k))
	}
}

// Failure describes a failed call. StatusCode is set only for HTTPStatus.
type Failure struct {
	Kind       ErrorKind
	StatusCode int
}

func (f *Failure) Error() string {
	if f.Kind == HTTPStatus {
		return fmt.Sprintf("generation service returned status %d", f.StatusCode)
	}
	return "generation call failed: " + f.Kind.String()
}

// Outcome is the result of one Invoke: either a success carrying text (which
// may be empty) or a Failure, never both.
type Outcome struct {
	text    string
	failure *Failure
}

func Succeeded(text string) Outcome {
	return Outcome{text: text}
}

func Failed(kind ErrorKind, statusCode int) Outcome {
	return Outcome{failure: &Failure{Kind: kind, StatusCode: statusCode}}
}

func (o Outcome) OK() bool {
	return o.failure == nil
}

// Text returns the generated text. It is empty for failed outcomes.
func (o Outcome) Text() string {
	return o.text
}

// Failure returns nil for successful outcomes.
func (o Outcome) Failure() *Failure {
	return o.failure
}
