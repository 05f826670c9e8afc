package models

import "errors"

// FailureKind classifies why an operation did not complete
type FailureKind string

const (
	FailureValidation  FailureKind = "validation"
	FailureTransport   FailureKind = "transport"
	FailureProtocol    FailureKind = "protocol"
	FailurePersistence FailureKind = "persistence"
	FailureLenient     FailureKind = "lenient"
)

// User-facing failure messages
const (
	MsgNoSectors        = "Please select at least one sector to analyze."
	MsgNetworkError     = "Network error. Please check your connection and try again."
	MsgUnexpectedFormat = "Agent returned unexpected data format. Please try again."
	MsgAnalysisFailed   = "Analysis failed. Please try again."
)

// Failure carries a user-facing message alongside the underlying cause
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return string(f.Kind) + ": " + f.Message + ": " + f.Err.Error()
	}
	return string(f.Kind) + ": " + f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewValidationFailure reports an empty sector selection
func NewValidationFailure() *Failure {
	return &Failure{Kind: FailureValidation, Message: MsgNoSectors}
}

// NewTransportFailure wraps a network error
func NewTransportFailure(err error) *Failure {
	return &Failure{Kind: FailureTransport, Message: MsgNetworkError, Err: err}
}

// NewFormatFailure reports a successful call whose payload lacked required structure
func NewFormatFailure(err error) *Failure {
	return &Failure{Kind: FailureProtocol, Message: MsgUnexpectedFormat, Err: err}
}

// NewAgentFailure reports a non-success agent status, preferring the agent's own message
func NewAgentFailure(agentMessage string) *Failure {
	msg := agentMessage
	if msg == "" {
		msg = MsgAnalysisFailed
	}
	return &Failure{Kind: FailureProtocol, Message: msg}
}

// NewPersistenceFailure wraps a durable read or write error. These are logged
// and never shown to the user.
func NewPersistenceFailure(op string, err error) *Failure {
	return &Failure{Kind: FailurePersistence, Message: "history " + op + " failed", Err: err}
}

// NewLenientFailure wraps an alert delivery problem that is ignored
func NewLenientFailure(msg string, err error) *Failure {
	return &Failure{Kind: FailureLenient, Message: msg, Err: err}
}

// AsFailure extracts a Failure from an error chain
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// UserMessage returns the message to show for err
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if f, ok := AsFailure(err); ok {
		return f.Message
	}
	return MsgAnalysisFailed
}
