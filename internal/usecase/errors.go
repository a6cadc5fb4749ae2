package usecase

import "fmt"

// Stage identifies where in the pipeline a request failed. The transport
// maps stages onto HTTP statuses; reasons stay machine-readable for
// diagnostics.
type Stage string

const (
	StageValidation Stage = "validation"
	StageUpstream   Stage = "upstream-call"
	StageParsing    Stage = "parsing"
)

// ReasonSpeechStoreFailed marks a parsing-stage failure caused by local I/O
// rather than the inbound payload; the transport reports it as a server
// fault instead of a client one.
const ReasonSpeechStoreFailed = "speech_store_failed"

type Error struct {
	Stage  Stage
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Stage, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Stage, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(stage Stage, reason string, err error) *Error {
	return &Error{Stage: stage, Reason: reason, Err: err}
}
