// Package failure defines the error taxonomy shared by the pagecheck packages.
// Every error carries a Kind so the CLI and the executor can decide whether a
// problem aborts the whole suite or only fails a single check.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// AssertionFailed means one check's expectation did not hold. The suite continues.
	AssertionFailed Kind = iota + 1
	// FixtureUnavailable means the document under test could not be loaded. The suite aborts.
	FixtureUnavailable
	// ExternalValidatorFailure means a delegated validator errored instead of returning violations.
	ExternalValidatorFailure
	// ConfigInvalid covers malformed profiles and run settings.
	ConfigInvalid
	// Timeout means the suite deadline passed before the check could finish.
	Timeout
)

func (k Kind) String() string {
	switch k {
	case AssertionFailed:
		return "AssertionFailed"
	case FixtureUnavailable:
		return "FixtureUnavailable"
	case ExternalValidatorFailure:
		return "ExternalValidatorFailure"
	case ConfigInvalid:
		return "ConfigInvalid"
	case Timeout:
		return "Timeout"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Reason refines FixtureUnavailable.
type Reason string

const (
	NotFound    Reason = "NotFound"
	NotReadable Reason = "NotReadable"
)

// Error is the base error type for pagecheck.
type Error struct {
	Kind       Kind
	Reason     Reason
	Check      string
	Message    string
	Suggestion string
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Check != "" {
		msg = fmt.Sprintf("[%s] %s", e.Check, msg)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Reason)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s\nSuggestion: %s", msg, e.Suggestion)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewFixtureError reports a fixture that is missing or cannot be read.
func NewFixtureError(path string, reason Reason, cause error) *Error {
	suggestion := "check the fixture path in the profile or on the command line"
	if reason == NotReadable {
		suggestion = "check file permissions and that the path is a UTF-8 encoded regular file"
	}
	return &Error{
		Kind:       FixtureUnavailable,
		Reason:     reason,
		Message:    fmt.Sprintf("fixture %s not available", path),
		Suggestion: suggestion,
		Cause:      cause,
	}
}

// NewValidatorError reports a delegated validator that failed to produce a result.
func NewValidatorError(validator string, cause error) *Error {
	return &Error{
		Kind:    ExternalValidatorFailure,
		Message: fmt.Sprintf("validator %s failed", validator),
		Cause:   cause,
	}
}

// NewConfigError reports an invalid profile or run setting.
func NewConfigError(format string, args ...any) *Error {
	return &Error{
		Kind:    ConfigInvalid,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
