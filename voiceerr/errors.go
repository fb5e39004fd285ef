// Package voiceerr defines the error taxonomy shared by the voice pipeline.
//
// Every failure surfaced to callers wraps one of the sentinel kinds so it can
// be matched with errors.Is regardless of which package produced it:
//
//	if errors.Is(err, voiceerr.ErrModelNotFound) { ... }
package voiceerr

import (
	"errors"
	"fmt"
)

// Sentinel error kinds.
var (
	// ErrInput is returned for unreadable or empty audio, including buffers
	// that are entirely silent after trimming.
	ErrInput = errors.New("invalid input audio")

	// ErrModelNotFound is returned when no voice model exists for an id.
	ErrModelNotFound = errors.New("voice model not found")

	// ErrBackendUnavailable is returned when an embedding or synthesis
	// backend failed, was cancelled or timed out. Callers may retry.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrPersistence is returned for I/O failures while writing a model.
	// The previously stored model stays intact.
	ErrPersistence = errors.New("persistence failure")

	// ErrValidation is returned for dimension mismatches and out-of-range
	// parameters. The model is left unchanged.
	ErrValidation = errors.New("validation failed")
)

// Error carries the operation and model id alongside the kind and cause.
type Error struct {
	Kind error  // one of the sentinels above
	Op   string // e.g. "store.save"
	ID   string // model id, if any
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Op
	if e.ID != "" {
		msg += " " + e.ID
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New builds an *Error.
func New(kind error, op, id string, cause error) *Error {
	return &Error{Kind: kind, Op: op, ID: id, Err: cause}
}

// Newf builds an *Error whose cause is a formatted message.
func Newf(kind error, op, id, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, ID: id, Err: fmt.Errorf(format, args...)}
}

// Retryable reports whether the caller may retry the failed operation.
func Retryable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

// KindOf returns the sentinel kind wrapped by err, or nil.
func KindOf(err error) error {
	for _, kind := range []error{ErrInput, ErrModelNotFound, ErrBackendUnavailable, ErrPersistence, ErrValidation} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
