package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionFailed means the terminal session could not be opened. Fatal for the run.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrInstrumentUnavailable means the symbol is unknown or could not be made visible.
	ErrInstrumentUnavailable = errors.New("instrument unavailable")

	// ErrQuoteUnavailable means no tick could be fetched.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrPersistFailed means the snapshot could not be written.
	ErrPersistFailed = errors.New("persist failed")

	// ErrUnexpectedFailure covers anything else raised inside the loop. Fatal for the run.
	ErrUnexpectedFailure = errors.New("unexpected failure")

	// errStopped is returned from a cycle that observed a stop request.
	errStopped = errors.New("stopped")
)

// PanicError carries a recovered panic and the stack it was raised on.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap makes PanicError match ErrUnexpectedFailure.
func (e *PanicError) Unwrap() error {
	return ErrUnexpectedFailure
}

// skippable reports whether err only skips the current cycle.
func skippable(err error) bool {
	return errors.Is(err, ErrInstrumentUnavailable) ||
		errors.Is(err, ErrQuoteUnavailable) ||
		errors.Is(err, ErrPersistFailed)
}
