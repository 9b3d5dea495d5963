package types

import (
	"errors"
	"fmt"
)

// TransientIOError wraps a remote call that failed or timed out. Transient
// failures are retried with bounded backoff before surfacing as a
// retryable-failure outcome.
type TransientIOError struct {
	Op  string
	Err error
}

func (e *TransientIOError) Error() string {
	return fmt.Sprintf("transient I/O error during %s: %v", e.Op, e.Err)
}

func (e *TransientIOError) Unwrap() error { return e.Err }

// ConfigValidationError reports declared options that are invalid. Not
// retried: the status stays blocked until the options change.
type ConfigValidationError struct {
	Field  string
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid option %q: %s", e.Field, e.Reason)
}

// ApplyError reports a mutation rejected by the remote system. Retried only
// on the next triggering event, never in a tight loop.
type ApplyError struct {
	Mutation MutationKind
	Err      error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("mutation %s rejected: %v", e.Mutation, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// NotReadyError names an unmet precondition the controller is waiting on
// (for example storage attachment). The platform re-invokes the controller
// when the precondition can change.
type NotReadyError struct {
	Reason string
}

func (e *NotReadyError) Error() string { return e.Reason }

// IsTransient reports whether err is, or wraps, a TransientIOError
func IsTransient(err error) bool {
	var t *TransientIOError
	return errors.As(err, &t)
}

// IsNotReady reports whether err is, or wraps, a NotReadyError
func IsNotReady(err error) bool {
	var n *NotReadyError
	return errors.As(err, &n)
}

// IsValidation reports whether err is, or wraps, a ConfigValidationError
func IsValidation(err error) bool {
	var v *ConfigValidationError
	return errors.As(err, &v)
}
