package command

import (
	"errors"
	"fmt"
)

// Kind classifies why a command failed.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindValidation    Kind = "validation"
	KindPrecondition  Kind = "precondition"
	KindExecution     Kind = "execution"
)

var (
	// ErrCommandNotFound is returned by Run for unregistered names. It is never silenced.
	ErrCommandNotFound = errors.New("command not found")

	ErrAuthorization = errors.New("command not authorized")
	ErrValidation    = errors.New("invalid command arguments")
	ErrPrecondition  = errors.New("command cannot execute")
	ErrExecution     = errors.New("command execution failed")
)

var kindSentinels = map[Kind]error{
	KindAuthorization: ErrAuthorization,
	KindValidation:    ErrValidation,
	KindPrecondition:  ErrPrecondition,
	KindExecution:     ErrExecution,
}

// Error is a classified command failure.
// errors.Is matches both the kind sentinel (ErrValidation, ...) and the cause.
type Error struct {
	Kind    Kind
	Command string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failed", e.Command, e.Kind)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Command, e.Kind, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf returns the kind of a classified error, or "" for anything else.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

func newError(kind Kind, name string, err error) *Error {
	return &Error{Kind: kind, Command: name, Err: err}
}
