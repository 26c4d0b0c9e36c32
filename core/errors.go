package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// CollaboratorError wraps a failure from an external collaborator
// (persistence provider, template store). It is fatal to the current
// report; retries, if any, belong to the calling layer.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func NewCollaboratorError(collaborator string, err error) error {
	return &CollaboratorError{Collaborator: collaborator, Err: err}
}

func (err CollaboratorError) Error() string {
	return err.Collaborator + ": " + err.Err.Error()
}

func (err CollaboratorError) Unwrap() error { return err.Err }

func IsCollaboratorError(err error) bool {
	var cErr *CollaboratorError
	return errors.As(err, &cErr)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
