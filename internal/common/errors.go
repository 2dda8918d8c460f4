package common

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. The orchestrator maps each kind to one
// envelope shape; nothing else inspects error text.
type Kind string

const (
	KindPrecondition Kind = "precondition" // missing input file, missing config
	KindExtraction   Kind = "extraction"   // service failure, empty-after-retry, malformed payload
	KindValidation   Kind = "validation"   // fatal validation precondition (absent fields)
	KindExport       Kind = "export"       // destination write failure
	KindInternal     Kind = "internal"     // anything uncategorized
)

// AppError represents application-specific errors.
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError builds an AppError of the given kind.
func NewAppError(kind Kind, message string, cause error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// KindOf returns the Kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// WrapError annotates err with a message, preserving the chain.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
