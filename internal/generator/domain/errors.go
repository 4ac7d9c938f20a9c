package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid generation request")
	ErrSynthesis           = errors.New("synthesis failed to produce mandatory content")
	ErrValidation          = errors.New("generated project failed validation")
	ErrArtifactNotFound    = errors.New("artifact not found")
	ErrArtifactExpired     = errors.New("artifact has expired")
	ErrProviderUnavailable = errors.New("text generation provider unavailable")
)

// ValidationError carries the blocking findings when a project cannot be
// repaired. It unwraps to ErrValidation.
type ValidationError struct {
	Findings []Finding
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %d fatal finding(s)", ErrValidation, len(e.Findings))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
