package provider

import (
	"context"
	"errors"
)

// ErrUnavailable is returned after the client has exhausted its single retry.
// Callers decide whether to fall back (intent analysis) or abort (synthesis).
var ErrUnavailable = errors.New("provider unavailable")

// Request is a structured text-generation request. System frames the task,
// User carries the instructions for the content to produce.
type Request struct {
	System    string
	User      string
	MaxTokens int
}

// TextGenerator is the external generation capability. Implementations must
// apply their own transport timeouts and return ErrUnavailable (possibly
// wrapped) for transient failures so the pipeline never sees raw transport
// errors.
type TextGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Configured() bool
}
