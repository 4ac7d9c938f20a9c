package prompt

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
)

// MaxPromptLen bounds prompts before they reach the provider.
const MaxPromptLen = 2000

// Options are the caller-declared generation options accompanying a prompt.
type Options struct {
	IncludeDatabase  bool
	DeploymentTarget string
}

// Normalize cleans a raw prompt and its options into an accepted GenerationRequest.
// Deterministic, no side effects.
func Normalize(raw string, opts Options) (domain.GenerationRequest, error) {
	cleaned := strings.TrimSpace(stripControl(raw))

	if cleaned == "" {
		return domain.GenerationRequest{}, fmt.Errorf("%w: prompt is empty", domain.ErrInvalidInput)
	}
	if len(cleaned) > MaxPromptLen {
		return domain.GenerationRequest{}, fmt.Errorf("%w: prompt exceeds %d characters", domain.ErrInvalidInput, MaxPromptLen)
	}

	target, err := parseTarget(opts.DeploymentTarget)
	if err != nil {
		return domain.GenerationRequest{}, err
	}

	return domain.GenerationRequest{
		Prompt:           cleaned,
		IncludeDatabase:  opts.IncludeDatabase,
		DeploymentTarget: target,
	}, nil
}

// stripControl removes control characters; newlines and tabs collapse to spaces.
func stripControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteRune(' ')
		case unicode.IsControl(r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parseTarget(s string) (domain.DeploymentTarget, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(domain.TargetRender):
		return domain.TargetRender, nil
	case string(domain.TargetVercel):
		return domain.TargetVercel, nil
	case string(domain.TargetCustom):
		return domain.TargetCustom, nil
	default:
		return "", fmt.Errorf("%w: unknown deployment target %q", domain.ErrInvalidInput, s)
	}
}
