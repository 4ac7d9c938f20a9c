package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("trims and defaults target to render", func(t *testing.T) {
		req, err := Normalize("  weather MCP with SMS alerts  ", Options{})
		require.NoError(t, err)
		assert.Equal(t, "weather MCP with SMS alerts", req.Prompt)
		assert.Equal(t, domain.TargetRender, req.DeploymentTarget)
		assert.False(t, req.IncludeDatabase)
	})

	t.Run("strips control characters", func(t *testing.T) {
		req, err := Normalize("crypto\x00 tracker\nwith alerts\x1b", Options{})
		require.NoError(t, err)
		assert.Equal(t, "crypto tracker with alerts", req.Prompt)
	})

	t.Run("rejects empty prompt", func(t *testing.T) {
		_, err := Normalize("   \n\t ", Options{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("rejects oversized prompt", func(t *testing.T) {
		_, err := Normalize(strings.Repeat("a", MaxPromptLen+1), Options{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("accepts boundary length", func(t *testing.T) {
		_, err := Normalize(strings.Repeat("a", MaxPromptLen), Options{})
		require.NoError(t, err)
	})

	t.Run("validates deployment target enum", func(t *testing.T) {
		for _, target := range []string{"render", "vercel", "custom", "VERCEL"} {
			_, err := Normalize("task manager", Options{DeploymentTarget: target})
			assert.NoError(t, err, target)
		}

		_, err := Normalize("task manager", Options{DeploymentTarget: "heroku"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("is deterministic", func(t *testing.T) {
		a, err := Normalize("flight search\twith price comparison", Options{IncludeDatabase: true})
		require.NoError(t, err)
		b, err := Normalize("flight search\twith price comparison", Options{IncludeDatabase: true})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}
