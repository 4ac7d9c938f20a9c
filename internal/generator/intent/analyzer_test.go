package intent

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
	"github.com/mcp-forge/forge-backend/internal/provider"
	"github.com/stretchr/testify/assert"
)

// fakeGenerator lets tests force provider behavior.
type fakeGenerator struct {
	response   string
	err        error
	configured bool
	calls      int
}

func (f *fakeGenerator) Generate(_ context.Context, _ provider.Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeGenerator) Configured() bool { return f.configured }

func req(prompt string) domain.GenerationRequest {
	return domain.GenerationRequest{Prompt: prompt, DeploymentTarget: domain.TargetRender}
}

func TestAnalyzer_ProviderPath(t *testing.T) {
	t.Run("uses provider classification when parseable", func(t *testing.T) {
		gen := &fakeGenerator{
			configured: true,
			response: `{"domain":"weather","integrations":["openweathermap","twilio"],
				"tool_names":["validate","get_forecast"],"requires_scheduling":true}`,
		}
		a := NewAnalyzer(gen)

		it := a.Analyze(context.Background(), req("Weather forecasting MCP with SMS alerts"))
		assert.Equal(t, "weather", it.Domain)
		assert.Equal(t, domain.ConfidenceDerived, it.Confidence)
		assert.Contains(t, it.Integrations, "twilio")
		assert.Contains(t, it.ToolNames, "get_forecast")
		assert.True(t, it.RequiresScheduling)
	})

	t.Run("tolerates prose around the JSON", func(t *testing.T) {
		gen := &fakeGenerator{
			configured: true,
			response:   "Here is the classification:\n```json\n{\"domain\":\"crypto\"}\n```",
		}
		a := NewAnalyzer(gen)

		it := a.Analyze(context.Background(), req("crypto portfolio tracker"))
		assert.Equal(t, "crypto", it.Domain)
		assert.Equal(t, domain.ConfidenceDerived, it.Confidence)
	})
}

func TestAnalyzer_HeuristicFallback(t *testing.T) {
	t.Run("provider failure yields non-empty heuristic intent", func(t *testing.T) {
		gen := &fakeGenerator{configured: true, err: errors.New("boom")}
		a := NewAnalyzer(gen)

		it := a.Analyze(context.Background(), req("Weather forecasting MCP with SMS alerts"))
		assert.Equal(t, "weather", it.Domain)
		assert.Equal(t, domain.ConfidenceHeuristic, it.Confidence)
		assert.NotEmpty(t, it.Integrations)
		assert.NotEmpty(t, it.ToolNames)
		assert.Equal(t, 1, gen.calls)
	})

	t.Run("unparseable response falls back", func(t *testing.T) {
		gen := &fakeGenerator{configured: true, response: "I cannot classify that."}
		a := NewAnalyzer(gen)

		it := a.Analyze(context.Background(), req("flight search with price comparison"))
		assert.Equal(t, "flight", it.Domain)
		assert.Equal(t, domain.ConfidenceHeuristic, it.Confidence)
	})

	t.Run("unconfigured provider skips the call entirely", func(t *testing.T) {
		gen := &fakeGenerator{configured: false}
		a := NewAnalyzer(gen)

		it := a.Analyze(context.Background(), req("crypto portfolio tracker"))
		assert.Equal(t, "crypto", it.Domain)
		assert.Equal(t, 0, gen.calls)
	})

	t.Run("nil provider is allowed", func(t *testing.T) {
		a := NewAnalyzer(nil)
		it := a.Analyze(context.Background(), req("QR code generator"))
		assert.Equal(t, "qr", it.Domain)
		assert.Contains(t, it.Packages, "qrcode[pil]")
	})
}

func TestAnalyzer_HeuristicTables(t *testing.T) {
	a := NewAnalyzer(nil)

	t.Run("weather prompt", func(t *testing.T) {
		it := a.Analyze(context.Background(), req("Weather forecasting MCP with SMS alerts"))
		assert.Equal(t, "weather", it.Domain)
		assert.Contains(t, it.Integrations, "openweathermap")
		assert.Contains(t, it.Integrations, "twilio")
		assert.Contains(t, it.EnvVars, "OPENWEATHER_API_KEY")
		assert.Contains(t, it.EnvVars, "AUTH_TOKEN")
		assert.Contains(t, it.Packages, "pyowm")
	})

	t.Run("database detection from options", func(t *testing.T) {
		r := req("simple weather lookup")
		r.IncludeDatabase = true
		it := a.Analyze(context.Background(), r)
		assert.True(t, it.RequiresDatabase)
		assert.Contains(t, it.EnvVars, "DATABASE_URL")
	})

	t.Run("user data and scheduling detection", func(t *testing.T) {
		it := a.Analyze(context.Background(), req("personal task manager with daily reminders"))
		assert.True(t, it.RequiresUserData)
		assert.True(t, it.RequiresScheduling)
	})

	t.Run("unknown domain defaults to general with read/write ops", func(t *testing.T) {
		it := a.Analyze(context.Background(), req("something entirely unusual"))
		assert.Equal(t, "general", it.Domain)
		assert.Equal(t, []string{"read", "write"}, it.DataOperations)
		assert.NotEmpty(t, it.ToolNames)
	})

	t.Run("tool names always include validate", func(t *testing.T) {
		for _, p := range []string{"track crypto prices", "generate QR codes", "search flights"} {
			it := a.Analyze(context.Background(), req(p))
			assert.Contains(t, it.ToolNames, "validate", p)
			assert.GreaterOrEqual(t, len(it.ToolNames), 2, p)
		}
	})

	t.Run("summary capitalizes without mangling multi-byte prompts", func(t *testing.T) {
		it := a.Analyze(context.Background(), req("éclair bakery order tracker."))
		assert.Equal(t, "Éclair bakery order tracker", it.Summary)
		assert.True(t, utf8.ValidString(it.Summary))

		it = a.Analyze(context.Background(), req("weather MCP"))
		assert.Equal(t, "Weather MCP", it.Summary)
	})

	t.Run("integrations are deduplicated", func(t *testing.T) {
		it := a.Analyze(context.Background(), req("weather and more weather with sms and sms"))
		seen := map[string]int{}
		for _, api := range it.Integrations {
			seen[api]++
		}
		for api, n := range seen {
			assert.Equal(t, 1, n, api)
		}
	})
}
