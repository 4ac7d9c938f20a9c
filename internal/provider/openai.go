package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mcp-forge/forge-backend/internal/logging"
)

const (
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 4000
	// Low temperature for consistent, reliable code
	generationTemperature = 0.1
)

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

type OpenAIOptions struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// RPS bounds outbound calls; zero means 4 req/s with burst 8.
	RPS float64
}

// NewOpenAIClient creates a new provider client
func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.Timeout == 0 {
		opts.Timeout = 25 * time.Second
	}
	if opts.RPS == 0 {
		opts.RPS = 4
	}
	return &OpenAIClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		model:   opts.Model,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RPS), int(opts.RPS*2)),
	}
}

func (c *OpenAIClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// errTransient marks failures worth one retry: transport errors and 5xx
// responses. Client errors (4xx) repeat identically and are not retried.
var errTransient = errors.New("transient provider failure")

// Generate performs one chat completion with a single retry on transient
// failure (timeout or 5xx). The returned text has markdown code fences removed.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	logger := logging.NewLogger(ctx)

	if !c.Configured() {
		return "", fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	content, err := c.complete(ctx, req)
	if err == nil {
		return StripFences(content), nil
	}
	if !errors.Is(err, errTransient) {
		logger.LogError("provider_generate", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	logger.LogWarnf("provider_generate", "retrying after transient failure: %v", err)
	content, retryErr := c.complete(ctx, req)
	if retryErr != nil {
		logger.LogError("provider_generate", retryErr)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, retryErr)
	}
	return StripFences(content), nil
}

func (c *OpenAIClient) complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	body := chatRequest{
		Model:       c.model,
		Temperature: generationTemperature,
		MaxTokens:   maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
	}

	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: provider returned status %d", errTransient, resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 400 {
		msg := "unknown error"
		if out.Error != nil {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("provider error (status %d): %s", resp.StatusCode, msg)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices")
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// StripFences removes a surrounding markdown code block, if present.
func StripFences(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
