package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func completionJSON(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func TestOpenAIClient_Generate(t *testing.T) {
	t.Run("returns completion content", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var req chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Len(t, req.Messages, 2)
			assert.Equal(t, "system", req.Messages[0].Role)

			w.Write([]byte(completionJSON("print('hello')")))
		})

		c := NewOpenAIClient(OpenAIOptions{BaseURL: srv.URL, APIKey: "test-key"})
		out, err := c.Generate(context.Background(), Request{System: "sys", User: "usr"})
		require.NoError(t, err)
		assert.Equal(t, "print('hello')", out)
	})

	t.Run("strips markdown fences", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(completionJSON("```python\nprint('hi')\n```")))
		})

		c := NewOpenAIClient(OpenAIOptions{BaseURL: srv.URL, APIKey: "test-key"})
		out, err := c.Generate(context.Background(), Request{User: "usr"})
		require.NoError(t, err)
		assert.Equal(t, "print('hi')", out)
	})

	t.Run("retries once on 5xx then succeeds", func(t *testing.T) {
		var calls int32
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(completionJSON("ok")))
		})

		c := NewOpenAIClient(OpenAIOptions{BaseURL: srv.URL, APIKey: "test-key"})
		out, err := c.Generate(context.Background(), Request{User: "usr"})
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("returns ErrUnavailable after retry exhausted", func(t *testing.T) {
		var calls int32
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		})

		c := NewOpenAIClient(OpenAIOptions{BaseURL: srv.URL, APIKey: "test-key"})
		_, err := c.Generate(context.Background(), Request{User: "usr"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnavailable))
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls int32
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"model not found"}}`))
		})

		c := NewOpenAIClient(OpenAIOptions{BaseURL: srv.URL, APIKey: "test-key"})
		_, err := c.Generate(context.Background(), Request{User: "usr"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnavailable))
		assert.Contains(t, err.Error(), "status 400")
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("unconfigured client fails fast", func(t *testing.T) {
		c := NewOpenAIClient(OpenAIOptions{BaseURL: "http://localhost:1"})
		assert.False(t, c.Configured())

		_, err := c.Generate(context.Background(), Request{User: "usr"})
		assert.True(t, errors.Is(err, ErrUnavailable))
	})
}

func TestStripFences(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"no fences":       {"plain text", "plain text"},
		"language fence":  {"```python\ncode\n```", "code"},
		"bare fence":      {"```\ncode\n```", "code"},
		"unclosed fence":  {"```python\ncode", "code"},
		"fences in body":  {"before\n```\ninner\n```", "before\n```\ninner\n```"},
		"multiline":       {"```yaml\na: 1\nb: 2\n```", "a: 1\nb: 2"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripFences(tc.in))
		})
	}
}
