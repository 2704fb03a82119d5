package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropicClient(t *testing.T, handler http.HandlerFunc) *AnthropicClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL, Model: "claude-haiku-4-5"})
	require.NoError(t, err)
	return c
}

func TestAnthropicClient_Prompt(t *testing.T) {
	c := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_test",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": `{"test":{"question":null}}`},
			},
			"model":       "claude-haiku-4-5",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
		})
	})

	got, err := c.Prompt(context.Background(), "Generate a question.")
	require.NoError(t, err)
	assert.Equal(t, `{"test":{"question":null}}`, got)
}

func TestAnthropicClient_RateLimit(t *testing.T) {
	c := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "rate_limit_error", "message": "Rate limit exceeded"},
		})
	})

	_, err := c.Prompt(context.Background(), "hi")
	require.Error(t, err)
	var rl *ErrRateLimit
	assert.True(t, errors.As(err, &rl), "got %T", err)
}

func TestNewAnthropicClient_RequiresKey(t *testing.T) {
	_, err := NewAnthropicClient(Config{Model: "claude-haiku-4-5"})
	assert.Error(t, err)
}
