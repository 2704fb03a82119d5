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

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL + "/v1", APIKey: "test-key", Model: "gpt-4o-mini", MaxTokens: 64})
}

func chatCompletion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
}

func TestClient_Prompt(t *testing.T) {
	var gotPrompt string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Messages) == 1 {
			gotPrompt = req.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion("correct"))
	})

	got, err := c.Prompt(context.Background(), "Is CO2 right?")
	require.NoError(t, err)
	assert.Equal(t, "correct", got)
	assert.Equal(t, "Is CO2 right?", gotPrompt)
}

func TestClient_ResponseFormat(t *testing.T) {
	var formats []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ResponseFormat *struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			if req.ResponseFormat == nil {
				formats = append(formats, "")
			} else {
				formats = append(formats, req.ResponseFormat.Type)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"test":{"question":null}}`))
	})

	_, err := c.PromptJSON(context.Background(), "make a question")
	require.NoError(t, err)
	_, err = c.Prompt(context.Background(), "judge this")
	require.NoError(t, err)

	assert.Equal(t, []string{"json_object", ""}, formats)
}

func TestClient_NoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := chatCompletion("")
		resp["choices"] = []map[string]any{}
		json.NewEncoder(w).Encode(resp)
	})

	_, err := c.Prompt(context.Background(), "hi")
	var invalid *ErrInvalidResponse
	assert.True(t, errors.As(err, &invalid))
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"rate limit", http.StatusTooManyRequests, func(t *testing.T, err error) {
			var rl *ErrRateLimit
			assert.True(t, errors.As(err, &rl), "got %T", err)
		}},
		{"server error", http.StatusBadGateway, func(t *testing.T, err error) {
			var pu *ErrProviderUnavailable
			assert.True(t, errors.As(err, &pu), "got %T", err)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": "nope", "type": "error"},
				})
			})
			_, err := c.Prompt(context.Background(), "hi")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_Ping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": []any{}})
	})
	assert.NoError(t, c.Ping(context.Background()))
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := New(Config{BaseURL: url, APIKey: "k", Model: "m"})
	_, err := c.Prompt(context.Background(), "hi")
	var pu *ErrProviderUnavailable
	assert.True(t, errors.As(err, &pu), "got %T", err)
}

func TestNewPrompter(t *testing.T) {
	ctx := context.Background()

	p, err := NewPrompter(ctx, Config{Provider: "", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.IsType(t, &Client{}, p)

	p, err = NewPrompter(ctx, Config{Provider: "Anthropic", APIKey: "k", Model: "claude-haiku-4-5"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, p)

	p, err = NewPrompter(ctx, Config{Provider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, &MockPrompter{}, p)

	_, err = NewPrompter(ctx, Config{Provider: "anthropic"})
	assert.Error(t, err, "missing key")

	_, err = NewPrompter(ctx, Config{Provider: "gemini"})
	assert.Error(t, err, "missing key")

	_, err = NewPrompter(ctx, Config{Provider: "llama"})
	assert.Error(t, err)
}

func TestMockPrompter(t *testing.T) {
	m := NewMockPrompter(MockReply{Text: "correct"})
	m.AddReply(MockReply{Err: errors.New("boom")})

	got, err := m.Prompt(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, "correct", got)

	_, err = m.Prompt(context.Background(), "two")
	assert.EqualError(t, err, "boom")

	_, err = m.Prompt(context.Background(), "three")
	var pu *ErrProviderUnavailable
	assert.True(t, errors.As(err, &pu))

	assert.Equal(t, 3, m.CallCount())
	assert.Equal(t, []string{"one", "two", "three"}, m.Prompts)
}
