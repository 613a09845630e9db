package compose

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oaoption "github.com/openai/openai-go/v2/option"

	"github.com/teemow/coverletter/internal/config"
	"github.com/teemow/coverletter/internal/logging"
)

func newOpenAITestComposer(t *testing.T, handler http.HandlerFunc) *OpenAIComposer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.LLMConfig{
		Backend:     config.BackendOpenAI,
		Model:       "gpt-4o-mini",
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/",
		Temperature: 0.5,
		MaxTokens:   600,
	}
	return NewOpenAIComposer(cfg, testProfile, logging.DiscardLogger(), oaoption.WithMaxRetries(0))
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
	}
}

func TestOpenAIComposer_Compose(t *testing.T) {
	var body map[string]any
	c := newOpenAITestComposer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("I am excited to apply.\nMy background fits.\n"))
	})

	text, err := c.Compose(context.Background(), Request{Role: "Engineer", Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "I am excited to apply.\nMy background fits.", text)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.InDelta(t, 0.5, body["temperature"], 0.0001)
	assert.EqualValues(t, 600, body["max_completion_tokens"])

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	system := messages[0].(map[string]any)
	user := messages[1].(map[string]any)
	assert.Equal(t, "system", system["role"])
	assert.Contains(t, system["content"], testProfile)
	assert.Equal(t, "user", user["role"])
	assert.Contains(t, user["content"], "'Engineer' at 'Acme'")
}

func TestOpenAIComposer_Errors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		c := newOpenAITestComposer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
		})

		_, err := c.Compose(context.Background(), Request{Role: "Engineer", Company: "Acme"})
		var composeErr *Error
		require.True(t, errors.As(err, &composeErr))
		assert.Equal(t, config.BackendOpenAI, composeErr.Backend)
	})

	t.Run("empty content", func(t *testing.T) {
		c := newOpenAITestComposer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(completion("   "))
		})

		_, err := c.Compose(context.Background(), Request{Role: "Engineer", Company: "Acme"})
		assert.ErrorIs(t, err, ErrEmptyBody)
	})

	t.Run("invalid request makes no call", func(t *testing.T) {
		called := false
		c := newOpenAITestComposer(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		_, err := c.Compose(context.Background(), Request{Company: "Acme"})
		assert.Error(t, err)
		assert.False(t, called)
	})
}
