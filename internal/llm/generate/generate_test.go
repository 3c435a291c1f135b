package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhijeetjrock/db-analyzer1/internal/types"
)

func TestOpenAIGenerator_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"optimized"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`))
	}))
	defer srv.Close()

	g, err := NewOpenAIGenerator("gpt-test", "sk-test", srv.URL+"/v1/")
	require.NoError(t, err)

	out, err := g.Complete(context.Background(), "SELECT 1", types.GenerationOptions{MaxTokens: 100, Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "optimized", out)
	assert.Equal(t, "gpt-test", got["model"])
	assert.EqualValues(t, 100, got["max_tokens"])

	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, types.DefaultSystemPrompt, messages[0].(map[string]any)["content"])
	assert.Equal(t, "SELECT 1", messages[1].(map[string]any)["content"])
}

func TestOpenAIGenerator_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	g, err := NewOpenAIGenerator("", "sk-bad", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, defaultOpenAIModel, g.Model())

	_, err = g.Complete(context.Background(), "SELECT 1", types.GenerationOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestAnthropicGenerator_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"))
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"m1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"part one "},{"type":"text","text":"part two"}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":4}}`))
	}))
	defer srv.Close()

	g, err := NewAnthropicGenerator("claude-test", "ak-test", srv.URL+"/v1")
	require.NoError(t, err)

	out, err := g.Complete(context.Background(), "optimize this", types.GenerationOptions{System: "be brief"})
	require.NoError(t, err)
	assert.Equal(t, "part one part two", out)
	assert.Equal(t, "claude-test", got["model"])
	assert.EqualValues(t, defaultAnthropicMaxTokens, got["max_tokens"])
	assert.Contains(t, fmt.Sprint(got["system"]), "be brief")
}

func TestGeminiGenerator_Complete(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "gk-test", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"ok\":true}"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	g, err := NewGeminiGenerator("gemini-test", "gk-test", srv.URL+"/v1")
	require.NoError(t, err)

	out, err := g.Complete(context.Background(), "hello", types.GenerationOptions{Temperature: 0.3, MaxTokens: 2000})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "hello", got.Contents[0].Parts[0].Text)
	assert.Equal(t, 2000, got.GenerationConfig.MaxOutputTokens)
}

func TestGeminiGenerator_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exhausted", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g, err := NewGeminiGenerator("", "gk-test", srv.URL)
	require.NoError(t, err)

	_, err = g.Complete(context.Background(), "hello", types.GenerationOptions{})
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "quota exhausted")
}

func TestNewGenerators_RequireKey(t *testing.T) {
	_, err := NewOpenAIGenerator("m", "", "")
	assert.Error(t, err)
	_, err = NewAnthropicGenerator("m", "", "")
	assert.Error(t, err)
	_, err = NewGeminiGenerator("m", "", "")
	assert.Error(t, err)
}

func TestMockGenerator(t *testing.T) {
	g := NewMockGenerator("")
	assert.Equal(t, "canned-mock", g.Model())
	assert.Equal(t, "mock", g.Provider())

	out, err := g.Complete(context.Background(), "Optimize: SELECT * FROM a JOIN b ON a.id = b.id", types.GenerationOptions{})
	require.NoError(t, err)
	assert.Contains(t, out, "INNER JOIN")

	out, err = g.Complete(context.Background(), "Natural language request: top 10 employees", types.GenerationOptions{})
	require.NoError(t, err)
	var nl map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &nl))
	assert.Contains(t, nl["oracle"], "ROWNUM")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewMockGenerator("slow").WithDelay(time.Hour).Complete(ctx, "x", types.GenerationOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
