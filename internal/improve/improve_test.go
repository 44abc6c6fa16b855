package improve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImprover(t *testing.T, handler http.HandlerFunc) *ChatImprover {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return NewChatImprover(Config{
		Endpoint: ts.URL + "/v1",
		Model:    "test-model",
		Timeout:  2 * time.Second,
	}, nil)
}

func completionResponse(content string) map[string]any {
	return map[string]any{
		"id":     "cmpl-1",
		"object": "chat.completion",
		"choices": []map[string]any{
			{
				"index":   0,
				"message": map[string]any{"role": "assistant", "content": content},
			},
		},
	}
}

func TestImprove_ReturnsCorrectedText(t *testing.T) {
	improver := newTestImprover(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse("Hello, world."))
	})

	improved, err := improver.Improve(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world.", improved)
}

func TestImprove_EmptyInputShortCircuits(t *testing.T) {
	called := false
	improver := newTestImprover(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	improved, err := improver.Improve(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, "   ", improved)
	assert.False(t, called, "no request expected for blank input")
}

func TestImprove_ServerErrorReturnsError(t *testing.T) {
	improver := newTestImprover(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := improver.Improve(context.Background(), "hello")
	assert.Error(t, err)
}

func TestImprove_EmptyCompletionIsError(t *testing.T) {
	improver := newTestImprover(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse("   "))
	})

	_, err := improver.Improve(context.Background(), "hello")
	assert.Error(t, err)
}
