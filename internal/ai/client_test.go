package ai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/myrjola/unsolved/internal/ai"
	"github.com/myrjola/unsolved/internal/testhelpers"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFacts map[string]string

func (f staticFacts) BaseResponse(_ context.Context, _, topic string) (string, bool, error) {
	response, ok := f[topic]
	return response, ok, nil
}

func newServer(t *testing.T, status int, content string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ //nolint:exhaustruct // test response
			ID: "chatcmpl-1",
			Choices: []openai.ChatCompletionChoice{{ //nolint:exhaustruct // test response
				Index:   0,
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			}},
		})
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestResponder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	server, calls := newServer(t, http.StatusOK, "  I was reading, detective. Alone.  ")
	client := ai.NewClient("test-key", server.URL+"/v1", "")
	facts := staticFacts{"Alibi": "I was in the drawing room, reading."}
	responder := ai.NewResponder(client, facts, testhelpers.NewLogger(io.Discard))

	response, ok, err := responder.BaseResponse(ctx, "Victoria", "Alibi")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "I was reading, detective. Alone.", response)

	// Unknown topics never reach the model.
	_, ok, err = responder.BaseResponse(ctx, "Victoria", "Weather")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, int64(1), calls.Load())
}

func TestResponderFallsBackToFacts(t *testing.T) {
	t.Parallel()
	server, _ := newServer(t, http.StatusInternalServerError, "")
	client := ai.NewClient("test-key", server.URL+"/v1", "gpt-4")
	facts := staticFacts{"Alibi": "I was in the drawing room, reading."}
	responder := ai.NewResponder(client, facts, testhelpers.NewLogger(io.Discard))

	response, ok, err := responder.BaseResponse(context.Background(), "Victoria", "Alibi")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "I was in the drawing room, reading.", response)
}
