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

func TestIsRateLimit(t *testing.T) {
	assert.False(t, IsRateLimit(nil))
	assert.False(t, IsRateLimit(errors.New("connection refused")))
	assert.True(t, IsRateLimit(errors.New("status 429 from upstream")))
	assert.True(t, IsRateLimit(errors.New("RESOURCE_EXHAUSTED")))
	assert.True(t, IsRateLimit(errors.New("Quota exceeded for model")))
	assert.True(t, IsRateLimit(ErrRateLimited))
}

func TestExtractJSONIsland(t *testing.T) {
	got, ok := ExtractJSONIsland("Sure! ```json\n{\"valid\": true}\n``` hope that helps")
	require.True(t, ok)
	assert.JSONEq(t, `{"valid": true}`, got)

	_, ok = ExtractJSONIsland("no json here")
	assert.False(t, ok)

	got, ok = ExtractJSONIsland(`{"a":{"b":1}}`)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":{"b":1}}`, got)
}

type scriptedClient struct {
	errs  []error
	calls int
}

func (s *scriptedClient) Name() string { return "scripted" }

func (s *scriptedClient) SendTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	err := s.errs[min(s.calls, len(s.errs)-1)]
	s.calls++
	if err != nil {
		return nil, err
	}
	return &TurnResult{Text: "ok"}, nil
}

func TestSendTurnWithRetryRecovers(t *testing.T) {
	c := &scriptedClient{errs: []error{ErrRateLimited, nil}}
	res, err := SendTurnWithRetry(context.Background(), c, TurnRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, 2, c.calls)
}

func TestSendTurnWithRetryStopsOnOtherErrors(t *testing.T) {
	c := &scriptedClient{errs: []error{errors.New("bad request")}}
	_, err := SendTurnWithRetry(context.Background(), c, TurnRequest{})
	assert.Error(t, err)
	assert.Equal(t, 1, c.calls)
}

func TestOpenAIClientSendTurn(t *testing.T) {
	var captured chatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		resp := map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"role":    "assistant",
					"content": "",
					"tool_calls": []map[string]any{{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      "add_to_cart",
							"arguments": `{"item_id":"pizza_pepperoni","quantity":1}`,
						},
					}},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "test-key", "deepseek-chat")
	res, err := c.SendTurn(context.Background(), TurnRequest{
		System:   "eres un asistente",
		Messages: []Message{{Role: RoleUser, Content: "una pizza pepperoni"}},
		Tools: []Tool{{
			Name:        "add_to_cart",
			Description: "Agrega un producto al carrito",
			Parameters: &Schema{
				Type: "object",
				Properties: map[string]*Schema{
					"item_id":  {Type: "string"},
					"quantity": {Type: "integer"},
				},
				Required: []string{"item_id"},
			},
		}},
	})
	require.NoError(t, err)

	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "add_to_cart", res.ToolCalls[0].Name)
	assert.JSONEq(t, `{"item_id":"pizza_pepperoni","quantity":1}`, string(res.ToolCalls[0].Arguments))

	require.NotEmpty(t, captured.Messages)
	assert.Equal(t, RoleSystem, captured.Messages[0].Role)
	require.Len(t, captured.Tools, 1)
	assert.Equal(t, "function", captured.Tools[0].Type)
}

func TestOpenAIClientRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "k", "m")
	_, err := c.SendTurn(context.Background(), TurnRequest{})
	assert.True(t, IsRateLimit(err))
}
