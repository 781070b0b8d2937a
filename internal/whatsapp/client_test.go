package whatsapp

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

func testClient(t *testing.T) (*Client, *[]map[string]any) {
	t.Helper()
	var captured []map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/123456/messages", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		captured = append(captured, payload)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return &Client{
		BaseURL:     srv.URL,
		AccessToken: "test-token",
		PhoneID:     "123456",
		HTTP:        &http.Client{Timeout: 2 * time.Second},
	}, &captured
}

func TestSendText(t *testing.T) {
	client, captured := testClient(t)

	require.NoError(t, client.SendText(context.Background(), "51999888777", "hola"))
	require.Len(t, *captured, 1)

	payload := (*captured)[0]
	assert.Equal(t, "text", payload["type"])
	assert.Equal(t, "51999888777", payload["to"])
	assert.Equal(t, "hola", payload["text"].(map[string]any)["body"])
}

func TestSendButtonsCapsAtThree(t *testing.T) {
	client, captured := testClient(t)

	buttons := []Button{
		{ID: "a", Title: "A"}, {ID: "b", Title: "B"},
		{ID: "c", Title: "C"}, {ID: "d", Title: "D"},
	}
	require.NoError(t, client.SendButtons(context.Background(), "51999888777", "elige", buttons))
	require.Len(t, *captured, 1)

	interactive := (*captured)[0]["interactive"].(map[string]any)
	assert.Equal(t, "button", interactive["type"])
	sent := interactive["action"].(map[string]any)["buttons"].([]any)
	assert.Len(t, sent, 3)
}

func TestSendList(t *testing.T) {
	client, captured := testClient(t)

	sections := []ListSection{{
		Title: "Pizzas",
		Rows:  []ListRow{{ID: "prod_pizza_pepperoni", Title: "Pizza Pepperoni"}},
	}}
	require.NoError(t, client.SendList(context.Background(), "51999888777", "menú", "Elegir", sections))
	require.Len(t, *captured, 1)

	interactive := (*captured)[0]["interactive"].(map[string]any)
	assert.Equal(t, "list", interactive["type"])
	assert.Equal(t, "Elegir", interactive["action"].(map[string]any)["button"])
}

func TestSendTemplate(t *testing.T) {
	client, captured := testClient(t)

	require.NoError(t, client.SendTemplate(context.Background(), "51999888777", "order_update", "es", []string{"310826sm01"}))
	require.Len(t, *captured, 1)

	payload := (*captured)[0]
	assert.Equal(t, "template", payload["type"])
	tmpl := payload["template"].(map[string]any)
	assert.Equal(t, "order_update", tmpl["name"])
}

func TestErrorStatusSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid recipient"}}`))
	}))
	t.Cleanup(srv.Close)

	client := &Client{BaseURL: srv.URL, AccessToken: "t", PhoneID: "1", HTTP: srv.Client()}
	err := client.SendText(context.Background(), "bad", "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "invalid recipient")
}
