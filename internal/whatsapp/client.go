// Package whatsapp is a thin client for the Meta Graph API messages
// endpoint.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const graphAPIBase = "https://graph.facebook.com/v20.0"

// Button is one quick-reply button (max 3 per message, titles max 20
// chars per the Graph API).
type Button struct {
	ID    string
	Title string
}

// ListRow is one row of an interactive list message.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListSection groups rows under a header inside a list message.
type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"`
}

type Client struct {
	BaseURL     string
	AccessToken string
	PhoneID     string
	HTTP        *http.Client
}

func NewClient(accessToken, phoneID string) *Client {
	return &Client{
		BaseURL:     graphAPIBase,
		AccessToken: accessToken,
		PhoneID:     phoneID,
		HTTP:        &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding whatsapp payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", strings.TrimRight(c.BaseURL, "/"), c.PhoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("sending whatsapp message: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("whatsapp api status %d: %s", res.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

func (c *Client) SendText(ctx context.Context, to, text string) error {
	return c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": text},
	})
}

func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []Button) error {
	if len(buttons) > 3 {
		buttons = buttons[:3]
	}
	wire := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		wire = append(wire, map[string]any{
			"type":  "reply",
			"reply": map[string]any{"id": b.ID, "title": b.Title},
		})
	}
	return c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "button",
			"body":   map[string]any{"text": body},
			"action": map[string]any{"buttons": wire},
		},
	})
}

func (c *Client) SendList(ctx context.Context, to, body, buttonLabel string, sections []ListSection) error {
	return c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "list",
			"body":   map[string]any{"text": body},
			"action": map[string]any{"button": buttonLabel, "sections": sections},
		},
	})
}

// SendTemplate sends a pre-approved message template, needed to start a
// conversation outside the 24h customer service window.
func (c *Client) SendTemplate(ctx context.Context, to, name, languageCode string, bodyParams []string) error {
	components := []map[string]any{}
	if len(bodyParams) > 0 {
		params := make([]map[string]any, 0, len(bodyParams))
		for _, p := range bodyParams {
			params = append(params, map[string]any{"type": "text", "text": p})
		}
		components = append(components, map[string]any{"type": "body", "parameters": params})
	}
	return c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template": map[string]any{
			"name":       name,
			"language":   map[string]any{"code": languageCode},
			"components": components,
		},
	})
}

// MarkRead flags a message as read so the customer sees the blue ticks.
// Failures are logged and swallowed; read receipts are best effort.
func (c *Client) MarkRead(ctx context.Context, messageID string) {
	err := c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	})
	if err != nil {
		log.Printf("whatsapp: mark read %s: %v", messageID, err)
	}
}

// SendTyping shows the typing indicator while the model thinks. Best
// effort, same as MarkRead.
func (c *Client) SendTyping(ctx context.Context, messageID string) {
	err := c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
		"typing_indicator":  map[string]any{"type": "text"},
	})
	if err != nil {
		log.Printf("whatsapp: typing indicator: %v", err)
	}
}
