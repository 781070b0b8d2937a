// Package llm abstracts the chat-completion providers behind a single
// tool-aware client interface.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn of a conversation, provider-neutral.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a model's request to run one tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Schema is a JSON-schema fragment describing tool parameters.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// Tool declares a callable function to the model.
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// TurnRequest is one full round sent to the provider.
type TurnRequest struct {
	System      string
	Messages    []Message
	Tools       []Tool
	Temperature float64
	JSONOutput  bool
}

// TurnResult is what the model answered: free text, tool calls, or both.
type TurnResult struct {
	Text      string
	ToolCalls []ToolCall
}

// Client is a chat-completion provider. Implementations must be safe for
// concurrent use.
type Client interface {
	SendTurn(ctx context.Context, req TurnRequest) (*TurnResult, error)
	Name() string
}

// ErrRateLimited marks provider quota errors so callers can back off.
var ErrRateLimited = errors.New("llm provider rate limited")

// IsRateLimit reports whether an error looks like a provider quota error.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(msg), "quota")
}

// SendTurnWithRetry retries rate-limited turns with a growing delay. Other
// errors fail immediately.
func SendTurnWithRetry(ctx context.Context, client Client, req TurnRequest) (*TurnResult, error) {
	const attempts = 3

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := client.SendTurn(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !IsRateLimit(err) {
			return nil, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := time.Duration(attempt+1) * 2 * time.Second
		log.Printf("llm %s rate limited, retrying in %s", client.Name(), delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("llm %s: %w", client.Name(), lastErr)
}

// ExtractJSONIsland pulls the outermost {...} object out of model text that
// may carry prose or code fences around it.
func ExtractJSONIsland(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
