package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient adapts the official genai SDK to the Client interface, so
// the agent can run on Gemini with the same tool loop it uses for
// OpenAI-compatible providers.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "gemini:" + g.model }

func (g *GeminiClient) SendTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	contents, err := toGenaiContents(req.Messages)
	if err != nil {
		return nil, err
	}

	temp := float32(req.Temperature)
	config := &genai.GenerateContentConfig{Temperature: &temp}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.JSONOutput && len(req.Tools) == 0 {
		config.ResponseMIMEType = "application/json"
	}
	if len(req.Tools) > 0 {
		tool := &genai.Tool{}
		for _, t := range req.Tools {
			tool.FunctionDeclarations = append(tool.FunctionDeclarations, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGenaiSchema(t.Parameters),
			})
		}
		config.Tools = []*genai.Tool{tool}
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return &TurnResult{}, nil
	}

	result := &TurnResult{}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("encoding function call args: %w", err)
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = part.FunctionCall.Name
			}
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}
	result.Text = strings.TrimSpace(text.String())
	return result, nil
}

// toGenaiContents maps provider-neutral messages onto genai contents. Tool
// results ride as function responses on a user turn; assistant tool calls
// ride as function calls on a model turn.
func toGenaiContents(messages []Message) ([]*genai.Content, error) {
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleUser:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		case RoleAssistant:
			content := &genai.Content{Role: genai.RoleModel}
			if m.Content != "" {
				content.Parts = append(content.Parts, &genai.Part{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				if len(tc.Arguments) > 0 {
					if err := json.Unmarshal(tc.Arguments, &args); err != nil {
						return nil, fmt.Errorf("decoding tool call args for %s: %w", tc.Name, err)
					}
				}
				content.Parts = append(content.Parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args},
				})
			}
			if len(content.Parts) > 0 {
				contents = append(contents, content)
			}
		case RoleTool:
			var payload map[string]any
			if err := json.Unmarshal([]byte(m.Content), &payload); err != nil {
				payload = map[string]any{"result": m.Content}
			}
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       m.ToolCallID,
						Name:     m.Name,
						Response: payload,
					},
				}},
			})
		default:
			return nil, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}
	return contents, nil
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		Items:       toGenaiSchema(s.Items),
	}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
	}
	if len(s.Properties) > 0 {
		out.Properties = map[string]*genai.Schema{}
		for k, v := range s.Properties {
			out.Properties[k] = toGenaiSchema(v)
		}
	}
	return out
}
