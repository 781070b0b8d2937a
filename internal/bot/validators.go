package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sanmarzano/orderbot/internal/llm"
)

// Validator runs single-turn model classifications for inputs the cheap
// heuristics cannot settle. Every call asks for strict JSON at temperature
// zero; anything unparseable counts as invalid.
type Validator struct {
	llm llm.Client
}

func NewValidator(client llm.Client) *Validator {
	return &Validator{llm: client}
}

func (v *Validator) ask(ctx context.Context, system, user string, out any) error {
	res, err := llm.SendTurnWithRetry(ctx, v.llm, llm.TurnRequest{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: user}},
		Temperature: 0,
		JSONOutput:  true,
	})
	if err != nil {
		return err
	}
	island, ok := llm.ExtractJSONIsland(res.Text)
	if !ok {
		return fmt.Errorf("no JSON in validator response")
	}
	return json.Unmarshal([]byte(island), out)
}

// ValidateName asks the model whether an odd-looking candidate is
// plausibly a person's name and returns a cleaned version.
func (v *Validator) ValidateName(ctx context.Context, candidate string) (string, bool) {
	var out struct {
		Valid bool   `json:"valid"`
		Name  string `json:"name"`
	}
	err := v.ask(ctx,
		`Decide si el texto es un nombre de persona plausible en Perú. Responde SOLO JSON: {"valid": bool, "name": "nombre limpio"}`,
		candidate, &out)
	if err != nil || !out.Valid {
		return "", false
	}
	if strings.TrimSpace(out.Name) == "" {
		out.Name = candidate
	}
	return strings.TrimSpace(out.Name), true
}

// ValidateAddress asks the model whether text is a plausible street
// address and returns a cleaned version.
func (v *Validator) ValidateAddress(ctx context.Context, candidate string) (string, bool) {
	var out struct {
		Valid   bool   `json:"valid"`
		Address string `json:"address"`
	}
	err := v.ask(ctx,
		`Decide si el texto es una dirección de entrega plausible en Lima. Responde SOLO JSON: {"valid": bool, "address": "dirección limpia"}`,
		candidate, &out)
	if err != nil || !out.Valid {
		return "", false
	}
	if strings.TrimSpace(out.Address) == "" {
		out.Address = candidate
	}
	return strings.TrimSpace(out.Address), true
}

// TextClass is the coarse classification for ambiguous digit-bearing
// texts: is the customer telling us their name, an address, or ordering?
type TextClass struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (v *Validator) ClassifyText(ctx context.Context, text string) (*TextClass, error) {
	var out TextClass
	err := v.ask(ctx,
		`Clasifica el mensaje de un cliente de pizzería. Responde SOLO JSON: {"kind": "name"|"address"|"order"|"other", "name": "si kind es name", "address": "si kind es address"}`,
		text, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ExtractedAddress is the result of mining an order-like sentence for an
// embedded address and name.
type ExtractedAddress struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

func (v *Validator) ExtractAddressAndName(ctx context.Context, text string) (*ExtractedAddress, bool) {
	var out ExtractedAddress
	err := v.ask(ctx,
		`Del mensaje extrae, si existen, una dirección de entrega y un nombre de persona. Responde SOLO JSON: {"address": "o vacío", "name": "o vacío"}`,
		text, &out)
	if err != nil {
		return nil, false
	}
	out.Address = strings.TrimSpace(out.Address)
	out.Name = strings.TrimSpace(out.Name)
	if out.Address == "" && out.Name == "" {
		return nil, false
	}
	return &out, true
}
