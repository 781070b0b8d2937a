// Package agent bridges the conversation with the language model: it
// declares the ordering tools, runs the bounded tool-execution loop and
// folds tool effects back into the session.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sanmarzano/orderbot/internal/llm"
	"github.com/sanmarzano/orderbot/internal/menu"
	"github.com/sanmarzano/orderbot/internal/models"
	"github.com/sanmarzano/orderbot/internal/notify"
	"github.com/sanmarzano/orderbot/internal/repositories"
	"github.com/sanmarzano/orderbot/internal/session"
)

// maxToolRounds caps the model/tool exchange per incoming message. When
// the model is still calling tools past the cap we abandon the turn and
// fall back to the button menu instead of looping on the provider's dime.
const maxToolRounds = 6

// staleOrderWindow is how long a confirmed order stays "queued" before a
// status query reports it expired.
const staleOrderWindow = 12 * time.Hour

// SizePrompt asks the customer to choose a size for an item via buttons.
type SizePrompt struct {
	Item     models.MenuItem
	Quantity int
}

// Result is everything a model turn decided. The router translates the
// flags into outbound WhatsApp messages.
type Result struct {
	Replies         []string
	ShowMenu        bool
	ShowCategory    string
	ShowCart        bool
	ShowCheckout    bool
	CartUpdated     bool
	DeliveryUpdated bool
	SizePrompt      *SizePrompt
	StopAfterTools  bool
	StopChat        bool
	SessionReset    bool
	NeedsFallback   bool
}

// HasAction reports whether the turn produced anything the customer will
// see.
func (r *Result) HasAction() bool {
	return len(r.Replies) > 0 || r.ShowMenu || r.ShowCart || r.ShowCheckout ||
		r.ShowCategory != "" || r.SizePrompt != nil || r.CartUpdated || r.DeliveryUpdated
}

type Agent struct {
	llm      llm.Client
	store    *session.Store
	menu     *menu.Cache
	orders   repositories.OrderRepository
	users    repositories.UserRepository
	notifier notify.Publisher

	historyLimit int
}

func New(client llm.Client, store *session.Store, cache *menu.Cache, orders repositories.OrderRepository, users repositories.UserRepository, notifier notify.Publisher, historyLimit int) *Agent {
	if historyLimit <= 0 {
		historyLimit = 30
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Agent{
		llm:          client,
		store:        store,
		menu:         cache,
		orders:       orders,
		users:        users,
		notifier:     notifier,
		historyLimit: historyLimit,
	}
}

// ProcessMessage runs one customer text through the model. The session is
// mutated in place; when Result.SessionReset is set the caller must reload
// instead of persisting its copy.
func (a *Agent) ProcessMessage(ctx context.Context, phone, text string, sess *models.Session) (*Result, error) {
	categories, err := a.menu.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading menu categories: %w", err)
	}

	temperature := 0.5
	var stateJSON string
	if sess.DevMode {
		temperature = 0
		stateJSON = debugStateJSON(phone, sess)
	}

	messages := make([]llm.Message, 0, len(sess.History)+1)
	for _, turn := range sess.History {
		role := llm.RoleUser
		if turn.Role == models.ChatRoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}
	augmented := fmt.Sprintf("Número detectado: +%s\n%s\n\nUsuario dice: %s", phone, buildStateContext(sess), text)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: augmented})

	req := llm.TurnRequest{
		System:      buildSystemPrompt(sess.FinalAddress(), sess.DevMode, stateJSON),
		Tools:       toolDeclarations(categories),
		Temperature: temperature,
	}

	result := &Result{}
	var finalText string

	for round := 0; ; round++ {
		if round >= maxToolRounds {
			log.Printf("agent: tool round cap hit for %s, falling back", phone)
			result.NeedsFallback = true
			return result, nil
		}

		req.Messages = messages
		turn, err := llm.SendTurnWithRetry(ctx, a.llm, req)
		if err != nil {
			return nil, fmt.Errorf("model turn for %s: %w", phone, err)
		}

		if len(turn.ToolCalls) == 0 {
			finalText = turn.Text
			break
		}

		assistant := llm.Message{Role: llm.RoleAssistant, Content: turn.Text, ToolCalls: turn.ToolCalls}
		messages = append(messages, assistant)

		for _, call := range turn.ToolCalls {
			payload := a.executeTool(ctx, phone, sess, call, result)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    payload,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}

		if result.StopChat || result.StopAfterTools || result.SizePrompt != nil {
			break
		}
	}

	if finalText != "" && !result.StopAfterTools {
		result.Replies = append(result.Replies, reformatConfirmedJSON(finalText))
	}

	if !result.SessionReset {
		now := time.Now()
		sess.AppendHistory(models.ChatRoleUser, text, now, a.historyLimit)
		if assistantSummary := strings.Join(result.Replies, "\n"); assistantSummary != "" {
			sess.AppendHistory(models.ChatRoleAssistant, assistantSummary, now, a.historyLimit)
		}
	}

	if !result.HasAction() {
		result.NeedsFallback = true
	}
	return result, nil
}

// reformatConfirmedJSON normalizes the occasional model habit of answering
// the confirmation as a JSON blob instead of prose.
func reformatConfirmedJSON(text string) string {
	island, ok := llm.ExtractJSONIsland(text)
	if !ok {
		return text
	}
	var payload struct {
		Status  string `json:"status"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(island), &payload); err != nil {
		return text
	}
	if payload.Status != "confirmed" {
		return text
	}
	if payload.Message != "" {
		return payload.Message
	}
	if payload.Code != "" {
		return fmt.Sprintf("✅ ¡Pedido %s confirmado! Llega en 30-45 min aprox 🍕", payload.Code)
	}
	return text
}
