package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sanmarzano/orderbot/internal/models"
)

// MessageHandler consumes one normalized inbound message.
type MessageHandler interface {
	HandleIncoming(ctx context.Context, msg models.IncomingMessage) error
}

// webhookPayload mirrors the Graph API webhook envelope, keeping only the
// fields the bot reads.
type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Messages []webhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
	Button *struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

// WebhookHandler terminates the Meta webhook: GET verification handshake
// and POST message delivery.
type WebhookHandler struct {
	handler     MessageHandler
	verifyToken string

	// handleTimeout bounds one message's processing after the webhook has
	// already been acked.
	handleTimeout time.Duration
}

func NewWebhookHandler(handler MessageHandler, verifyToken string) *WebhookHandler {
	return &WebhookHandler{
		handler:       handler,
		verifyToken:   verifyToken,
		handleTimeout: 60 * time.Second,
	}
}

// Verify answers the subscription handshake: echo hub.challenge when the
// token matches, 403 otherwise.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, q.Get("hub.challenge"))
		return
	}
	http.Error(w, "verification failed", http.StatusForbidden)
}

// Receive acks the delivery immediately and processes the messages in the
// background; Meta retries on anything but a fast 200.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	if payload.Object != "whatsapp_business_account" {
		return
	}
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, raw := range change.Value.Messages {
				msg, ok := normalizeMessage(raw)
				if !ok {
					log.Printf("server: ignoring %s message %s", raw.Type, raw.ID)
					continue
				}
				go h.process(msg)
			}
		}
	}
}

func (h *WebhookHandler) process(msg models.IncomingMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), h.handleTimeout)
	defer cancel()
	if err := h.handler.HandleIncoming(ctx, msg); err != nil {
		log.Printf("server: handling message %s from %s: %v", msg.ID, msg.From, err)
	}
}

func normalizeMessage(raw webhookMessage) (models.IncomingMessage, bool) {
	msg := models.IncomingMessage{ID: raw.ID, From: raw.From, Type: raw.Type}

	switch raw.Type {
	case "text":
		if raw.Text == nil {
			return msg, false
		}
		msg.Text = raw.Text.Body
	case "interactive":
		if raw.Interactive == nil {
			return msg, false
		}
		switch {
		case raw.Interactive.ButtonReply != nil:
			msg.Payload = raw.Interactive.ButtonReply.ID
		case raw.Interactive.ListReply != nil:
			msg.Payload = raw.Interactive.ListReply.ID
		default:
			return msg, false
		}
	case "button":
		if raw.Button == nil {
			return msg, false
		}
		msg.Payload = raw.Button.Payload
		if msg.Payload == "" {
			msg.Text = raw.Button.Text
		}
	case "location":
		if raw.Location == nil {
			return msg, false
		}
		msg.Location = &models.Location{Lat: raw.Location.Latitude, Lng: raw.Location.Longitude}
	default:
		// Stickers, audio, reactions and the rest are ignored.
		return msg, false
	}
	return msg, true
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `{"status":"ok"}`)
}
