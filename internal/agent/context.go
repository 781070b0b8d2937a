package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sanmarzano/orderbot/internal/models"
)

// buildStateContext renders the session facts the model must not guess:
// who the customer is, what is in the cart and whether the order is ready
// to confirm.
func buildStateContext(sess *models.Session) string {
	var b strings.Builder

	if sess.Name != "" {
		b.WriteString(fmt.Sprintf("Cliente registrado: %s.", sess.Name))
		if addr := sess.FinalAddress(); addr != "" {
			b.WriteString(fmt.Sprintf(" Dirección: %s.", addr))
		}
	} else {
		b.WriteString("Cliente nuevo, aún sin nombre registrado. Pídele su nombre antes de confirmar.")
	}
	b.WriteString("\n")

	if len(sess.Cart) == 0 {
		b.WriteString("Carrito vacío.")
	} else {
		b.WriteString("Carrito actual:\n")
		for _, item := range sess.Cart {
			b.WriteString(fmt.Sprintf("- %dx %s (S/ %.2f c/u)\n", item.Quantity, item.Name, item.UnitPrice))
		}
		b.WriteString(fmt.Sprintf("Subtotal: S/ %.2f", sess.CartTotal()))
		if sess.Delivery != nil {
			b.WriteString(fmt.Sprintf(" + delivery S/ %.2f = S/ %.2f", sess.Delivery.Cost, sess.CartTotal()+sess.Delivery.Cost))
		}
	}
	b.WriteString("\n")

	if sess.Name != "" && sess.FinalAddress() != "" && len(sess.Cart) > 0 {
		b.WriteString("DATOS COMPLETOS: si el cliente está aceptando el pedido (sí, confirmo, listo, eso es todo), llama a confirm_order de inmediato en vez de volver a preguntar.\n")
	}
	if sess.PendingAddressChange != nil && !sess.PendingAddressChange.Complete() {
		b.WriteString("Hay un cambio de dirección a medias: falta texto, ubicación o la elección del cliente.\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// debugStateJSON is the raw session state exposed in dev mode.
func debugStateJSON(phone string, sess *models.Session) string {
	state := map[string]any{
		"phone":            phone,
		"name":             sess.Name,
		"address":          sess.Address,
		"order_address":    sess.OrderAddress,
		"cart":             sess.Cart,
		"delivery":         sess.Delivery,
		"pending_address":  sess.PendingAddressChange,
		"waiting_for_name": sess.WaitingForName,
		"waiting_for_addr": sess.WaitingForAddress,
		"has_welcomed":     sess.HasWelcomed,
		"history_turns":    len(sess.History),
	}
	b, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// FormatConfirmation renders the canonical order confirmation message.
func FormatConfirmation(order *models.Order) string {
	var b strings.Builder
	b.WriteString("✅ *¡Pedido confirmado!* 🎉\n\n")
	b.WriteString(fmt.Sprintf("📋 Pedido: *%s*\n", order.Code))
	for _, item := range order.Items {
		b.WriteString(fmt.Sprintf("• %dx %s (S/ %.2f)\n", item.Quantity, item.Name, item.UnitPrice*float64(item.Quantity)))
	}
	b.WriteString(fmt.Sprintf("🛵 Delivery: S/ %.2f\n", order.DeliveryCost))
	b.WriteString(fmt.Sprintf("💰 Total: *S/ %.2f*\n", order.Total))
	if order.Address != "" {
		b.WriteString(fmt.Sprintf("📍 %s\n", order.Address))
	}
	name := order.CustomerName
	if name == "" {
		name = "vecino"
	}
	b.WriteString(fmt.Sprintf("\n¡Gracias %s! Tu pedido llega en 30-45 min aprox 🍕", name))
	return b.String()
}
