package models

const (
	OrderStatusPending        = "pending"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusPreparing      = "preparing"
	OrderStatusReady          = "ready"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
	OrderStatusExpired        = "expired"
)

// OrderStatusLabel maps an order status to the Spanish text shown to
// customers when they ask about their last order.
func OrderStatusLabel(status string) string {
	switch status {
	case OrderStatusPending:
		return "🕐 Pendiente de confirmación"
	case OrderStatusConfirmed:
		return "✅ Confirmado (En cola)"
	case OrderStatusPreparing:
		return "🔥 En el horno"
	case OrderStatusReady:
		return "🥡 Listo para enviar"
	case OrderStatusOutForDelivery:
		return "🛵 En camino"
	case OrderStatusDelivered:
		return "🏠 Entregado"
	case OrderStatusCancelled:
		return "❌ Cancelado"
	case OrderStatusExpired:
		return "⌛ Expirado"
	default:
		return status
	}
}
