package bot

import (
	"fmt"
	"strings"

	"github.com/sanmarzano/orderbot/internal/models"
	"github.com/sanmarzano/orderbot/internal/whatsapp"
)

// Graph API interactive list limits.
const (
	itemsPerPage = 9
	titleMax     = 24
	descMax      = 70
)

// FormatPEN renders an amount in Peruvian soles.
func FormatPEN(amount float64) string {
	return fmt.Sprintf("S/ %.2f", amount)
}

// truncateTitle fits a product name into the 24-char row title, returning
// the overflow so it can be prepended to the description.
func truncateTitle(s string) (string, string) {
	runes := []rune(s)
	if len(runes) <= titleMax {
		return s, ""
	}
	return string(runes[:titleMax-1]) + "…", s
}

func truncateDesc(s string) string {
	runes := []rune(s)
	if len(runes) <= descMax {
		return s
	}
	return string(runes[:descMax-3]) + "..."
}

func rowDescription(item models.MenuItem, priceText, overflow string) string {
	parts := make([]string, 0, 3)
	if overflow != "" {
		parts = append(parts, overflow)
	} else if item.Description != "" {
		parts = append(parts, item.Description)
	}
	if priceText != "" {
		parts = append(parts, priceText)
	}
	return truncateDesc(strings.Join(parts, " · "))
}

// BuildCategoryRows renders one page of a category as list rows. Items
// with one price become direct add rows; multi-priced drinks expand into a
// row per size; pizzas stay one row and the size is asked via buttons
// after the tap. The last row links to the next page when one exists.
func BuildCategoryRows(category string, items []models.MenuItem, page int) []whatsapp.ListRow {
	start := page * itemsPerPage
	if start >= len(items) {
		return nil
	}
	end := start + itemsPerPage
	hasMore := end < len(items)
	if !hasMore {
		end = len(items)
	}

	var rows []whatsapp.ListRow
	for _, item := range items[start:end] {
		sizes := item.SizeKeys()
		if item.Category == models.CategoryDrink && len(sizes) > 1 {
			for _, size := range sizes {
				title, overflow := truncateTitle(fmt.Sprintf("%s %s", item.Name, size))
				rows = append(rows, whatsapp.ListRow{
					ID:          fmt.Sprintf("prod_%s__%s", item.ID, size),
					Title:       title,
					Description: rowDescription(item, FormatPEN(item.Prices[size]), overflow),
				})
			}
			continue
		}

		title, overflow := truncateTitle(item.Name)
		var priceText string
		if price, ok := item.PriceFor(""); ok {
			priceText = FormatPEN(price)
		} else if len(sizes) > 0 {
			pairs := make([]string, 0, len(sizes))
			for _, size := range sizes {
				pairs = append(pairs, fmt.Sprintf("%s %s", size, FormatPEN(item.Prices[size])))
			}
			priceText = strings.Join(pairs, " / ")
		}
		rows = append(rows, whatsapp.ListRow{
			ID:          "prod_" + item.ID,
			Title:       title,
			Description: rowDescription(item, priceText, overflow),
		})
	}

	if hasMore {
		rows = append(rows, whatsapp.ListRow{
			ID:    fmt.Sprintf("cat_%s_%d", category, page+1),
			Title: "➡️ Ver más...",
		})
	}
	return rows
}

// BuildCategoryMenu renders the top-level menu: one row per category.
func BuildCategoryMenu(categories []string) []whatsapp.ListRow {
	rows := make([]whatsapp.ListRow, 0, len(categories))
	for _, cat := range categories {
		title, _ := truncateTitle(models.CategoryLabel(cat))
		rows = append(rows, whatsapp.ListRow{ID: "cat_" + cat, Title: title})
	}
	return rows
}

// FormatCart renders the cart as chat text.
func FormatCart(sess *models.Session) string {
	if len(sess.Cart) == 0 {
		return "Tu carrito está vacío 🛒. Escribe *ver menú* para empezar tu pedido."
	}

	var b strings.Builder
	b.WriteString("🛒 *Tu pedido:*\n")
	for _, item := range sess.Cart {
		b.WriteString(fmt.Sprintf("• %dx %s (%s)\n", item.Quantity, item.Name, FormatPEN(item.UnitPrice*float64(item.Quantity))))
	}
	b.WriteString(fmt.Sprintf("\nSubtotal: %s", FormatPEN(sess.CartTotal())))
	if sess.Delivery != nil {
		b.WriteString(fmt.Sprintf("\nDelivery: %s", FormatPEN(sess.Delivery.Cost)))
		b.WriteString(fmt.Sprintf("\n💰 Total: *%s*", FormatPEN(sess.CartTotal()+sess.Delivery.Cost)))
	}
	return b.String()
}

// FormatCheckoutSummary renders the pre-confirmation review, listing what
// is still missing.
func FormatCheckoutSummary(sess *models.Session) string {
	var b strings.Builder
	b.WriteString(FormatCart(sess))
	b.WriteString("\n")

	if sess.Name == "" {
		b.WriteString("\n✍️ ¿A nombre de quién va el pedido?")
	} else if sess.FinalAddress() == "" {
		b.WriteString("\n📍 ¿A qué dirección lo enviamos? Comparte tu ubicación de WhatsApp o un enlace de Google Maps.")
	} else if sess.Delivery == nil {
		b.WriteString(fmt.Sprintf("\n📍 Dirección: %s\nComparte tu ubicación para calcular el delivery.", sess.FinalAddress()))
	} else {
		b.WriteString(fmt.Sprintf("\n📍 %s\n👤 %s\n\nSi todo está bien, escribe *confirmar* ✅", sess.FinalAddress(), sess.Name))
	}
	return b.String()
}

// FormatDeliveryQuote renders the cost message after a location arrives.
func FormatDeliveryQuote(q models.DeliveryQuote) string {
	return fmt.Sprintf("📍 ¡Ubicación recibida! Estás a %.1f km de la pizzería.\n🛵 Delivery: *%s*", q.DistanceKm, FormatPEN(q.Cost))
}

const welcomeText = `¡Hola! 👋 Bienvenido a *Pizzería San Marzano* 🍕

Soy el asistente del local. Puedo tomarte el pedido por aquí mismo: pide por nombre ("una familiar de pepperoni") o escribe *ver menú* para ver todo.`

// fallbackButtons are offered when a turn produced nothing actionable.
func fallbackButtons() []whatsapp.Button {
	return []whatsapp.Button{
		{ID: "show_menu", Title: "Ver menú"},
		{ID: "show_cart", Title: "Ver carrito"},
		{ID: "go_checkout", Title: "Finalizar compra"},
	}
}

// sizeButtons renders the size choice for an item (3 button limit).
func sizeButtons(item *models.MenuItem) []whatsapp.Button {
	sizes := item.SizeKeys()
	if len(sizes) > 3 {
		sizes = sizes[:3]
	}
	buttons := make([]whatsapp.Button, 0, len(sizes))
	for _, size := range sizes {
		label := titleCase(size)
		title := fmt.Sprintf("%s %s", label, FormatPEN(item.Prices[size]))
		if len([]rune(title)) > 20 {
			title = label
		}
		buttons = append(buttons, whatsapp.Button{
			ID:    fmt.Sprintf("size_%s_%s", size, item.ID),
			Title: title,
		})
	}
	return buttons
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// postAddButtons follow every cart update.
func postAddButtons() []whatsapp.Button {
	return []whatsapp.Button{
		{ID: "continue_shopping", Title: "Seguir comprando"},
		{ID: "go_checkout", Title: "Finalizar compra"},
	}
}
