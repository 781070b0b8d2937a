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
)

func toolPayload(v map[string]any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"status":"error","error":"payload encoding failed"}`
	}
	return string(b)
}

// executeTool runs one tool call, mutating the session and result flags,
// and returns the JSON payload handed back to the model.
func (a *Agent) executeTool(ctx context.Context, phone string, sess *models.Session, call llm.ToolCall, result *Result) string {
	payload, err := a.runTool(ctx, phone, sess, call, result)
	if err != nil {
		log.Printf("agent: tool %s failed for %s: %v", call.Name, phone, err)
		return toolPayload(map[string]any{"status": "error", "error": err.Error()})
	}
	return payload
}

func (a *Agent) runTool(ctx context.Context, phone string, sess *models.Session, call llm.ToolCall, result *Result) (string, error) {
	switch call.Name {
	case "search_menu":
		var args searchMenuArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return "", err
		}
		return a.searchMenu(ctx, args)

	case "get_menu":
		result.ShowMenu = true
		result.StopAfterTools = true
		return toolPayload(map[string]any{"status": "shown", "detail": "menú enviado como lista interactiva"}), nil

	case "get_menu_items":
		var args menuItemsArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return "", err
		}
		if args.CategoryID == "" {
			return "", fmt.Errorf("category_id is required")
		}
		result.ShowCategory = args.CategoryID
		result.StopAfterTools = true
		return toolPayload(map[string]any{"status": "shown", "category": args.CategoryID}), nil

	case "show_cart":
		result.ShowCart = true
		result.StopAfterTools = true
		return toolPayload(map[string]any{"status": "shown", "items": len(sess.Cart)}), nil

	case "add_to_cart":
		var args addToCartArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return "", err
		}
		if err := args.validate(); err != nil {
			return "", err
		}
		return a.addToCart(ctx, sess, args, result)

	case "add_mixed_pizza":
		var args mixedPizzaArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return "", err
		}
		if err := args.validate(); err != nil {
			return "", err
		}
		return a.addMixedPizza(ctx, sess, args, result)

	case "remove_from_cart":
		var args removeFromCartArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return "", err
		}
		if err := args.validate(); err != nil {
			return "", err
		}
		return a.removeFromCart(sess, args, result)

	case "set_delivery_details":
		var args deliveryDetailsArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return "", err
		}
		if err := args.validate(); err != nil {
			return "", err
		}
		return a.setDeliveryDetails(sess, args, result)

	case "start_checkout":
		if len(sess.Cart) == 0 {
			return toolPayload(map[string]any{"status": "error", "error": "el carrito está vacío"}), nil
		}
		result.ShowCheckout = true
		result.StopAfterTools = true
		return toolPayload(map[string]any{"status": "shown"}), nil

	case "confirm_order":
		return a.confirmOrder(ctx, phone, sess, result)

	case "check_order_status":
		return a.checkOrderStatus(ctx, phone)

	case "cancel_order":
		return a.cancelOrder(ctx, phone)

	default:
		return "", fmt.Errorf("unknown tool %q", call.Name)
	}
}

func (a *Agent) searchMenu(ctx context.Context, args searchMenuArgs) (string, error) {
	items, err := a.menu.Items(ctx)
	if err != nil {
		return "", err
	}
	results := menu.Search(items, menu.SearchCriteria{
		Query:      args.Query,
		Category:   args.Category,
		Exclusions: args.Exclude,
	})
	if len(results) > 12 {
		results = results[:12]
	}
	return toolPayload(map[string]any{"status": "ok", "results": results}), nil
}

func (a *Agent) resolveItem(ctx context.Context, ref string) (*models.MenuItem, error) {
	item, err := a.menu.ItemByID(ctx, ref)
	if err != nil || item != nil {
		return item, err
	}
	items, err := a.menu.Items(ctx)
	if err != nil {
		return nil, err
	}
	if m := menu.FindProductMatch(ref, items); m != nil {
		found := m.Item
		return &found, nil
	}
	return nil, nil
}

func (a *Agent) addToCart(ctx context.Context, sess *models.Session, args addToCartArgs, result *Result) (string, error) {
	item, err := a.resolveItem(ctx, args.ItemID)
	if err != nil {
		return "", err
	}
	if item == nil {
		return toolPayload(map[string]any{"status": "not_found", "detail": "producto no encontrado, usa search_menu"}), nil
	}

	size := strings.ToLower(strings.TrimSpace(args.Size))
	if size != "" {
		if _, ok := item.Prices[size]; !ok {
			// "medio litro" and friends map back to a real size key.
			size = menu.DetectSize(size, item.SizeKeys())
		}
	}
	if size == "" && item.NeedsSize() {
		sess.PendingSize = &models.PendingSize{ItemID: item.ID, Quantity: args.Quantity}
		result.SizePrompt = &SizePrompt{Item: *item, Quantity: args.Quantity}
		result.CartUpdated = false
		return toolPayload(map[string]any{"status": "need_size", "sizes": item.SizeKeys()}), nil
	}

	price, ok := item.PriceFor(size)
	if !ok {
		return toolPayload(map[string]any{"status": "need_size", "sizes": item.SizeKeys()}), nil
	}

	lineID := item.ID
	name := item.Name
	if size != "" {
		lineID = item.ID + "_" + size
		name = fmt.Sprintf("%s (%s)", item.Name, size)
	}
	sess.AddItem(models.CartItem{
		ID:        lineID,
		ProductID: item.ID,
		Name:      name,
		UnitPrice: price,
		Quantity:  args.Quantity,
	})
	sess.PendingSize = nil
	result.CartUpdated = true
	return toolPayload(map[string]any{
		"status": "added",
		"item":   name,
		"qty":    args.Quantity,
		"total":  sess.CartTotal(),
	}), nil
}

func (a *Agent) addMixedPizza(ctx context.Context, sess *models.Session, args mixedPizzaArgs, result *Result) (string, error) {
	pizzas, err := a.menu.ItemsByCategory(ctx, models.CategoryPizza)
	if err != nil {
		return "", err
	}

	flavorA := menu.FindProductMatch(args.FlavorA, pizzas)
	flavorB := menu.FindProductMatch(args.FlavorB, pizzas)
	if flavorA == nil || flavorB == nil {
		return toolPayload(map[string]any{"status": "not_found", "detail": "algún sabor no existe en el menú"}), nil
	}

	priceA, okA := flavorA.Item.Prices[args.Size]
	priceB, okB := flavorB.Item.Prices[args.Size]
	if !okA || !okB {
		return toolPayload(map[string]any{"status": "need_size", "sizes": flavorA.Item.SizeKeys()}), nil
	}
	price := priceA
	if priceB > price {
		price = priceB
	}

	sess.AddItem(models.CartItem{
		ID:        fmt.Sprintf("mixed_%s_%s_%s", flavorA.Item.ID, flavorB.Item.ID, args.Size),
		Name:      fmt.Sprintf("Pizza Mixta (%s / %s) (%s)", flavorA.Item.Name, flavorB.Item.Name, args.Size),
		UnitPrice: price,
		Quantity:  args.Quantity,
	})
	result.CartUpdated = true
	return toolPayload(map[string]any{"status": "added", "price": price, "total": sess.CartTotal()}), nil
}

func (a *Agent) removeFromCart(sess *models.Session, args removeFromCartArgs, result *Result) (string, error) {
	ref := strings.ToLower(strings.TrimSpace(args.ItemID))
	if sess.RemoveItem(ref) {
		result.CartUpdated = true
		return toolPayload(map[string]any{"status": "removed", "total": sess.CartTotal()}), nil
	}
	if hit := menu.MatchCartItem(sess.Cart, ref); hit != nil {
		sess.RemoveItem(hit.ID)
		result.CartUpdated = true
		return toolPayload(map[string]any{"status": "removed", "item": hit.Name, "total": sess.CartTotal()}), nil
	}
	return toolPayload(map[string]any{"status": "not_found", "detail": "esa línea no está en el carrito"}), nil
}

func (a *Agent) setDeliveryDetails(sess *models.Session, args deliveryDetailsArgs, result *Result) (string, error) {
	if name := strings.TrimSpace(args.Name); name != "" {
		sess.Name = name
		sess.WaitingForName = false
	}

	if address := strings.TrimSpace(args.Address); address != "" {
		if pending := sess.PendingAddressChange; pending != nil && pending.Location != nil {
			// The location half already arrived; the dictated text
			// completes the change.
			pending.AddressText = address
			pending.AwaitingChoice = false
			sess.OrderAddress = address
			sess.Delivery = &models.DeliveryQuote{
				Location:   *pending.Location,
				DistanceKm: pending.DistanceKm,
				Cost:       pending.Cost,
			}
			sess.PendingAddressChange = nil
			result.DeliveryUpdated = true
		} else {
			sess.OrderAddress = address
			sess.PendingAddressChange = &models.PendingAddressChange{
				AddressText: address,
				RequestedAt: time.Now(),
			}
		}
		sess.WaitingForAddress = false
	}

	return toolPayload(map[string]any{
		"status":         "ok",
		"name":           sess.Name,
		"address":        sess.FinalAddress(),
		"needs_location": sess.PendingAddressChange != nil && sess.PendingAddressChange.Location == nil,
	}), nil
}

// confirmOrder enforces the precondition ladder in a fixed order so the
// customer is always asked for the most fundamental missing piece first:
// address change in flight, then identity, then delivery quote, then cart.
func (a *Agent) confirmOrder(ctx context.Context, phone string, sess *models.Session, result *Result) (string, error) {
	if pending := sess.PendingAddressChange; pending != nil && !pending.Complete() {
		return toolPayload(map[string]any{
			"status": "pending_address",
			"detail": "hay un cambio de dirección incompleto: pide el texto de la dirección o la ubicación que falta",
		}), nil
	}
	if sess.Name == "" || sess.FinalAddress() == "" {
		return toolPayload(map[string]any{
			"status": "pending_data",
			"detail": "falta nombre o dirección del cliente",
		}), nil
	}
	if sess.Delivery == nil || sess.Delivery.Cost <= 0 {
		return toolPayload(map[string]any{
			"status": "pending_delivery",
			"detail": "aún no hay costo de delivery: pide la ubicación de WhatsApp o un enlace de Google Maps",
		}), nil
	}
	if len(sess.Cart) == 0 {
		return toolPayload(map[string]any{"status": "error", "error": "el carrito está vacío"}), nil
	}

	address := sess.FinalAddress()
	meta := models.AddressMeta{Text: address, Location: &sess.Delivery.Location}
	customer := &models.Customer{
		PhoneNumber: phone,
		Name:        sess.Name,
		Address:     meta.Encode(),
	}
	if err := a.users.Upsert(ctx, customer); err != nil {
		return "", fmt.Errorf("upserting customer: %w", err)
	}

	items := make([]models.OrderItem, 0, len(sess.Cart))
	for _, line := range sess.Cart {
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	order, err := a.orders.Create(ctx, &models.OrderInput{
		PhoneNumber:  phone,
		CustomerName: sess.Name,
		Address:      address,
		Items:        items,
		DeliveryCost: sess.Delivery.Cost,
		Total:        sess.CartTotal() + sess.Delivery.Cost,
		Status:       models.OrderStatusConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("creating order: %w", err)
	}

	if err := a.notifier.PublishOrderEvent(ctx, notify.OrderEvent{
		Type:        notify.EventOrderConfirmed,
		OrderID:     order.ID,
		OrderCode:   order.Code,
		PhoneNumber: phone,
		Total:       order.Total,
		Status:      order.Status,
		Timestamp:   order.CreatedAt,
	}); err != nil {
		log.Printf("agent: publishing order event for %s: %v", order.ID, err)
	}

	if _, err := a.store.Reset(ctx, phone); err != nil {
		log.Printf("agent: resetting session for %s: %v", phone, err)
	}

	result.Replies = append(result.Replies, FormatConfirmation(order))
	result.StopChat = true
	result.SessionReset = true
	return toolPayload(map[string]any{"status": "confirmed", "code": order.Code, "total": order.Total}), nil
}

// cancelOrder closes the customer's last order while it is still open. The
// stock restore and the event publish are best effort: a failure there must
// not undo a cancellation the customer already asked for.
func (a *Agent) cancelOrder(ctx context.Context, phone string) (string, error) {
	order, err := a.orders.LastByPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	if order == nil {
		return toolPayload(map[string]any{"status": "none", "detail": "el cliente no tiene pedidos registrados"}), nil
	}
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusConfirmed {
		return toolPayload(map[string]any{
			"status":       "not_cancellable",
			"order_status": order.Status,
			"label":        models.OrderStatusLabel(order.Status),
			"detail":       "el pedido ya entró a cocina o terminó",
		}), nil
	}

	if err := a.orders.Cancel(ctx, order.ID); err != nil {
		return "", fmt.Errorf("cancelling order %s: %w", order.ID, err)
	}
	if err := a.orders.RestoreStock(ctx, order.ID); err != nil {
		log.Printf("agent: restoring stock for %s: %v", order.ID, err)
	}
	if err := a.notifier.PublishOrderEvent(ctx, notify.OrderEvent{
		Type:        notify.EventOrderCancelled,
		OrderID:     order.ID,
		OrderCode:   order.Code,
		PhoneNumber: phone,
		Total:       order.Total,
		Status:      models.OrderStatusCancelled,
		Timestamp:   order.CreatedAt,
	}); err != nil {
		log.Printf("agent: publishing cancel event for %s: %v", order.ID, err)
	}

	return toolPayload(map[string]any{"status": "cancelled", "code": order.Code}), nil
}

func (a *Agent) checkOrderStatus(ctx context.Context, phone string) (string, error) {
	if _, err := a.orders.ExpireStale(ctx, staleOrderWindow); err != nil {
		log.Printf("agent: expiring stale orders: %v", err)
	}

	order, err := a.orders.LastByPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	if order == nil {
		return toolPayload(map[string]any{"status": "none", "detail": "el cliente no tiene pedidos registrados"}), nil
	}
	return toolPayload(map[string]any{
		"status":       "ok",
		"code":         order.Code,
		"order_status": order.Status,
		"label":        models.OrderStatusLabel(order.Status),
		"total":        order.Total,
		"created_at":   order.CreatedAt.Format(time.RFC3339),
	}), nil
}
