package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sanmarzano/orderbot/internal/llm"
)

// Tool argument payloads are decoded into typed structs and validated
// before any tool body runs, so malformed model output is rejected at the
// boundary instead of deep inside cart or order code.

type searchMenuArgs struct {
	Query    string   `json:"query"`
	Category string   `json:"category"`
	Exclude  []string `json:"exclude"`
}

type menuItemsArgs struct {
	CategoryID string `json:"category_id"`
}

type addToCartArgs struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size"`
}

func (a *addToCartArgs) validate() error {
	if strings.TrimSpace(a.ItemID) == "" {
		return fmt.Errorf("item_id is required")
	}
	if a.Quantity < 0 || a.Quantity > 50 {
		return fmt.Errorf("quantity %d out of range", a.Quantity)
	}
	if a.Quantity == 0 {
		a.Quantity = 1
	}
	return nil
}

type mixedPizzaArgs struct {
	FlavorA  string `json:"flavor_a"`
	FlavorB  string `json:"flavor_b"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

func (a *mixedPizzaArgs) validate() error {
	if strings.TrimSpace(a.FlavorA) == "" || strings.TrimSpace(a.FlavorB) == "" {
		return fmt.Errorf("both flavors are required")
	}
	size := strings.ToLower(strings.TrimSpace(a.Size))
	if size != "grande" && size != "familiar" {
		return fmt.Errorf("size must be grande or familiar")
	}
	a.Size = size
	if a.Quantity < 0 || a.Quantity > 50 {
		return fmt.Errorf("quantity %d out of range", a.Quantity)
	}
	if a.Quantity == 0 {
		a.Quantity = 1
	}
	return nil
}

type removeFromCartArgs struct {
	ItemID string `json:"item_id"`
}

func (a *removeFromCartArgs) validate() error {
	if strings.TrimSpace(a.ItemID) == "" {
		return fmt.Errorf("item_id is required")
	}
	return nil
}

type deliveryDetailsArgs struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (a *deliveryDetailsArgs) validate() error {
	if strings.TrimSpace(a.Name) == "" && strings.TrimSpace(a.Address) == "" {
		return fmt.Errorf("name or address is required")
	}
	return nil
}

// decodeArgs tolerates unknown fields but rejects malformed JSON and type
// mismatches.
func decodeArgs[T any](raw json.RawMessage, out *T) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

// toolDeclarations advertises the callable tools to the model. The size
// and category enums come from the live menu so the model cannot pick
// values the database does not have.
func toolDeclarations(categories []string) []llm.Tool {
	return []llm.Tool{
		{
			Name:        "search_menu",
			Description: "Busca productos del menú por texto libre, categoría o exclusiones (p.ej. sin piña). Devuelve id, nombre y precios reales.",
			Parameters: &llm.Schema{
				Type: "object",
				Properties: map[string]*llm.Schema{
					"query":    {Type: "string", Description: "Texto del cliente, p.ej. 'lasaña alfredo'"},
					"category": {Type: "string", Enum: categories, Description: "Filtra por categoría"},
					"exclude":  {Type: "array", Items: &llm.Schema{Type: "string"}, Description: "Ingredientes o palabras a excluir"},
				},
			},
		},
		{
			Name:        "get_menu",
			Description: "Muestra al cliente el menú completo como lista interactiva. Úsalo cuando pidan ver el menú.",
			Parameters:  &llm.Schema{Type: "object"},
		},
		{
			Name:        "get_menu_items",
			Description: "Muestra al cliente los productos de una categoría como lista interactiva.",
			Parameters: &llm.Schema{
				Type: "object",
				Properties: map[string]*llm.Schema{
					"category_id": {Type: "string", Enum: categories},
				},
				Required: []string{"category_id"},
			},
		},
		{
			Name:        "show_cart",
			Description: "Muestra al cliente su carrito actual con totales.",
			Parameters:  &llm.Schema{Type: "object"},
		},
		{
			Name:        "add_to_cart",
			Description: "Agrega un producto al carrito. Para pizzas y bebidas con varios tamaños, size es obligatorio.",
			Parameters: &llm.Schema{
				Type: "object",
				Properties: map[string]*llm.Schema{
					"item_id":  {Type: "string", Description: "Id exacto devuelto por search_menu"},
					"quantity": {Type: "integer"},
					"size":     {Type: "string", Description: "Tamaño, p.ej. grande, familiar, 500ml"},
				},
				Required: []string{"item_id"},
			},
		},
		{
			Name:        "add_mixed_pizza",
			Description: "Agrega una pizza mitad y mitad. Se cobra el precio del sabor más caro.",
			Parameters: &llm.Schema{
				Type: "object",
				Properties: map[string]*llm.Schema{
					"flavor_a": {Type: "string", Description: "Nombre del primer sabor"},
					"flavor_b": {Type: "string", Description: "Nombre del segundo sabor"},
					"size":     {Type: "string", Enum: []string{"grande", "familiar"}},
					"quantity": {Type: "integer"},
				},
				Required: []string{"flavor_a", "flavor_b", "size"},
			},
		},
		{
			Name:        "remove_from_cart",
			Description: "Quita una línea del carrito por su id o por referencia textual del cliente.",
			Parameters: &llm.Schema{
				Type: "object",
				Properties: map[string]*llm.Schema{
					"item_id": {Type: "string"},
				},
				Required: []string{"item_id"},
			},
		},
		{
			Name:        "set_delivery_details",
			Description: "Registra el nombre del cliente y/o la dirección de entrega que dictó en el chat.",
			Parameters: &llm.Schema{
				Type: "object",
				Properties: map[string]*llm.Schema{
					"name":    {Type: "string"},
					"address": {Type: "string"},
				},
			},
		},
		{
			Name:        "start_checkout",
			Description: "Muestra el resumen de compra para que el cliente revise antes de confirmar.",
			Parameters:  &llm.Schema{Type: "object"},
		},
		{
			Name:        "confirm_order",
			Description: "Confirma y registra el pedido. Solo cuando el cliente ya aceptó el total con delivery.",
			Parameters:  &llm.Schema{Type: "object"},
		},
		{
			Name:        "check_order_status",
			Description: "Consulta el estado del último pedido del cliente.",
			Parameters:  &llm.Schema{Type: "object"},
		},
		{
			Name:        "cancel_order",
			Description: "Cancela el último pedido del cliente si aún no entró a cocina. Solo cuando el cliente lo pide explícitamente.",
			Parameters:  &llm.Schema{Type: "object"},
		},
	}
}
