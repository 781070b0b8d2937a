package models

import (
	"sort"
	"time"
)

const (
	CategoryPizza   = "pizza"
	CategoryLasagna = "lasagna"
	CategoryDrink   = "drink"
	CategoryExtra   = "extra"
)

// MenuItem is a sellable product. Prices maps a size key (e.g. "grande",
// "familiar", "500ml") to its price; single-priced items use the "solo" key.
type MenuItem struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Prices      map[string]float64 `json:"prices"`
	Keywords    []string           `json:"keywords"`
	IsActive    bool               `json:"is_active"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// SizeKeys returns the item's size keys in deterministic order, with the
// "solo" placeholder excluded.
func (m *MenuItem) SizeKeys() []string {
	keys := make([]string, 0, len(m.Prices))
	for k := range m.Prices {
		if k == "solo" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PriceFor resolves the price for a size key. An empty size resolves
// single-priced items; multi-priced items require an explicit size.
func (m *MenuItem) PriceFor(size string) (float64, bool) {
	if size != "" {
		p, ok := m.Prices[size]
		return p, ok
	}
	if p, ok := m.Prices["solo"]; ok {
		return p, true
	}
	if len(m.Prices) == 1 {
		for _, p := range m.Prices {
			return p, true
		}
	}
	return 0, false
}

// NeedsSize reports whether an order line for this item must carry a size.
func (m *MenuItem) NeedsSize() bool {
	if m.Category != CategoryPizza && m.Category != CategoryDrink {
		return false
	}
	return len(m.SizeKeys()) > 0
}

// CategoryLabel maps a category key to its customer-facing Spanish label.
func CategoryLabel(category string) string {
	switch category {
	case CategoryPizza:
		return "Pizzas"
	case CategoryLasagna:
		return "Lasagnas"
	case CategoryDrink:
		return "Bebidas"
	case CategoryExtra:
		return "Adicionales"
	default:
		return category
	}
}
