package models

import "time"

// OrderItem is a persisted order line. ProductID carries the size-qualified
// cart id (e.g. "pizza_pepperoni_familiar") so kitchen staff see the size.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// OrderInput is everything needed to persist a confirmed order.
type OrderInput struct {
	PhoneNumber  string
	CustomerName string
	Address      string
	Items        []OrderItem
	DeliveryCost float64
	Total        float64
	Status       string
	Notes        string
}

// Order is a persisted order as read back from storage.
type Order struct {
	ID           string      `json:"id"`
	Code         string      `json:"code"`
	PhoneNumber  string      `json:"phone_number"`
	CustomerName string      `json:"customer_name"`
	Address      string      `json:"address"`
	Items        []OrderItem `json:"items"`
	DeliveryCost float64     `json:"delivery_cost"`
	Total        float64     `json:"total"`
	Status       string      `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
}
