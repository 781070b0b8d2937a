package models

import "time"

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatTurn is one entry of the rolling conversation history kept on the
// session and replayed to the language model.
type ChatTurn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// CartItem is one line of the in-progress order. ID is the size-qualified
// cart line id; ProductID is the base menu item the line deducts stock for.
type CartItem struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// DeliveryQuote is a priced delivery to a concrete coordinate.
type DeliveryQuote struct {
	Location   Location `json:"location"`
	DistanceKm float64  `json:"distance_km"`
	Cost       float64  `json:"cost"`
}

// PendingAddressChange tracks a two-phase address update: the customer has
// shared a location or typed an address, and we are still collecting the
// missing half (text vs. coordinates) or their choice between candidates.
type PendingAddressChange struct {
	Location       *Location `json:"location,omitempty"`
	DistanceKm     float64   `json:"distance_km"`
	Cost           float64   `json:"cost"`
	AddressText    string    `json:"address_text"`
	SuggestedText  string    `json:"suggested_text"`
	AwaitingChoice bool      `json:"awaiting_choice"`
	RequestedAt    time.Time `json:"requested_at"`
}

// Complete reports whether the change has everything confirmation needs.
func (p *PendingAddressChange) Complete() bool {
	return p != nil && p.AddressText != "" && p.Location != nil && !p.AwaitingChoice
}

// PendingSize tracks an order line waiting on a size choice.
type PendingSize struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// Session is the full per-phone conversation state. It round-trips through
// a JSONB column, so every field must be JSON-serializable.
type Session struct {
	Name                 string                `json:"name,omitempty"`
	Address              string                `json:"address,omitempty"`
	OrderAddress         string                `json:"order_address,omitempty"`
	Cart                 []CartItem            `json:"cart"`
	Delivery             *DeliveryQuote        `json:"delivery,omitempty"`
	PendingAddressChange *PendingAddressChange `json:"pending_address_change,omitempty"`
	PendingSize          *PendingSize          `json:"pending_size,omitempty"`
	History              []ChatTurn            `json:"history"`
	HasWelcomed          bool                  `json:"has_welcomed"`
	WaitingForName       bool                  `json:"waiting_for_name"`
	WaitingForAddress    bool                  `json:"waiting_for_address"`
	DevMode              bool                  `json:"dev_mode,omitempty"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// NewSession returns an empty session with initialized slices.
func NewSession() *Session {
	return &Session{Cart: []CartItem{}, History: []ChatTurn{}}
}

// FinalAddress is the address the current order would ship to: the
// per-order override when set, the profile address otherwise.
func (s *Session) FinalAddress() string {
	if s.OrderAddress != "" {
		return s.OrderAddress
	}
	return s.Address
}

// CartTotal sums the cart lines, delivery excluded.
func (s *Session) CartTotal() float64 {
	var total float64
	for _, it := range s.Cart {
		total += it.UnitPrice * float64(it.Quantity)
	}
	return total
}

// CartCount sums the quantities across cart lines.
func (s *Session) CartCount() int {
	var n int
	for _, it := range s.Cart {
		n += it.Quantity
	}
	return n
}

// AddItem merges an item into the cart by line id.
func (s *Session) AddItem(item CartItem) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	for i := range s.Cart {
		if s.Cart[i].ID == item.ID {
			s.Cart[i].Quantity += item.Quantity
			return
		}
	}
	s.Cart = append(s.Cart, item)
}

// RemoveItem drops the cart line with the given id and reports whether a
// line was removed.
func (s *Session) RemoveItem(lineID string) bool {
	for i := range s.Cart {
		if s.Cart[i].ID == lineID {
			s.Cart = append(s.Cart[:i], s.Cart[i+1:]...)
			return true
		}
	}
	return false
}

// ClearCart empties the cart without touching identity or address state.
func (s *Session) ClearCart() {
	s.Cart = []CartItem{}
}

// AppendHistory adds a turn and trims the history to the most recent limit
// entries.
func (s *Session) AppendHistory(role, content string, at time.Time, limit int) {
	s.History = append(s.History, ChatTurn{Role: role, Content: content, At: at})
	if limit > 0 && len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}
