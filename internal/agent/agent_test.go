package agent

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sanmarzano/orderbot/internal/llm"
	"github.com/sanmarzano/orderbot/internal/menu"
	"github.com/sanmarzano/orderbot/internal/models"
	"github.com/sanmarzano/orderbot/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	mu      sync.Mutex
	results []*llm.TurnResult
	calls   int
}

func (s *scriptedClient) SendTurn(context.Context, llm.TurnRequest) (*llm.TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.results) == 0 {
		return &llm.TurnResult{Text: "listo"}, nil
	}
	res := s.results[0]
	s.results = s.results[1:]
	return res, nil
}

func (s *scriptedClient) Name() string { return "scripted" }

func toolCall(id, name string, args map[string]any) llm.ToolCall {
	raw, _ := json.Marshal(args)
	return llm.ToolCall{ID: id, Name: name, Arguments: raw}
}

type memSessions struct {
	mu   sync.Mutex
	data map[string]*models.Session
}

func (m *memSessions) Get(_ context.Context, phone string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[phone], nil
}

func (m *memSessions) Save(_ context.Context, phone string, sess *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[phone] = sess
	return nil
}

func (m *memSessions) Delete(_ context.Context, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, phone)
	return nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.Customer
}

func (m *memUsers) Upsert(_ context.Context, c *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[c.PhoneNumber] = c
	return nil
}

func (m *memUsers) GetByPhone(_ context.Context, phone string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[phone], nil
}

type memOrders struct {
	mu        sync.Mutex
	created   []*models.OrderInput
	cancelled []string
	restocked []string
	last      *models.Order
}

func (m *memOrders) Create(_ context.Context, input *models.OrderInput) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, input)
	order := &models.Order{
		ID:           "ord_test",
		Code:         "310826sm01",
		PhoneNumber:  input.PhoneNumber,
		CustomerName: input.CustomerName,
		Address:      input.Address,
		Items:        input.Items,
		DeliveryCost: input.DeliveryCost,
		Total:        input.Total,
		Status:       input.Status,
		CreatedAt:    time.Now(),
	}
	m.last = order
	return order, nil
}

func (m *memOrders) LastByPhone(_ context.Context, _ string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, nil
}

func (m *memOrders) Cancel(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, orderID)
	if m.last != nil && m.last.ID == orderID {
		m.last.Status = models.OrderStatusCancelled
	}
	return nil
}

func (m *memOrders) RestoreStock(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restocked = append(m.restocked, orderID)
	return nil
}

func (m *memOrders) ExpireStale(context.Context, time.Duration) (int64, error) { return 0, nil }

func agentFixture(client llm.Client) (*Agent, *memOrders, *memSessions) {
	cache := menu.NewCache(nil, time.Minute)
	cache.SetForTest([]models.MenuItem{
		{
			ID:       "pizza_pepperoni",
			Name:     "Pizza Pepperoni",
			Category: models.CategoryPizza,
			Prices:   map[string]float64{"grande": 28, "familiar": 35},
			IsActive: true,
		},
		{
			ID:       "lasagna_alfredo",
			Name:     "Lasagna Alfredo",
			Category: models.CategoryLasagna,
			Keywords: []string{"lasaña", "alfredo"},
			Prices:   map[string]float64{"solo": 21},
			IsActive: true,
		},
	})

	sessions := &memSessions{data: map[string]*models.Session{}}
	users := &memUsers{users: map[string]*models.Customer{}}
	store := session.NewStore(sessions, users, models.Location{Lat: -12.0464, Lng: -77.0428}, 1.5, 3.0, 6*time.Hour)
	orders := &memOrders{}
	return New(client, store, cache, orders, users, nil, 30), orders, sessions
}

func TestAddToCartNeedsSizePausesTurn(t *testing.T) {
	client := &scriptedClient{results: []*llm.TurnResult{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "add_to_cart", map[string]any{"item_id": "pizza_pepperoni"})}},
	}}
	ag, _, _ := agentFixture(client)
	sess := models.NewSession()

	result, err := ag.ProcessMessage(context.Background(), "51999888777", "una de pepperoni", sess)
	require.NoError(t, err)

	require.NotNil(t, result.SizePrompt)
	assert.Equal(t, "pizza_pepperoni", result.SizePrompt.Item.ID)
	assert.Empty(t, sess.Cart)
	require.NotNil(t, sess.PendingSize)
	assert.Equal(t, "pizza_pepperoni", sess.PendingSize.ItemID)
}

func TestAddToCartWithSize(t *testing.T) {
	client := &scriptedClient{results: []*llm.TurnResult{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "add_to_cart", map[string]any{"item_id": "pizza_pepperoni", "size": "familiar", "quantity": 2})}},
		{Text: "¡Agregado! ¿Algo más?"},
	}}
	ag, _, _ := agentFixture(client)
	sess := models.NewSession()

	result, err := ag.ProcessMessage(context.Background(), "51999888777", "dos familiares de pepperoni", sess)
	require.NoError(t, err)

	assert.True(t, result.CartUpdated)
	require.Len(t, sess.Cart, 1)
	assert.Equal(t, 2, sess.Cart[0].Quantity)
	assert.Equal(t, 35.0, sess.Cart[0].UnitPrice)
	assert.Contains(t, result.Replies, "¡Agregado! ¿Algo más?")
}

func TestConfirmOrderRequiresCustomerData(t *testing.T) {
	client := &scriptedClient{results: []*llm.TurnResult{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "confirm_order", map[string]any{})}},
		{Text: "Me falta tu nombre y dirección 📍"},
	}}
	ag, orders, _ := agentFixture(client)
	sess := models.NewSession()
	sess.AddItem(models.CartItem{ID: "lasagna_alfredo", ProductID: "lasagna_alfredo", Name: "Lasagna Alfredo", UnitPrice: 21, Quantity: 1})

	result, err := ag.ProcessMessage(context.Background(), "51999888777", "confirmar", sess)
	require.NoError(t, err)

	assert.Empty(t, orders.created)
	assert.False(t, result.SessionReset)
	assert.Contains(t, result.Replies, "Me falta tu nombre y dirección 📍")
}

func TestConfirmOrderCreatesAndResets(t *testing.T) {
	client := &scriptedClient{results: []*llm.TurnResult{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "confirm_order", map[string]any{})}},
	}}
	ag, orders, sessions := agentFixture(client)

	phone := "51999888777"
	sess := models.NewSession()
	sess.Name = "Ana"
	sess.OrderAddress = "Jr. Lima 123"
	sess.Delivery = &models.DeliveryQuote{Location: models.Location{Lat: -12.05, Lng: -77.05}, DistanceKm: 2.0, Cost: 3.5}
	sess.AddItem(models.CartItem{ID: "lasagna_alfredo", ProductID: "lasagna_alfredo", Name: "Lasagna Alfredo", UnitPrice: 21, Quantity: 2})

	result, err := ag.ProcessMessage(context.Background(), phone, "confirmar", sess)
	require.NoError(t, err)

	require.Len(t, orders.created, 1)
	created := orders.created[0]
	assert.Equal(t, "Ana", created.CustomerName)
	assert.Equal(t, "Jr. Lima 123", created.Address)
	assert.Equal(t, models.OrderStatusConfirmed, created.Status)
	assert.Equal(t, 45.5, created.Total) // 2x21 + 3.5 delivery

	assert.True(t, result.SessionReset)
	require.NotEmpty(t, result.Replies)
	assert.Contains(t, result.Replies[len(result.Replies)-1], "¡Pedido confirmado!")

	// The stored session was reset, not persisted with the old cart.
	stored := sessions.data[phone]
	require.NotNil(t, stored)
	assert.Empty(t, stored.Cart)
}

func TestToolRoundCapFallsBack(t *testing.T) {
	loop := make([]*llm.TurnResult, 0, maxToolRounds+1)
	for i := 0; i <= maxToolRounds; i++ {
		loop = append(loop, &llm.TurnResult{
			ToolCalls: []llm.ToolCall{toolCall("c", "search_menu", map[string]any{"query": "pizza"})},
		})
	}
	client := &scriptedClient{results: loop}
	ag, _, _ := agentFixture(client)
	sess := models.NewSession()

	result, err := ag.ProcessMessage(context.Background(), "51999888777", "a ver", sess)
	require.NoError(t, err)
	assert.True(t, result.NeedsFallback)
	assert.Equal(t, maxToolRounds, client.calls)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	client := &scriptedClient{results: []*llm.TurnResult{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "cancel_order", map[string]any{})}},
		{Text: "Listo, tu pedido 310826sm01 quedó cancelado ✅"},
	}}
	ag, orders, _ := agentFixture(client)
	orders.last = &models.Order{
		ID: "ord_test", Code: "310826sm01", PhoneNumber: "51999888777",
		Status: models.OrderStatusConfirmed, Total: 45.5, CreatedAt: time.Now(),
	}
	sess := models.NewSession()

	result, err := ag.ProcessMessage(context.Background(), "51999888777", "cancela mi pedido porfa", sess)
	require.NoError(t, err)

	assert.Equal(t, []string{"ord_test"}, orders.cancelled)
	assert.Equal(t, []string{"ord_test"}, orders.restocked)
	assert.Contains(t, result.Replies, "Listo, tu pedido 310826sm01 quedó cancelado ✅")
}

func TestCancelOrderAlreadyInKitchen(t *testing.T) {
	client := &scriptedClient{results: []*llm.TurnResult{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "cancel_order", map[string]any{})}},
		{Text: "Tu pedido ya está en el horno, no se puede anular 😔"},
	}}
	ag, orders, _ := agentFixture(client)
	orders.last = &models.Order{
		ID: "ord_test", Code: "310826sm01", PhoneNumber: "51999888777",
		Status: models.OrderStatusPreparing, Total: 45.5, CreatedAt: time.Now(),
	}
	sess := models.NewSession()

	result, err := ag.ProcessMessage(context.Background(), "51999888777", "ya no quiero el pedido", sess)
	require.NoError(t, err)

	assert.Empty(t, orders.cancelled)
	assert.Empty(t, orders.restocked)
	require.NotEmpty(t, result.Replies)
}

func TestCheckOrderStatus(t *testing.T) {
	client := &scriptedClient{results: []*llm.TurnResult{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "check_order_status", map[string]any{})}},
		{Text: "Tu pedido 310826sm01 está en el horno 🔥"},
	}}
	ag, orders, _ := agentFixture(client)
	orders.last = &models.Order{
		ID: "ord_test", Code: "310826sm01", PhoneNumber: "51999888777",
		Status: models.OrderStatusPreparing, Total: 45.5, CreatedAt: time.Now(),
	}
	sess := models.NewSession()

	result, err := ag.ProcessMessage(context.Background(), "51999888777", "cómo va mi pedido?", sess)
	require.NoError(t, err)
	assert.Contains(t, result.Replies, "Tu pedido 310826sm01 está en el horno 🔥")
}
