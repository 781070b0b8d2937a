package session

import (
	"context"
	"testing"
	"time"

	"github.com/sanmarzano/orderbot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSessions struct {
	data map[string]*models.Session
}

func (m *memSessions) Get(ctx context.Context, phone string) (*models.Session, error) {
	return m.data[phone], nil
}

func (m *memSessions) Save(ctx context.Context, phone string, sess *models.Session) error {
	m.data[phone] = sess
	return nil
}

func (m *memSessions) Delete(ctx context.Context, phone string) error {
	delete(m.data, phone)
	return nil
}

type memUsers struct {
	data map[string]*models.Customer
}

func (m *memUsers) Upsert(ctx context.Context, c *models.Customer) error {
	m.data[c.PhoneNumber] = c
	return nil
}

func (m *memUsers) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return m.data[phone], nil
}

func newTestStore() (*Store, *memSessions, *memUsers) {
	sessions := &memSessions{data: map[string]*models.Session{}}
	users := &memUsers{data: map[string]*models.Customer{}}
	origin := models.Location{Lat: -12.0464, Lng: -77.0428}
	return NewStore(sessions, users, origin, 1.5, 3.0, 6*time.Hour), sessions, users
}

func TestGetReturnsFreshSessionForUnknownPhone(t *testing.T) {
	store, _, _ := newTestStore()

	sess, err := store.Get(context.Background(), "51999000111")
	require.NoError(t, err)
	assert.Empty(t, sess.Name)
	assert.Empty(t, sess.Cart)
	assert.False(t, sess.HasWelcomed)
}

func TestGetPersistsFreshSessionImmediately(t *testing.T) {
	store, sessions, _ := newTestStore()

	sess, err := store.Get(context.Background(), "51999000111")
	require.NoError(t, err)

	// A concurrent duplicate webhook must find the row already stored.
	stored := sessions.data["51999000111"]
	require.NotNil(t, stored)
	assert.Same(t, sess, stored)
	assert.False(t, stored.UpdatedAt.IsZero())
}

func TestDropRemovesStoredSession(t *testing.T) {
	store, sessions, _ := newTestStore()
	live := models.NewSession()
	live.UpdatedAt = time.Now()
	sessions.data["51999000111"] = live

	require.NoError(t, store.Drop(context.Background(), "51999000111"))
	assert.NotContains(t, sessions.data, "51999000111")
}

func TestGetPrefillsReturningCustomer(t *testing.T) {
	store, _, users := newTestStore()
	meta := models.AddressMeta{
		Text:     "Av. Arequipa 1234, Lince",
		Location: &models.Location{Lat: -12.08, Lng: -77.03},
	}
	users.data["51999000111"] = &models.Customer{
		PhoneNumber: "51999000111",
		Name:        "Carla",
		Address:     meta.Encode(),
	}

	sess, err := store.Get(context.Background(), "51999000111")
	require.NoError(t, err)
	assert.Equal(t, "Carla", sess.Name)
	assert.Equal(t, "Av. Arequipa 1234, Lince", sess.Address)
	require.NotNil(t, sess.Delivery)
	assert.Greater(t, sess.Delivery.Cost, 0.0)
}

func TestGetExpiresStaleSessions(t *testing.T) {
	store, sessions, _ := newTestStore()
	stale := models.NewSession()
	stale.Name = "Viejo"
	stale.Cart = []models.CartItem{{ID: "pizza_pepperoni_familiar", Quantity: 1}}
	stale.UpdatedAt = time.Now().Add(-7 * time.Hour)
	sessions.data["51999000111"] = stale

	sess, err := store.Get(context.Background(), "51999000111")
	require.NoError(t, err)
	assert.Empty(t, sess.Cart)
	assert.Empty(t, sess.Name)
}

func TestGetKeepsLiveSessions(t *testing.T) {
	store, sessions, _ := newTestStore()
	live := models.NewSession()
	live.Cart = []models.CartItem{{ID: "pizza_pepperoni_familiar", Quantity: 2}}
	live.UpdatedAt = time.Now().Add(-time.Hour)
	sessions.data["51999000111"] = live

	sess, err := store.Get(context.Background(), "51999000111")
	require.NoError(t, err)
	assert.Len(t, sess.Cart, 1)
}

func TestResetKeepsIdentityViaProfile(t *testing.T) {
	store, sessions, users := newTestStore()
	users.data["51999000111"] = &models.Customer{PhoneNumber: "51999000111", Name: "Carla"}
	dirty := models.NewSession()
	dirty.Cart = []models.CartItem{{ID: "pizza_pepperoni_familiar", Quantity: 1}}
	dirty.UpdatedAt = time.Now()
	sessions.data["51999000111"] = dirty

	sess, err := store.Reset(context.Background(), "51999000111")
	require.NoError(t, err)
	assert.Empty(t, sess.Cart)
	assert.Equal(t, "Carla", sess.Name)
	assert.Empty(t, sessions.data["51999000111"].Cart)
}

func TestSessionCartMerges(t *testing.T) {
	sess := models.NewSession()
	sess.AddItem(models.CartItem{ID: "pizza_pepperoni_familiar", Name: "Pizza Pepperoni Familiar", UnitPrice: 35, Quantity: 1})
	sess.AddItem(models.CartItem{ID: "pizza_pepperoni_familiar", Name: "Pizza Pepperoni Familiar", UnitPrice: 35, Quantity: 2})
	sess.AddItem(models.CartItem{ID: "inca_kola_500ml", Name: "Inca Kola 500ml", UnitPrice: 5, Quantity: 1})

	require.Len(t, sess.Cart, 2)
	assert.Equal(t, 3, sess.Cart[0].Quantity)
	assert.Equal(t, 110.0, sess.CartTotal())
	assert.Equal(t, 4, sess.CartCount())
}
