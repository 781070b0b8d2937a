package repositories

import (
	"context"
	"time"

	"github.com/sanmarzano/orderbot/internal/models"
)

type SessionRepository interface {
	// Get returns the stored session, or nil when the phone has none.
	Get(ctx context.Context, phone string) (*models.Session, error)
	Save(ctx context.Context, phone string, session *models.Session) error
	Delete(ctx context.Context, phone string) error
}

type UserRepository interface {
	Upsert(ctx context.Context, customer *models.Customer) error
	// GetByPhone returns nil when no profile exists for the phone.
	GetByPhone(ctx context.Context, phone string) (*models.Customer, error)
}

type MenuRepository interface {
	GetActive(ctx context.Context) ([]models.MenuItem, error)
	MaxUpdatedAt(ctx context.Context) (time.Time, error)
	BulkCreate(ctx context.Context, items []*models.MenuItem) error
}

// Ingredient is a stock-tracked raw material.
type Ingredient struct {
	ID       string
	Name     string
	Unit     string
	Cost     float64
	Stock    float64
	MinStock float64
}

// RecipeLine links a product to an ingredient with the amount one unit of
// the product consumes.
type RecipeLine struct {
	ProductID    string
	IngredientID string
	Consumption  float64
}

type InventoryRepository interface {
	UpsertIngredient(ctx context.Context, ing *Ingredient) error
	SaveRecipe(ctx context.Context, lines []RecipeLine) error
}

type OrderRepository interface {
	// Create persists the order and deducts ingredient stock in the same
	// transaction.
	Create(ctx context.Context, input *models.OrderInput) (*models.Order, error)
	// LastByPhone returns nil when the phone has no orders.
	LastByPhone(ctx context.Context, phone string) (*models.Order, error)
	// Cancel marks a still-open order cancelled. Orders already in the
	// kitchen or beyond are left alone.
	Cancel(ctx context.Context, orderID string) error
	RestoreStock(ctx context.Context, orderID string) error
	ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error)
}
