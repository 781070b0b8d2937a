package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sanmarzano/orderbot/internal/repositories"
)

type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func (r *InventoryRepository) UpsertIngredient(ctx context.Context, ing *repositories.Ingredient) error {
	query := `
        INSERT INTO ingredients (id, name, unit, cost, stock, min_stock)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id)
        DO UPDATE SET name = EXCLUDED.name, unit = EXCLUDED.unit,
                      cost = EXCLUDED.cost, stock = EXCLUDED.stock,
                      min_stock = EXCLUDED.min_stock`

	if _, err := r.pool.Exec(ctx, query, ing.ID, ing.Name, ing.Unit, ing.Cost, ing.Stock, ing.MinStock); err != nil {
		return fmt.Errorf("upserting ingredient %s: %w", ing.ID, err)
	}
	return nil
}

func (r *InventoryRepository) SaveRecipe(ctx context.Context, lines []repositories.RecipeLine) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	stmt := `
        INSERT INTO product_ingredients (product_id, ingredient_id, consumption)
        VALUES ($1, $2, $3)
        ON CONFLICT (product_id, ingredient_id)
        DO UPDATE SET consumption = EXCLUDED.consumption`

	for _, line := range lines {
		if _, err := tx.Exec(ctx, stmt, line.ProductID, line.IngredientID, line.Consumption); err != nil {
			return fmt.Errorf("saving recipe line %s/%s: %w", line.ProductID, line.IngredientID, err)
		}
	}
	return tx.Commit(ctx)
}
