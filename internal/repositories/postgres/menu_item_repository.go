package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sanmarzano/orderbot/internal/models"
)

type MenuItemRepository struct {
	pool *pgxpool.Pool
}

func NewMenuItemRepository(pool *pgxpool.Pool) *MenuItemRepository {
	return &MenuItemRepository{pool: pool}
}

func (r *MenuItemRepository) GetActive(ctx context.Context) ([]models.MenuItem, error) {
	query := `
        SELECT id, name, COALESCE(description, ''), category, prices, keywords, is_active, updated_at
        FROM products
        WHERE is_active
        ORDER BY category, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var item models.MenuItem
		var prices, keywords []byte
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.Category,
			&prices,
			&keywords,
			&item.IsActive,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(prices, &item.Prices); err != nil {
			return nil, fmt.Errorf("decoding prices for %s: %w", item.ID, err)
		}
		if len(keywords) > 0 {
			if err := json.Unmarshal(keywords, &item.Keywords); err != nil {
				return nil, fmt.Errorf("decoding keywords for %s: %w", item.ID, err)
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *MenuItemRepository) MaxUpdatedAt(ctx context.Context) (time.Time, error) {
	var mark *time.Time
	err := r.pool.QueryRow(ctx, `SELECT max(updated_at) FROM products WHERE is_active`).Scan(&mark)
	if err != nil {
		return time.Time{}, err
	}
	if mark == nil {
		return time.Time{}, nil
	}
	return *mark, nil
}

func (r *MenuItemRepository) BulkCreate(ctx context.Context, items []*models.MenuItem) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"products"},
		[]string{"id", "name", "description", "category", "prices", "keywords", "is_active", "updated_at"},
		pgx.CopyFromSlice(len(items), func(i int) ([]interface{}, error) {
			prices, err := json.Marshal(items[i].Prices)
			if err != nil {
				return nil, err
			}
			keywords, err := json.Marshal(items[i].Keywords)
			if err != nil {
				return nil, err
			}
			return []interface{}{
				items[i].ID,
				items[i].Name,
				items[i].Description,
				items[i].Category,
				prices,
				keywords,
				items[i].IsActive,
				time.Now(),
			}, nil
		}),
	)
	return err
}
