package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucsky/cuid"
	"github.com/sanmarzano/orderbot/internal/models"
)

type OrderRepository struct {
	pool           *pgxpool.Pool
	restaurantCode string
}

func NewOrderRepository(pool *pgxpool.Pool, restaurantCode string) *OrderRepository {
	return &OrderRepository{pool: pool, restaurantCode: restaurantCode}
}

// formatOrderCode builds the kitchen-facing code: date, restaurant code and
// the order's position within the current ISO week. "310826sm07" is the
// seventh order of that week.
func formatOrderCode(createdAt time.Time, restaurantCode string, weeklySeq int) string {
	return fmt.Sprintf("%s%s%02d", createdAt.Format("020106"), restaurantCode, weeklySeq)
}

// Create persists the order and deducts ingredient stock per product
// recipe in a single transaction, so a stock failure rolls the order back.
func (r *OrderRepository) Create(ctx context.Context, input *models.OrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, errors.New("order has no items")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	items, err := json.Marshal(input.Items)
	if err != nil {
		return nil, fmt.Errorf("encoding order items: %w", err)
	}

	order := &models.Order{
		ID:           cuid.New(),
		PhoneNumber:  input.PhoneNumber,
		CustomerName: input.CustomerName,
		Address:      input.Address,
		Items:        input.Items,
		DeliveryCost: input.DeliveryCost,
		Total:        input.Total,
		Status:       input.Status,
	}

	insert := `
        INSERT INTO orders (id, phone_number, customer_name, address, items, delivery_cost, total, status, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
        RETURNING created_at`

	err = tx.QueryRow(ctx, insert,
		order.ID,
		order.PhoneNumber,
		order.CustomerName,
		order.Address,
		items,
		order.DeliveryCost,
		order.Total,
		order.Status,
		input.Notes,
	).Scan(&order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting order: %w", err)
	}

	var weeklySeq int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE created_at >= date_trunc('week', $1::timestamptz)`,
		order.CreatedAt,
	).Scan(&weeklySeq)
	if err != nil {
		return nil, fmt.Errorf("counting weekly orders: %w", err)
	}

	order.Code = formatOrderCode(order.CreatedAt, r.restaurantCode, weeklySeq)
	if _, err := tx.Exec(ctx, `UPDATE orders SET code = $1 WHERE id = $2`, order.Code, order.ID); err != nil {
		return nil, fmt.Errorf("setting order code: %w", err)
	}

	if err := r.deductStock(ctx, tx, order); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) deductStock(ctx context.Context, tx pgx.Tx, order *models.Order) error {
	reason := fmt.Sprintf("Pedido #%s: %s", shortID(order.ID), order.CustomerName)

	for _, item := range order.Items {
		productID := item.ProductID
		if productID == "" {
			productID = item.Name
		}

		rows, err := tx.Query(ctx,
			`SELECT ingredient_id, consumption FROM product_ingredients WHERE product_id = $1`,
			productID,
		)
		if err != nil {
			return fmt.Errorf("loading recipe for %s: %w", productID, err)
		}

		type recipeLine struct {
			ingredientID string
			consumption  float64
		}
		var recipe []recipeLine
		for rows.Next() {
			var line recipeLine
			if err := rows.Scan(&line.ingredientID, &line.consumption); err != nil {
				rows.Close()
				return err
			}
			recipe = append(recipe, line)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, line := range recipe {
			qty := line.consumption * float64(item.Quantity)
			if _, err := tx.Exec(ctx,
				`UPDATE ingredients SET stock = stock - $1 WHERE id = $2`,
				qty, line.ingredientID,
			); err != nil {
				return fmt.Errorf("deducting stock for %s: %w", line.ingredientID, err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO inventory_movements (id, ingredient_id, quantity, movement_type, reason, created_at)
                 VALUES ($1, $2, $3, 'sale', $4, now())`,
				cuid.New(), line.ingredientID, -qty, reason,
			); err != nil {
				return fmt.Errorf("recording movement for %s: %w", line.ingredientID, err)
			}
		}
	}
	return nil
}

// Cancel marks a pending or confirmed order cancelled. Orders the kitchen
// already picked up are not touched.
func (r *OrderRepository) Cancel(ctx context.Context, orderID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 AND status IN ($3, $4)`,
		models.OrderStatusCancelled,
		orderID,
		models.OrderStatusPending,
		models.OrderStatusConfirmed,
	)
	if err != nil {
		return fmt.Errorf("cancelling order %s: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s is not open for cancellation", orderID)
	}
	return nil
}

// RestoreStock reverses the stock deducted for an order, recording
// compensating movements. Used when an order is cancelled.
func (r *OrderRepository) RestoreStock(ctx context.Context, orderID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var itemsRaw []byte
	var customerName string
	err = tx.QueryRow(ctx,
		`SELECT items, customer_name FROM orders WHERE id = $1`, orderID,
	).Scan(&itemsRaw, &customerName)
	if err != nil {
		return fmt.Errorf("loading order %s: %w", orderID, err)
	}

	var orderItems []models.OrderItem
	if err := json.Unmarshal(itemsRaw, &orderItems); err != nil {
		return fmt.Errorf("decoding items for %s: %w", orderID, err)
	}

	reason := fmt.Sprintf("Cancelación #%s: %s", shortID(orderID), customerName)
	for _, item := range orderItems {
		productID := item.ProductID
		if productID == "" {
			productID = item.Name
		}

		rows, err := tx.Query(ctx,
			`SELECT ingredient_id, consumption FROM product_ingredients WHERE product_id = $1`,
			productID,
		)
		if err != nil {
			return fmt.Errorf("loading recipe for %s: %w", productID, err)
		}
		lines := map[string]float64{}
		for rows.Next() {
			var ingredientID string
			var consumption float64
			if err := rows.Scan(&ingredientID, &consumption); err != nil {
				rows.Close()
				return err
			}
			lines[ingredientID] = consumption
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for ingredientID, consumption := range lines {
			qty := consumption * float64(item.Quantity)
			if _, err := tx.Exec(ctx,
				`UPDATE ingredients SET stock = stock + $1 WHERE id = $2`,
				qty, ingredientID,
			); err != nil {
				return fmt.Errorf("restoring stock for %s: %w", ingredientID, err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO inventory_movements (id, ingredient_id, quantity, movement_type, reason, created_at)
                 VALUES ($1, $2, $3, 'cancel', $4, now())`,
				cuid.New(), ingredientID, qty, reason,
			); err != nil {
				return fmt.Errorf("recording movement for %s: %w", ingredientID, err)
			}
		}
	}
	return tx.Commit(ctx)
}

func (r *OrderRepository) LastByPhone(ctx context.Context, phone string) (*models.Order, error) {
	query := `
        SELECT id, COALESCE(code, ''), phone_number, COALESCE(customer_name, ''), COALESCE(address, ''),
               items, delivery_cost, total, status, created_at
        FROM orders
        WHERE phone_number = $1
        ORDER BY created_at DESC
        LIMIT 1`

	order := &models.Order{}
	var itemsRaw []byte
	err := r.pool.QueryRow(ctx, query, phone).Scan(
		&order.ID,
		&order.Code,
		&order.PhoneNumber,
		&order.CustomerName,
		&order.Address,
		&itemsRaw,
		&order.DeliveryCost,
		&order.Total,
		&order.Status,
		&order.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading last order for %s: %w", phone, err)
	}
	if err := json.Unmarshal(itemsRaw, &order.Items); err != nil {
		return nil, fmt.Errorf("decoding items for %s: %w", order.ID, err)
	}
	return order, nil
}

// ExpireStale moves confirmed orders older than the window to expired, so
// yesterday's unattended orders stop showing up as queued.
func (r *OrderRepository) ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $1 WHERE status = $2 AND created_at < now() - $3::interval`,
		models.OrderStatusExpired,
		models.OrderStatusConfirmed,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("expiring stale orders: %w", err)
	}
	return tag.RowsAffected(), nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
