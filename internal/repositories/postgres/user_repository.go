package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sanmarzano/orderbot/internal/models"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Upsert(ctx context.Context, customer *models.Customer) error {
	query := `
        INSERT INTO users (phone_number, name, email, address, created_at, updated_at)
        VALUES ($1, $2, $3, $4, now(), now())
        ON CONFLICT (phone_number)
        DO UPDATE SET
            name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
            email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
            address = COALESCE(NULLIF(EXCLUDED.address, ''), users.address),
            updated_at = now()`

	if _, err := r.pool.Exec(ctx, query, customer.PhoneNumber, customer.Name, customer.Email, customer.Address); err != nil {
		return fmt.Errorf("upserting customer %s: %w", customer.PhoneNumber, err)
	}
	return nil
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	query := `
        SELECT phone_number, COALESCE(name, ''), COALESCE(email, ''), COALESCE(address, ''), created_at, updated_at
        FROM users
        WHERE phone_number = $1`

	customer := &models.Customer{}
	err := r.pool.QueryRow(ctx, query, phone).Scan(
		&customer.PhoneNumber,
		&customer.Name,
		&customer.Email,
		&customer.Address,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading customer %s: %w", phone, err)
	}
	return customer, nil
}
