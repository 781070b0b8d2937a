package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sanmarzano/orderbot/internal/models"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Get(ctx context.Context, phone string) (*models.Session, error) {
	query := `SELECT data, updated_at FROM sessions WHERE phone_number = $1`

	var data []byte
	var updatedAt time.Time
	err := r.pool.QueryRow(ctx, query, phone).Scan(&data, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session for %s: %w", phone, err)
	}

	session := models.NewSession()
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("decoding session for %s: %w", phone, err)
	}
	session.UpdatedAt = updatedAt
	return session, nil
}

func (r *SessionRepository) Save(ctx context.Context, phone string, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session for %s: %w", phone, err)
	}

	query := `
        INSERT INTO sessions (phone_number, data, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (phone_number)
        DO UPDATE SET data = EXCLUDED.data, updated_at = now()`

	if _, err := r.pool.Exec(ctx, query, phone, data); err != nil {
		return fmt.Errorf("saving session for %s: %w", phone, err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, phone string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE phone_number = $1`, phone)
	return err
}
