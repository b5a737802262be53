package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConfigRepository stores system key/value settings (email provider,
// SMTP credentials). Values flagged secret are masked when read back
// through the API.
type ConfigRepository interface {
	GetAll(ctx context.Context) (map[string]string, error)
	SetMany(ctx context.Context, values map[string]string, secrets map[string]bool) error
}

type configRepository struct {
	pool *pgxpool.Pool
}

// NewConfigRepository constructs repository.
func NewConfigRepository(pool *pgxpool.Pool) ConfigRepository {
	return &configRepository{pool: pool}
}

func (r *configRepository) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM app_config`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, rows.Err()
}

func (r *configRepository) SetMany(ctx context.Context, values map[string]string, secrets map[string]bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO app_config (key, value, is_secret)
        VALUES ($1,$2,$3)
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, is_secret=EXCLUDED.is_secret`
	for key, value := range values {
		if _, err := tx.Exec(ctx, query, key, value, secrets[key]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
