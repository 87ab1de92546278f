// Package settings implements the key-value document store that holds
// runtime configuration such as the custom-role list and the dynamic
// permission matrix. Two backends satisfy the same contract: PostgreSQL
// (default) and Redis.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the PostgreSQL backed store over the app_settings table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the stored value for name. found is false when no row exists.
func (r *Repository) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM app_settings WHERE name = $1`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("settings: get %s: %w", name, err)
	}
	return value, true, nil
}

// Upsert stores the value under name, replacing any previous value.
func (r *Repository) Upsert(ctx context.Context, name, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO app_settings (name, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		name, value)
	if err != nil {
		return fmt.Errorf("settings: upsert %s: %w", name, err)
	}
	return nil
}

// Delete removes the value under name. Deleting an absent name is not an
// error.
func (r *Repository) Delete(ctx context.Context, name string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM app_settings WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("settings: delete %s: %w", name, err)
	}
	return nil
}
