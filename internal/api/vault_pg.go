package api

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"concurd/pkg/db"
)

type pgVaultStore struct {
	pool *pgxpool.Pool
}

// GetOrCreate inserts the vault and falls back to a lookup when another
// caller won the race. The unique constraint on name guarantees at most one
// row per vault name.
func (s *pgVaultStore) GetOrCreate(ctx context.Context, name string) (Vault, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, db.DefaultTimeout)
	defer cancel()

	query := `
        INSERT INTO vaults (name)
        VALUES ($1)
        ON CONFLICT (name) DO NOTHING
        RETURNING id, name;
    `

	var v Vault
	err := s.pool.QueryRow(ctx, query, name).Scan(&v.ID, &v.Name)
	switch {
	case err == nil:
		return v, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		// conflict: the vault already exists, read it back
		if err := db.Get(ctx, s.pool, &v, `SELECT id, name FROM vaults WHERE name = $1`, name); err != nil {
			return Vault{}, false, err
		}
		return v, false, nil
	default:
		return Vault{}, false, err
	}
}
