package api

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"concurd/pkg/db"
)

// foreignKeyViolation is the Postgres error code raised when a file write
// references a missing vault.
const foreignKeyViolation = "23503"

type pgFileStore struct {
	pool *pgxpool.Pool
}

// UpsertBatch applies all records inside a single transaction. Every record
// in the batch shares one watermark so a partial failure can never leave the
// vault half-updated.
func (s *pgFileStore) UpsertBatch(ctx context.Context, vaultID int64, records []FileUpsert) ([]FileRecord, error) {
	if len(records) == 0 {
		return []FileRecord{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, db.DefaultTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO files (vault_id, path, content, hash, last_sync)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (vault_id, path) DO UPDATE SET
            content = EXCLUDED.content,
            hash = EXCLUDED.hash,
            last_sync = EXCLUDED.last_sync
        RETURNING id, vault_id, path, content, hash, last_sync;
    `

	now := time.Now().UnixMilli()
	out := make([]FileRecord, 0, len(records))
	for _, rec := range records {
		var f FileRecord
		row := tx.QueryRow(ctx, query, vaultID, rec.Path, rec.Content, ContentHash(rec.Content), now)
		if err := row.Scan(&f.ID, &f.VaultID, &f.Path, &f.Content, &f.Hash, &f.LastSync); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
				return nil, ErrVaultNotFound
			}
			return nil, err
		}
		out = append(out, f)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// ListChangedSince returns records written after the watermark, exclusive.
func (s *pgFileStore) ListChangedSince(ctx context.Context, vaultID, watermark int64) ([]FileRecord, error) {
	query := `
        SELECT id, vault_id, path, content, hash, last_sync
        FROM files
        WHERE vault_id = $1
        AND last_sync > $2;
    `

	var files []FileRecord
	if err := db.Select(ctx, s.pool, &files, query, vaultID, watermark); err != nil {
		return nil, err
	}
	if files == nil {
		files = []FileRecord{}
	}
	return files, nil
}
