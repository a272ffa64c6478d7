package api

import (
	"context"
	"errors"
)

// ErrVaultNotFound indicates a file operation referenced a vault that does
// not exist.
var ErrVaultNotFound = errors.New("api: vault not found")

// VaultStore provides get-or-create semantics over vaults by name.
type VaultStore interface {
	// GetOrCreate returns the vault with the given name, creating it if
	// absent. The bool reports whether this call created it.
	GetOrCreate(ctx context.Context, name string) (Vault, bool, error)
}

// FileStore is the persistence side of the file sync engine.
type FileStore interface {
	// UpsertBatch writes all records in one transaction, all-or-nothing.
	// Every record gets a recomputed hash and the batch write watermark.
	UpsertBatch(ctx context.Context, vaultID int64, records []FileUpsert) ([]FileRecord, error)

	// ListChangedSince returns records with last_sync strictly greater than
	// watermark, in no particular order.
	ListChangedSince(ctx context.Context, vaultID, watermark int64) ([]FileRecord, error)
}
