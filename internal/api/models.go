package api

// Vault is a named collection of synchronized files. Vaults are created on
// first reference and never renamed or deleted.
type Vault struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// FileRecord is one synchronized file within a vault. LastSync is the write
// watermark in milliseconds since the epoch; Hash always fingerprints the
// stored Content.
type FileRecord struct {
	ID       int64  `json:"id" db:"id"`
	VaultID  int64  `json:"vaultId" db:"vault_id"`
	Path     string `json:"path" db:"path"`
	Content  string `json:"content" db:"content"`
	Hash     string `json:"hash" db:"hash"`
	LastSync int64  `json:"lastSync" db:"last_sync"`
}

// FileUpsert is the client-supplied portion of a file write. Hash and
// LastSync are computed server-side on every write.
type FileUpsert struct {
	Path    string
	Content string
}
