// Package clientstate persists concurctl's session between runs: the access
// token from the handshake, the bound vault, and the sync watermark.
package clientstate

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// State is the on-disk session for one configured vault.
type State struct {
	Token     string `json:"token,omitempty"`
	VaultID   int64  `json:"vaultId,omitempty"`
	VaultName string `json:"vaultName,omitempty"`
	LastSync  int64  `json:"lastSync"`
}

// DefaultPath returns the state file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "concur", "state.json"), nil
}

// Load reads the state file. A missing file yields a zero state.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &State{}, nil
		}
		return nil, err
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the state file with owner-only permissions, creating parent
// directories as needed. The write goes through a temp file so a crash never
// leaves a torn state behind.
func Save(path string, s *State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
