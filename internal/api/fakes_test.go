package api

import (
	"context"
	"sync"
)

// fakeVaultStore mirrors the get-or-create semantics of the Postgres store
// for handler tests.
type fakeVaultStore struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]Vault
}

func newFakeVaultStore() *fakeVaultStore {
	return &fakeVaultStore{byName: make(map[string]Vault)}
}

func (s *fakeVaultStore) GetOrCreate(_ context.Context, name string) (Vault, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.byName[name]; ok {
		return v, false, nil
	}
	s.nextID++
	v := Vault{ID: s.nextID, Name: name}
	s.byName[name] = v
	return v, true, nil
}

func (s *fakeVaultStore) exists(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.byName {
		if v.ID == id {
			return true
		}
	}
	return false
}

// fakeFileStore keeps records in memory with a strictly increasing watermark
// clock so rapid writes never collide.
type fakeFileStore struct {
	vaults *fakeVaultStore

	mu     sync.Mutex
	nextID int64
	clock  int64
	files  map[int64]map[string]FileRecord
}

func newFakeFileStore(vaults *fakeVaultStore) *fakeFileStore {
	return &fakeFileStore{vaults: vaults, files: make(map[int64]map[string]FileRecord)}
}

func (s *fakeFileStore) UpsertBatch(_ context.Context, vaultID int64, records []FileUpsert) ([]FileRecord, error) {
	if !s.vaults.exists(vaultID) {
		return nil, ErrVaultNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.files[vaultID] == nil {
		s.files[vaultID] = make(map[string]FileRecord)
	}

	s.clock++
	now := s.clock

	out := make([]FileRecord, 0, len(records))
	for _, rec := range records {
		f, ok := s.files[vaultID][rec.Path]
		if !ok {
			s.nextID++
			f = FileRecord{ID: s.nextID, VaultID: vaultID, Path: rec.Path}
		}
		f.Content = rec.Content
		f.Hash = ContentHash(rec.Content)
		f.LastSync = now
		s.files[vaultID][rec.Path] = f
		out = append(out, f)
	}
	return out, nil
}

func (s *fakeFileStore) ListChangedSince(_ context.Context, vaultID, watermark int64) ([]FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []FileRecord{}
	for _, f := range s.files[vaultID] {
		if f.LastSync > watermark {
			out = append(out, f)
		}
	}
	return out, nil
}
