package client

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// contentHash matches the digest the server stores, so an unchanged file can
// be recognised without uploading it.
func contentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// PushDir uploads every file under dir whose content differs from the server
// copy. Hidden files and directories are skipped. Returns the records the
// server wrote, or nil when everything was already in sync.
func (c *Client) PushDir(ctx context.Context, vaultID int64, dir string) ([]FileRecord, error) {
	remote, err := c.ChangedSince(ctx, vaultID, 0)
	if err != nil {
		return nil, err
	}
	remoteHash := make(map[string]string, len(remote))
	for _, rec := range remote {
		remoteHash[rec.Path] = rec.Hash
	}

	var batch []FileUpsert
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		content := string(data)
		if remoteHash[rel] == contentHash(content) {
			return nil
		}
		batch = append(batch, FileUpsert{Path: rel, Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(batch) == 0 {
		return nil, nil
	}
	return c.PushFiles(ctx, vaultID, batch)
}

// PullDir writes every record changed after the watermark into dir and
// returns the records together with the advanced watermark.
func (c *Client) PullDir(ctx context.Context, vaultID, watermark int64, dir string) ([]FileRecord, int64, error) {
	records, err := c.ChangedSince(ctx, vaultID, watermark)
	if err != nil {
		return nil, watermark, err
	}

	next := watermark
	for _, rec := range records {
		if !filepath.IsLocal(filepath.FromSlash(rec.Path)) {
			return nil, watermark, fmt.Errorf("client: refusing record path %q", rec.Path)
		}
		target := filepath.Join(dir, filepath.FromSlash(rec.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, watermark, err
		}
		if err := os.WriteFile(target, []byte(rec.Content), 0o644); err != nil {
			return nil, watermark, err
		}
		if rec.LastSync > next {
			next = rec.LastSync
		}
	}
	return records, next, nil
}
