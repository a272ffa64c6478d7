package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"concurd/internal/metrics"
	"concurd/pkg/bus"
)

func (a *API) handleListFiles(w http.ResponseWriter, r *http.Request) {
	vaultID, err := queryInt64(r, "vaultId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	watermark, err := queryInt64(r, "lastSync")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	files, err := a.files.ListChangedSince(r.Context(), vaultID, watermark)
	if err != nil {
		log.Error().Err(err).Int64("vault_id", vaultID).Msg("list changed files")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (a *API) handleUpsertFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VaultID int64  `json:"vaultId"`
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.VaultID <= 0 {
		respondError(w, http.StatusBadRequest, errors.New("vaultId is required"))
		return
	}
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" {
		respondError(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}

	out, err := a.upsert(r, req.VaultID, []FileUpsert{{Path: req.Path, Content: req.Content}})
	if err != nil {
		a.respondUpsertError(w, req.VaultID, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"file": out[0]})
}

func (a *API) handleUpsertFiles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VaultID int64 `json:"vaultId"`
		Files   []struct {
			Path    string `json:"path"`
			Content string `json:"content"`
		} `json:"files"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.VaultID <= 0 {
		respondError(w, http.StatusBadRequest, errors.New("vaultId is required"))
		return
	}
	if len(req.Files) == 0 {
		respondError(w, http.StatusBadRequest, errors.New("files must not be empty"))
		return
	}

	records := make([]FileUpsert, 0, len(req.Files))
	for _, f := range req.Files {
		path := strings.TrimSpace(f.Path)
		if path == "" {
			respondError(w, http.StatusBadRequest, errors.New("every file needs a path"))
			return
		}
		records = append(records, FileUpsert{Path: path, Content: f.Content})
	}

	out, err := a.upsert(r, req.VaultID, records)
	if err != nil {
		a.respondUpsertError(w, req.VaultID, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"files": out})
}

func (a *API) upsert(r *http.Request, vaultID int64, records []FileUpsert) ([]FileRecord, error) {
	out, err := a.files.UpsertBatch(r.Context(), vaultID, records)
	if err != nil {
		return nil, err
	}

	metrics.FilesSynced.Add(float64(len(out)))
	a.audit.Record(r.Context(), "file.sync", fmt.Sprintf("vault:%d", vaultID), map[string]any{"count": len(out)})
	a.publish(bus.SubjectFilesSynced, map[string]any{
		"vaultId": vaultID,
		"count":   len(out),
	})
	return out, nil
}

func (a *API) respondUpsertError(w http.ResponseWriter, vaultID int64, err error) {
	if errors.Is(err, ErrVaultNotFound) {
		respondError(w, http.StatusNotFound, fmt.Errorf("vault %d not found", vaultID))
		return
	}
	log.Error().Err(err).Int64("vault_id", vaultID).Msg("upsert files")
	respondError(w, http.StatusInternalServerError, errors.New("internal error"))
}

func queryInt64(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, fmt.Errorf("%s query parameter is required", key)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}
