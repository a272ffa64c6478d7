package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"concurd/internal/metrics"
	"concurd/pkg/bus"
)

func (a *API) handleVaultSave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}

	vault, created, err := a.vaults.GetOrCreate(r.Context(), req.Name)
	if err != nil {
		log.Error().Err(err).Str("vault", req.Name).Msg("get or create vault")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		metrics.VaultsCreated.Inc()
		a.audit.Record(r.Context(), "vault.create", vault.Name, map[string]any{"vault_id": vault.ID})
		a.publish(bus.SubjectVaultCreated, map[string]any{
			"vaultId": vault.ID,
			"name":    vault.Name,
		})
	}

	respondJSON(w, status, vault)
}
