package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"concurd/internal/authflow"
	"concurd/internal/metrics"
	"concurd/pkg/bus"
	"concurd/web"
)

func (a *API) handleClientID(w http.ResponseWriter, _ *http.Request) {
	id := a.flows.StartSession()
	metrics.HandshakesStarted.Inc()
	respondJSON(w, http.StatusOK, map[string]any{"clientId": id})
}

func (a *API) handleAuthPage(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
	if clientID == "" {
		respondError(w, http.StatusBadRequest, errors.New("client_id query parameter is required"))
		return
	}

	authURL, err := a.flows.AuthorizeURL(clientID)
	if err != nil {
		if errors.Is(err, authflow.ErrNotFound) {
			respondError(w, http.StatusNotFound, errors.New("unknown client id"))
			return
		}
		log.Error().Err(err).Msg("build authorize url")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := web.Render(w, "auth.html.tmpl", map[string]string{
		"ClientID": clientID,
		"AuthURL":  authURL,
	}); err != nil {
		log.Error().Err(err).Msg("render auth page")
	}
}

func (a *API) handleStart(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
	if clientID == "" {
		respondError(w, http.StatusBadRequest, errors.New("client_id query parameter is required"))
		return
	}

	token, err := a.flows.PollToken(r.Context(), clientID)
	switch {
	case errors.Is(err, authflow.ErrNotFound):
		respondError(w, http.StatusNotFound, errors.New("unknown client id"))
	case errors.Is(err, authflow.ErrPollTimeout):
		respondError(w, http.StatusRequestTimeout, errors.New("timed out waiting for token"))
	case err != nil:
		log.Error().Err(err).Msg("poll token")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
	default:
		respondJSON(w, http.StatusOK, map[string]any{"accessToken": token})
	}
}

func (a *API) handleRedirect(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		respondError(w, http.StatusBadRequest, errors.New("code and state query parameters are required"))
		return
	}

	token, sessionID, err := a.flows.CompleteRedirect(r.Context(), code, state)
	switch {
	case errors.Is(err, authflow.ErrStateMismatch):
		// detail stays in the server log
		respondError(w, http.StatusBadRequest, errors.New("invalid request"))
		return
	case errors.Is(err, authflow.ErrExchangeFailed):
		log.Error().Err(err).Msg("provider exchange failed")
		respondError(w, http.StatusBadGateway, errors.New("provider exchange failed"))
		return
	case errors.Is(err, authflow.ErrAlreadyDelivered):
		respondError(w, http.StatusConflict, errors.New("handshake already completed"))
		return
	case err != nil:
		log.Error().Err(err).Msg("complete redirect")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	metrics.TokensDelivered.Inc()
	a.audit.Record(r.Context(), "auth.complete", sessionID, nil)
	a.publish(bus.SubjectAuthCompleted, map[string]any{"sessionId": sessionID})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := web.Render(w, "success.html.tmpl", map[string]string{"Token": token}); err != nil {
		log.Error().Err(err).Msg("render success page")
	}
}

func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string `json:"clientId"`
		Token    string `json:"token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.ClientID == "" || req.Token == "" {
		respondError(w, http.StatusBadRequest, errors.New("clientId and token are required"))
		return
	}

	err := a.flows.DeliverToken(req.ClientID, req.Token)
	switch {
	case errors.Is(err, authflow.ErrNotFound):
		respondError(w, http.StatusNotFound, errors.New("unknown client id"))
	case errors.Is(err, authflow.ErrAlreadyDelivered):
		respondError(w, http.StatusConflict, errors.New("token already delivered"))
	case err != nil:
		log.Error().Err(err).Msg("deliver token")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
	default:
		metrics.TokensDelivered.Inc()
		w.WriteHeader(http.StatusNoContent)
	}
}
