package api

import (
	"io"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var statePattern = regexp.MustCompile(`state=([0-9a-f]{32})`)

func (e *testEnv) startHandshake(t *testing.T) (clientID, state string) {
	t.Helper()

	resp, body := e.post(t, "/auth/client_id", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var idResp struct {
		ClientID string `json:"clientId"`
	}
	decodeInto(t, body, &idResp)
	require.NotEmpty(t, idResp.ClientID)

	resp, body = e.get(t, "/auth/?client_id="+idResp.ClientID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	m := statePattern.FindSubmatch(body)
	require.NotNil(t, m, "auth page must embed the provider url with a state token")
	return idResp.ClientID, string(m[1])
}

func TestAuthHandshakeEndToEnd(t *testing.T) {
	ex := &fakeExchanger{token: "gho_e2e"}
	env := newTestEnv(t, ex)

	clientID, state := env.startHandshake(t)

	type pollResult struct {
		status int
		body   []byte
		err    error
	}
	polled := make(chan pollResult, 1)
	go func() {
		resp, err := http.Get(env.server.URL + "/auth/start?client_id=" + clientID)
		if err != nil {
			polled <- pollResult{err: err}
			return
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		polled <- pollResult{status: resp.StatusCode, body: body, err: err}
	}()

	// give the poller a moment to park on the slot
	time.Sleep(50 * time.Millisecond)

	resp, body := env.get(t, "/auth/redirect?code=good-code&state="+state)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Successfully authenticated")
	assert.Equal(t, 1, ex.calls)

	select {
	case got := <-polled:
		require.NoError(t, got.err)
		require.Equal(t, http.StatusOK, got.status)
		var tokenResp struct {
			AccessToken string `json:"accessToken"`
		}
		decodeInto(t, got.body, &tokenResp)
		assert.Equal(t, "gho_e2e", tokenResp.AccessToken)
	case <-time.After(3 * time.Second):
		t.Fatal("poll never completed")
	}
}

func TestAuthRedirectRejectsForgedState(t *testing.T) {
	ex := &fakeExchanger{token: "gho_forged"}
	env := newTestEnv(t, ex)

	env.startHandshake(t)

	resp, body := env.get(t, "/auth/redirect?code=stolen-code&state=ffffffffffffffffffffffffffffffff")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "invalid request")
	assert.NotContains(t, string(body), "state", "response must not explain the rejection")
	assert.Zero(t, ex.calls, "no provider call on a failed state check")
}

func TestAuthRedirectAfterDelivery(t *testing.T) {
	env := newTestEnv(t, nil)
	clientID, state := env.startHandshake(t)

	resp, _ := env.get(t, "/auth/redirect?code=c1&state="+state)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the slot accepts exactly one delivery
	resp, _ = env.get(t, "/auth/redirect?code=c2&state="+state)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// the page fallback hits the delivered slot directly
	resp, _ = env.post(t, "/auth/token", `{"clientId":"`+clientID+`","token":"gho_dup"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAuthTokenFallback(t *testing.T) {
	env := newTestEnv(t, nil)
	clientID, _ := env.startHandshake(t)

	resp, _ := env.post(t, "/auth/token", `{"clientId":"`+clientID+`","token":"gho_fb"}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := env.get(t, "/auth/start?client_id="+clientID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tokenResp struct {
		AccessToken string `json:"accessToken"`
	}
	decodeInto(t, body, &tokenResp)
	assert.Equal(t, "gho_fb", tokenResp.AccessToken)
}

func TestAuthTokenFallbackValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.post(t, "/auth/token", `{"clientId":"","token":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.post(t, "/auth/token", `{"clientId":"no-such-session","token":"x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuthStartUnknownSession(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.get(t, "/auth/start?client_id=no-such-session")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.get(t, "/auth/start")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthStartTimesOut(t *testing.T) {
	env := newTestEnv(t, nil)
	clientID, _ := env.startHandshake(t)

	start := time.Now()
	resp, _ := env.get(t, "/auth/start?client_id="+clientID)
	assert.Equal(t, http.StatusRequestTimeout, resp.StatusCode)
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Second)

	// the session survives a timed-out poll
	resp, _ = env.post(t, "/auth/token", `{"clientId":"`+clientID+`","token":"gho_late"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAuthPageUnknownSession(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.get(t, "/auth/?client_id=no-such-session")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.get(t, "/auth/")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
