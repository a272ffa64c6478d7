package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"concurd/internal/authflow"
)

type fakeExchanger struct {
	token string
	calls int
}

func (f *fakeExchanger) Exchange(_ context.Context, code string) (string, error) {
	f.calls++
	return f.token, nil
}

type testEnv struct {
	api    *API
	vaults *fakeVaultStore
	files  *fakeFileStore
	server *httptest.Server
}

func newTestEnv(t *testing.T, ex authflow.Exchanger) *testEnv {
	t.Helper()

	if ex == nil {
		ex = &fakeExchanger{token: "gho_test"}
	}

	flows, err := authflow.NewCoordinator(authflow.CoordinatorConfig{
		Registry:  authflow.NewRegistry(time.Minute),
		Exchanger: ex,
		AuthorizeURL: func(state string) string {
			return "https://provider.example/oauth/authorize?state=" + state
		},
		PollTimeout: 2 * time.Second,
	})
	require.NoError(t, err)

	vaults := newFakeVaultStore()
	files := newFakeFileStore(vaults)

	a := &API{
		store:  &Store{},
		config: Config{RequestsPerMinute: 10000, RequestTimeout: 5 * time.Second},
		flows:  flows,
		vaults: vaults,
		files:  files,
		audit:  newAuditTrail(nil),
	}

	srv := httptest.NewServer(a.Routes())
	t.Cleanup(srv.Close)

	return &testEnv{api: a, vaults: vaults, files: files, server: srv}
}

func (e *testEnv) post(t *testing.T, path, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(e.server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return readBody(t, resp)
}

func (e *testEnv) put(t *testing.T, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return readBody(t, resp)
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	return readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) (*http.Response, []byte) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeInto(t *testing.T, data []byte, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, dest))
}
