// Package client is the HTTP client used by concurctl to talk to a concurd
// instance.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrPollPending is returned when a token poll times out server-side and
// should simply be retried.
var ErrPollPending = errors.New("client: token not delivered yet")

// Vault mirrors the server's vault entity.
type Vault struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FileRecord mirrors the server's file record.
type FileRecord struct {
	ID       int64  `json:"id"`
	VaultID  int64  `json:"vaultId"`
	Path     string `json:"path"`
	Content  string `json:"content"`
	Hash     string `json:"hash"`
	LastSync int64  `json:"lastSync"`
}

// FileUpsert is one file in an upload batch.
type FileUpsert struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Client talks to the concurd HTTP API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a Client for the given base URL. The HTTP client timeout is
// left generous because token polls hold the connection open.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// RequestSession opens a handshake and returns the session id together with
// the browser URL the human must visit.
func (c *Client) RequestSession(ctx context.Context) (clientID, authURL string, err error) {
	var resp struct {
		ClientID string `json:"clientId"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/auth/client_id", nil, &resp); err != nil {
		return "", "", err
	}
	return resp.ClientID, c.BaseURL + "/auth/?client_id=" + url.QueryEscape(resp.ClientID), nil
}

// PollToken blocks on the server until the handshake completes. A server-side
// poll timeout maps to ErrPollPending so callers can loop.
func (c *Client) PollToken(ctx context.Context, clientID string) (string, error) {
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	_, err := c.do(ctx, http.MethodGet, "/auth/start?client_id="+url.QueryEscape(clientID), nil, &resp)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.status == http.StatusRequestTimeout {
			return "", ErrPollPending
		}
		return "", err
	}
	return resp.AccessToken, nil
}

// SaveVault gets or creates the named vault. The created flag reports whether
// this call made it.
func (c *Client) SaveVault(ctx context.Context, name string) (Vault, bool, error) {
	var vault Vault
	status, err := c.do(ctx, http.MethodPost, "/vault/", map[string]string{"name": name}, &vault)
	if err != nil {
		return Vault{}, false, err
	}
	return vault, status == http.StatusCreated, nil
}

// PushFiles uploads a batch of files to the vault in one transaction.
func (c *Client) PushFiles(ctx context.Context, vaultID int64, files []FileUpsert) ([]FileRecord, error) {
	body := map[string]any{"vaultId": vaultID, "files": files}

	var resp struct {
		Files []FileRecord `json:"files"`
	}
	if _, err := c.do(ctx, http.MethodPut, "/file/", body, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// ChangedSince lists vault records written after the watermark.
func (c *Client) ChangedSince(ctx context.Context, vaultID, watermark int64) ([]FileRecord, error) {
	path := "/file/?vaultId=" + strconv.FormatInt(vaultID, 10) +
		"&lastSync=" + strconv.FormatInt(watermark, 10)

	var resp struct {
		Files []FileRecord `json:"files"`
	}
	if _, err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	if e.body != "" {
		return fmt.Sprintf("client: server returned %d: %s", e.status, e.body)
	}
	return fmt.Sprintf("client: server returned %d", e.status)
}

// do performs the request and decodes the response into dest on any 2xx
// status. Non-2xx responses come back as *apiError.
func (c *Client) do(ctx context.Context, method, path string, body, dest any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &apiError{status: resp.StatusCode, body: errorMessage(data)}
	}

	if dest == nil || len(data) == 0 {
		return resp.StatusCode, nil
	}
	return resp.StatusCode, json.Unmarshal(data, dest)
}

func errorMessage(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return string(data)
}
