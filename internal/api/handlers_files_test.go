package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createVault(t *testing.T, name string) Vault {
	t.Helper()
	resp, body := e.post(t, "/vault/", fmt.Sprintf(`{"name":%q}`, name))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var v Vault
	decodeInto(t, body, &v)
	return v
}

func TestUpsertFileTwiceKeepsOneRecord(t *testing.T) {
	env := newTestEnv(t, nil)
	vault := env.createVault(t, "notes")

	resp, body := env.post(t, "/file/", fmt.Sprintf(`{"vaultId":%d,"path":"daily.md","content":"hello"}`, vault.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var first struct {
		File FileRecord `json:"file"`
	}
	decodeInto(t, body, &first)
	assert.Equal(t, "daily.md", first.File.Path)
	assert.Equal(t, ContentHash("hello"), first.File.Hash)

	resp, body = env.post(t, "/file/", fmt.Sprintf(`{"vaultId":%d,"path":"daily.md","content":"world"}`, vault.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var second struct {
		File FileRecord `json:"file"`
	}
	decodeInto(t, body, &second)
	assert.Equal(t, first.File.ID, second.File.ID, "same path updates in place")
	assert.Equal(t, "world", second.File.Content)
	assert.Equal(t, ContentHash("world"), second.File.Hash)
	assert.Greater(t, second.File.LastSync, first.File.LastSync)
}

func TestListFilesStrictWatermark(t *testing.T) {
	env := newTestEnv(t, nil)
	vault := env.createVault(t, "notes")

	resp, body := env.post(t, "/file/", fmt.Sprintf(`{"vaultId":%d,"path":"a.md","content":"aa"}`, vault.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var up struct {
		File FileRecord `json:"file"`
	}
	decodeInto(t, body, &up)

	// a cursor below the record's watermark sees it
	resp, body = env.get(t, fmt.Sprintf("/file/?vaultId=%d&lastSync=%d", vault.ID, up.File.LastSync-1))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Files []FileRecord `json:"files"`
	}
	decodeInto(t, body, &list)
	require.Len(t, list.Files, 1)
	assert.Equal(t, "a.md", list.Files[0].Path)

	// a cursor equal to the watermark does not; the comparison is strict
	resp, body = env.get(t, fmt.Sprintf("/file/?vaultId=%d&lastSync=%d", vault.ID, up.File.LastSync))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list.Files = nil
	decodeInto(t, body, &list)
	assert.Empty(t, list.Files)
}

func TestUpsertBatchSharesWatermark(t *testing.T) {
	env := newTestEnv(t, nil)
	vault := env.createVault(t, "notes")

	resp, body := env.put(t, "/file/", fmt.Sprintf(
		`{"vaultId":%d,"files":[{"path":"a.md","content":"aa"},{"path":"b.md","content":"bb"}]}`, vault.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Files []FileRecord `json:"files"`
	}
	decodeInto(t, body, &out)
	require.Len(t, out.Files, 2)
	assert.Equal(t, out.Files[0].LastSync, out.Files[1].LastSync, "one batch gets one watermark")
}

func TestUpsertUnknownVault(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.post(t, "/file/", `{"vaultId":999,"path":"a.md","content":"aa"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.put(t, "/file/", `{"vaultId":999,"files":[{"path":"a.md","content":"aa"}]}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpsertValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	vault := env.createVault(t, "notes")

	resp, _ := env.post(t, "/file/", fmt.Sprintf(`{"vaultId":%d,"path":"  "}`, vault.ID))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.post(t, "/file/", `{"path":"a.md","content":"aa"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing vaultId")

	resp, _ = env.put(t, "/file/", fmt.Sprintf(`{"vaultId":%d,"files":[]}`, vault.ID))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "empty batch")

	resp, _ = env.put(t, "/file/", fmt.Sprintf(`{"vaultId":%d,"files":[{"path":"","content":"x"}]}`, vault.ID))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListFilesValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.get(t, "/file/?lastSync=0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "vaultId required")

	resp, _ = env.get(t, "/file/?vaultId=1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "lastSync required")

	resp, _ = env.get(t, "/file/?vaultId=abc&lastSync=0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
