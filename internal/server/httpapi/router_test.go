package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigmatch/livesync/internal/api"
	"github.com/gigmatch/livesync/internal/logging"
	"github.com/gigmatch/livesync/internal/server/auth"
	"github.com/gigmatch/livesync/internal/server/hub"
	"github.com/gigmatch/livesync/internal/server/records"
	"github.com/gigmatch/livesync/internal/server/store"
)

const testAPIKey = "test-key"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logging.NewJSON(io.Discard)
	hash, err := auth.HashAPIKey(testAPIKey)
	require.NoError(t, err)

	h := hub.New(log)
	svc := records.NewService(store.NewMemoryRepository(), h, log)
	router := New(svc, hub.NewHandler(h, log), log, []byte("test-secret"), hash, time.Hour)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func obtainToken(t *testing.T, ts *httptest.Server, key string) (string, int) {
	t.Helper()
	body, _ := json.Marshal(api.TokenRequest{APIKey: key})
	resp, err := http.Post(ts.URL+"/auth/token", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode
	}
	var tr api.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))
	return tr.AccessToken, resp.StatusCode
}

func do(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func gigRow(id, scope, status string) *api.Row {
	return &api.Row{ID: id, Scope: scope, Status: status, Record: json.RawMessage(`{"id":"` + id + `"}`)}
}

func TestToken(t *testing.T) {
	ts := newTestServer(t)

	token, code := obtainToken(t, ts, testAPIKey)
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, token)

	_, code = obtainToken(t, ts, "wrong-key")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRecordsRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/records/gigs", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRecordsCRUD(t *testing.T) {
	ts := newTestServer(t)
	token, _ := obtainToken(t, ts, testAPIKey)

	// create
	resp := do(t, http.MethodPost, ts.URL+"/api/records/gigs", token, gigRow("g1", "owner1", "draft"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created api.Row
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.False(t, created.CreatedAt.IsZero())

	// duplicate create conflicts
	resp = do(t, http.MethodPost, ts.URL+"/api/records/gigs", token, gigRow("g1", "owner1", "draft"))
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// list by scope
	resp = do(t, http.MethodGet, ts.URL+"/api/records/gigs?scope=owner1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rows []*api.Row
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	resp.Body.Close()
	require.Len(t, rows, 1)
	assert.Equal(t, "g1", rows[0].ID)

	// update
	resp = do(t, http.MethodPut, ts.URL+"/api/records/gigs/g1", token, gigRow("g1", "owner1", "published"))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// body id must match the path
	resp = do(t, http.MethodPut, ts.URL+"/api/records/gigs/other", token, gigRow("g1", "owner1", "published"))
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// delete
	resp = do(t, http.MethodDelete, ts.URL+"/api/records/gigs/g1", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodDelete, ts.URL+"/api/records/gigs/g1", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateUnknownIDUpserts(t *testing.T) {
	ts := newTestServer(t)
	token, _ := obtainToken(t, ts, testAPIKey)

	resp := do(t, http.MethodPut, ts.URL+"/api/records/gigs/g9", token, gigRow("g9", "owner1", "draft"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/records/gigs", token, nil)
	var rows []*api.Row
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	resp.Body.Close()
	assert.Len(t, rows, 1)
}

func TestListEmptyIsArray(t *testing.T) {
	ts := newTestServer(t)
	token, _ := obtainToken(t, ts, testAPIKey)

	resp := do(t, http.MethodGet, ts.URL+"/api/records/gigs", token, nil)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestCreateInvalidBody(t *testing.T) {
	ts := newTestServer(t)
	token, _ := obtainToken(t, ts, testAPIKey)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/records/gigs", bytes.NewReader([]byte("{oops")))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
