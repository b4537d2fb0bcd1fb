// Package client implements the data-access side of the sync client: the
// HTTP API wrapper, the typed collection adapters feeding the synchronizer,
// and relation enrichment.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gigmatch/livesync/internal/api"
	"github.com/gigmatch/livesync/internal/common"
	"github.com/gigmatch/livesync/internal/logging"
)

// API wraps the backend HTTP endpoints. A single instance is shared by all
// collection adapters; the access token is set once by Login and attached to
// every request.
type API struct {
	baseURL string
	http    *http.Client
	log     logging.Logger

	mu    sync.RWMutex
	token string
}

func NewAPI(baseURL string, log logging.Logger) *API {
	return &API{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.With("module", "client"),
	}
}

// Login exchanges the API key for an access token.
func (a *API) Login(ctx context.Context, apiKey string) error {
	body, err := json.Marshal(api.TokenRequest{APIKey: apiKey})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/token", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("error requesting token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var tr api.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return err
	}

	a.mu.Lock()
	a.token = tr.AccessToken
	a.mu.Unlock()
	return nil
}

// Token returns the current access token, empty before Login.
func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// ListRows fetches rows of a collection filtered by query. Supported keys:
// scope, status, id (repeatable).
func (a *API) ListRows(ctx context.Context, collection string, query url.Values) ([]*api.Row, error) {
	u := a.baseURL + "/api/records/" + collection
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rows []*api.Row
	if err := a.do(ctx, http.MethodGet, u, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (a *API) CreateRow(ctx context.Context, collection string, row *api.Row) (*api.Row, error) {
	out := &api.Row{}
	err := a.do(ctx, http.MethodPost, a.baseURL+"/api/records/"+collection, row, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) UpdateRow(ctx context.Context, collection string, row *api.Row) (*api.Row, error) {
	out := &api.Row{}
	err := a.do(ctx, http.MethodPut, a.baseURL+"/api/records/"+collection+"/"+row.ID, row, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) DeleteRow(ctx context.Context, collection, id string) error {
	return a.do(ctx, http.MethodDelete, a.baseURL+"/api/records/"+collection+"/"+id, nil, nil)
}

func (a *API) do(ctx context.Context, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := a.Token(); token != "" {
		req.Header.Set(common.AccessTokenHeaderName, "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("error performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// statusError maps HTTP statuses back to the shared sentinels so callers can
// use errors.Is regardless of transport.
func statusError(resp *http.Response) error {
	var er api.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&er)

	var sentinel error
	switch resp.StatusCode {
	case http.StatusNotFound:
		sentinel = common.ErrorNotFound
	case http.StatusConflict:
		sentinel = common.ErrorConflict
	case http.StatusBadRequest:
		sentinel = common.ErrorInvalidRecord
	case http.StatusUnauthorized:
		sentinel = common.ErrorUnauthorized
	default:
		sentinel = common.ErrorInternal
	}

	if er.Error != "" {
		return fmt.Errorf("%w: %s", sentinel, er.Error)
	}
	return fmt.Errorf("%w: status %d", sentinel, resp.StatusCode)
}
