// Package httpapi exposes the backend over HTTP: token exchange, record CRUD
// and the websocket change feed.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/gigmatch/livesync/internal/api"
	"github.com/gigmatch/livesync/internal/common"
	"github.com/gigmatch/livesync/internal/logging"
	"github.com/gigmatch/livesync/internal/server/auth"
	"github.com/gigmatch/livesync/internal/server/records"
	"github.com/gigmatch/livesync/internal/server/store"
)

type Router struct {
	svc        *records.Service
	feed       http.Handler
	log        logging.Logger
	secretKey  []byte
	apiKeyHash string
	tokenTTL   time.Duration
}

func New(svc *records.Service, feed http.Handler, log logging.Logger, secretKey []byte, apiKeyHash string, tokenTTL time.Duration) http.Handler {
	rt := &Router{
		svc:        svc,
		feed:       feed,
		log:        log.With("module", "httpapi"),
		secretKey:  secretKey,
		apiKeyHash: apiKeyHash,
		tokenTTL:   tokenTTL,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/auth/token", rt.token)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(rt.secretKey, rt.log))

		r.Route("/api/records/{collection}", func(r chi.Router) {
			r.Get("/", rt.list)
			r.Post("/", rt.create)
			r.Put("/{id}", rt.update)
			r.Delete("/{id}", rt.delete)
		})

		r.Get("/feed/{collection}", rt.feed.ServeHTTP)
	})

	return r
}

func (rt *Router) token(w http.ResponseWriter, r *http.Request) {
	var req api.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rt.writeError(w, r, common.ErrorInvalidRecord)
		return
	}

	if err := auth.VerifyAPIKey(req.APIKey, rt.apiKeyHash); err != nil {
		rt.writeError(w, r, err)
		return
	}

	token, err := auth.GenerateToken(uuid.NewString(), rt.secretKey, rt.tokenTTL)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	rt.writeJSON(w, http.StatusOK, api.TokenResponse{AccessToken: token})
}

func (rt *Router) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.Filter{
		Scope:  q.Get("scope"),
		Status: q.Get("status"),
		IDs:    q["id"],
	}

	rows, err := rt.svc.List(r.Context(), chi.URLParam(r, "collection"), f)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []*api.Row{}
	}
	rt.writeJSON(w, http.StatusOK, rows)
}

func (rt *Router) create(w http.ResponseWriter, r *http.Request) {
	row, err := decodeRow(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	created, err := rt.svc.Create(r.Context(), chi.URLParam(r, "collection"), row)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusCreated, created)
}

func (rt *Router) update(w http.ResponseWriter, r *http.Request) {
	row, err := decodeRow(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if id := chi.URLParam(r, "id"); row.ID != id {
		rt.writeError(w, r, common.ErrorInvalidRecord)
		return
	}

	updated, err := rt.svc.Update(r.Context(), chi.URLParam(r, "collection"), row)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, updated)
}

func (rt *Router) delete(w http.ResponseWriter, r *http.Request) {
	err := rt.svc.Delete(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeRow(r *http.Request) (*api.Row, error) {
	var row api.Row
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		return nil, common.ErrorInvalidRecord
	}
	return &row, nil
}

func (rt *Router) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrorConflict):
		status = http.StatusConflict
	case errors.Is(err, common.ErrorInvalidRecord), errors.Is(err, common.ErrorInvalidCollection):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrInvalidAPIKey), errors.Is(err, common.ErrorUnauthorized):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		rt.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	rt.writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}
