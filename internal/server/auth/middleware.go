package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gigmatch/livesync/internal/api"
	"github.com/gigmatch/livesync/internal/common"
	"github.com/gigmatch/livesync/internal/logging"
)

type ctxKey int

const clientIDKey ctxKey = iota

// ClientIDFromContext returns the authenticated client id, if any.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey).(string)
	return id, ok
}

// Middleware rejects requests without a valid access token. The token is read
// from the Authorization header, or from the access_token query parameter for
// websocket clients that cannot set headers.
func Middleware(secretKey []byte, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				unauthorized(w, "missing access token")
				return
			}

			clientID, err := GetClientIDFromToken(token, secretKey)
			if err != nil {
				log.Warn(r.Context(), "rejected request", "path", r.URL.Path, "error", err)
				unauthorized(w, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), clientIDKey, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	header := r.Header.Get(common.AccessTokenHeaderName)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get(common.AccessTokenQueryParam)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: msg})
}
