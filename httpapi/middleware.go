package httpapi

import (
	"context"
	"net/http"
	"strings"

	"zchat/auth"
	"zchat/domain"
	"zchat/errors"
)

type ctxKey int

const userKey ctxKey = iota

// authMiddleware validates the bearer token and stashes the caller's user id
// on the request context.
func authMiddleware(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				writeError(w, errors.ErrUnauthorized)
				return
			}
			claims, err := tokens.Validate(token)
			if err != nil {
				writeError(w, errors.ErrUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func callerID(r *http.Request) domain.UserID {
	id, _ := r.Context().Value(userKey).(domain.UserID)
	return id
}
