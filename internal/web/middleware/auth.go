package middleware

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvbatch/internal/auth"
	"github.com/JonMunkholm/csvbatch/internal/core"
	"github.com/JonMunkholm/csvbatch/internal/logging"
)

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// BearerAuth resolves the owner identity from an "Authorization: Bearer"
// header and stores it with core.ContextWithOwner.
//
// A request without the header passes through with no owner, and the core
// rejects it with core.ErrUnauthorized. A header that is present but
// malformed or carries an invalid token is rejected here via reject.
func BearerAuth(tokens TokenValidator, reject func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				reject(w, r, core.ErrUnauthorized)
				return
			}

			claims, err := tokens.Validate(strings.TrimSpace(token))
			if err != nil {
				logging.FromContext(r.Context()).Warn("bearer token rejected",
					"path", r.URL.Path,
					"error", err,
				)
				reject(w, r, core.ErrUnauthorized)
				return
			}

			ctx := core.ContextWithOwner(r.Context(), claims.OwnerID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
