package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/finlens/ledgersync/internal/services"
)

type contextKey string

const claimsKey contextKey = "claims"

// Authenticate validates the bearer token, checks its session is still
// live, and puts the resolved claims on the request context. Everything
// behind it can assume a tenant.
func Authenticate(auth *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := auth.Authenticate(r.Context(), strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimsFrom(ctx context.Context) (*services.TokenClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*services.TokenClaims)
	return claims, ok
}

// companyID resolves the caller's tenant from the request context.
func companyID(r *http.Request) (uuid.UUID, bool) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	return claims.CompanyID, true
}
