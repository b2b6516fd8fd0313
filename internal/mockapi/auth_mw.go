package mockapi

import (
	"context"
	"net/http"
	"strings"

	"MockShop/internal/auth"
	"MockShop/pkg/kit"
)

type ctxKey string

const claimsKey ctxKey = "claims"

func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(auth.Claims)
	return c, ok
}

// RequireBearer rejects requests without a verifiable bearer token. A
// missing header and a bad token get different messages.
func RequireBearer(tokens *auth.TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" {
				kit.WriteError(w, r, http.StatusUnauthorized, "Unauthorized", nil)
				return
			}

			tok, ok := strings.CutPrefix(authz, "Bearer ")
			if !ok {
				kit.WriteError(w, r, http.StatusUnauthorized, "Invalid token", nil)
				return
			}

			claims, err := tokens.Verify(strings.TrimSpace(tok))
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "Invalid token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}
