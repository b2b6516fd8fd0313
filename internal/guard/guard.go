// Package guard gates protected content on the presence of a session token.
//
// The guard only checks that a token is present. Whether the token is still
// valid is for the protected handler (or the API behind it) to decide; a
// rejected token comes back as a 401 that the client wrapper turns into a
// logout.
package guard

import (
	"context"
	"net/http"
	"strings"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/login"

// TokenCookie is the cookie Provide reads when no bearer header is sent.
const TokenCookie = "token"

type Outcome int

const (
	// Nothing: no auth context at all, the auth state is indeterminate.
	Nothing Outcome = iota
	Redirect
	Render
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "nothing"
	}
}

// AuthContext is the client-side view of the session.
type AuthContext struct {
	Token string
}

type ctxKey struct{}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, ac)
}

func AuthFromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(ctxKey{}).(AuthContext)
	return ac, ok
}

// Decide picks what a guarded route shows for ctx.
func Decide(ctx context.Context) Outcome {
	ac, ok := AuthFromContext(ctx)
	if !ok {
		return Nothing
	}
	if ac.Token == "" {
		return Redirect
	}
	return Render
}

// Provide installs an AuthContext built from the bearer header, falling
// back to the token cookie.
func Provide(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), AuthContext{Token: requestToken(r)})))
	})
}

// Middleware renders next only when Decide says so. loginPath is the
// redirect target, LoginPath when empty.
func Middleware(loginPath string) func(http.Handler) http.Handler {
	if loginPath == "" {
		loginPath = LoginPath
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch Decide(r.Context()) {
			case Render:
				next.ServeHTTP(w, r)
			case Redirect:
				http.Redirect(w, r, loginPath, http.StatusFound)
			default:
				w.WriteHeader(http.StatusNoContent)
			}
		})
	}
}

func requestToken(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); authz != "" {
		if tok, ok := strings.CutPrefix(authz, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}
