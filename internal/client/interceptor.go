package client

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"
)

// LoginPath is where the session is sent after the API rejects its token.
const LoginPath = "/login"

type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type retryMark struct {
	done atomic.Bool
}

type markKey struct{}

// WithRedirectOnce scopes the 401 handling to ctx: however many requests
// are sent with the returned context, the token is cleared and the
// navigator called at most once.
func WithRedirectOnce(ctx context.Context) context.Context {
	return context.WithValue(ctx, markKey{}, &retryMark{})
}

// firstRejection reports whether this 401 is the first one seen for ctx.
// Without a scope every request counts as a fresh one.
func firstRejection(ctx context.Context) bool {
	m, ok := ctx.Value(markKey{}).(*retryMark)
	if !ok {
		return true
	}
	return m.done.CompareAndSwap(false, true)
}

// authTransport adds the stored bearer token to outgoing requests and logs
// the session out when the API answers 401.
type authTransport struct {
	base   http.RoundTripper
	tokens TokenStore
	nav    Navigator
	log    *zap.Logger
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	tok, err := t.tokens.Token(ctx)
	switch {
	case err == nil && tok != "":
		req = req.Clone(ctx)
		req.Header.Set("Authorization", "Bearer "+tok)
	case err != nil && !errors.Is(err, ErrNoToken):
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, err
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && firstRejection(ctx) {
		if err := t.tokens.ClearToken(ctx); err != nil {
			t.log.Warn("clear token after 401", zap.Error(err))
		}
		t.nav.Navigate(LoginPath)
	}

	return resp, nil
}
