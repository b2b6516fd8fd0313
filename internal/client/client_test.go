package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"MockShop/internal/auth"
	"MockShop/internal/catalog"
	"MockShop/internal/client"
	"MockShop/internal/mockapi"
)

type navRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (n *navRecorder) Navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *navRecorder) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

func newInProcessClient(t *testing.T) (*client.Client, *navRecorder) {
	t.Helper()

	users, err := auth.NewDemoUserStore()
	require.NoError(t, err)
	seed, err := catalog.SeedProducts()
	require.NoError(t, err)

	s := &mockapi.Server{
		Log:      zap.NewNop(),
		Users:    users,
		Tokens:   auth.NewTokenMaker("client-test-secret-0123"),
		Products: catalog.NewStore(catalog.NewMemRepository(), seed),
	}
	h := mockapi.NewHandler(s, mockapi.HTTPDeps{Log: zap.NewNop(), BasePath: "/api"})

	nav := &navRecorder{}
	c := client.New(client.Options{
		BaseURL:   "http://mockshop.local/api/",
		Transport: &mockapi.Transport{Handler: h},
		Navigator: nav,
	})
	return c, nav
}

func TestLoginThenBrowse(t *testing.T) {
	ctx := context.Background()
	c, nav := newInProcessClient(t)

	tok, err := c.Login(ctx, auth.DemoUsername, auth.DemoPassword)
	require.NoError(t, err)

	stored, err := c.Tokens.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, tok, stored)

	products, err := c.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 6)

	p, err := c.Product(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "4K Monitor", p.Name)

	who, err := c.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.DemoUsername, who.Username)

	assert.Empty(t, nav.Paths())
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	c, nav := newInProcessClient(t)

	_, err := c.Login(ctx, "user", "wrong")
	require.Error(t, err)
	assert.True(t, client.IsUnauthorized(err))

	var ae *client.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Invalid username or password", ae.Message)

	_, err = c.Tokens.Token(ctx)
	assert.ErrorIs(t, err, client.ErrNoToken)
	assert.Equal(t, []string{client.LoginPath}, nav.Paths())
}

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	c, _ := newInProcessClient(t)

	_, err := c.Login(ctx, auth.DemoUsername, auth.DemoPassword)
	require.NoError(t, err)

	created, err := c.AddComment(ctx, 5, catalog.Comment{Content: "works", Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, auth.DemoUsername, created.Username)
	assert.NotZero(t, created.ID)
	assert.NotEmpty(t, created.Date)

	p, err := c.Product(ctx, 5)
	require.NoError(t, err)
	require.Len(t, p.Comments, 2)
	assert.Equal(t, "works", p.Comments[0].Content)
	assert.InDelta(t, 3.0, p.Rating, 1e-9)
}

func TestWithoutTokenRequestGoesOutUnauthenticated(t *testing.T) {
	ctx := context.Background()
	c, nav := newInProcessClient(t)

	_, err := c.Products(ctx)
	require.Error(t, err)

	var ae *client.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.Equal(t, "Unauthorized", ae.Message)
	assert.Equal(t, []string{client.LoginPath}, nav.Paths())
}

func TestRejectedTokenIsClearedAndSessionSentToLogin(t *testing.T) {
	ctx := context.Background()
	c, nav := newInProcessClient(t)

	require.NoError(t, c.Tokens.SetToken(ctx, "stale"))

	_, err := c.Product(ctx, 1)
	require.Error(t, err)
	assert.True(t, client.IsUnauthorized(err))

	var ae *client.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Invalid token", ae.Message)

	_, err = c.Tokens.Token(ctx)
	assert.ErrorIs(t, err, client.ErrNoToken)
	assert.Equal(t, []string{client.LoginPath}, nav.Paths())
}

func TestRedirectHappensOncePerScope(t *testing.T) {
	c, nav := newInProcessClient(t)
	ctx := client.WithRedirectOnce(context.Background())

	require.NoError(t, c.Tokens.SetToken(ctx, "stale"))

	for i := 0; i < 3; i++ {
		_, err := c.Products(ctx)
		require.True(t, client.IsUnauthorized(err), "attempt %d: %v", i, err)
	}
	assert.Equal(t, []string{client.LoginPath}, nav.Paths())

	_, err := c.Products(context.Background())
	require.True(t, client.IsUnauthorized(err))
	assert.Len(t, nav.Paths(), 2)
}

func TestOtherStatusesPassThrough(t *testing.T) {
	ctx := context.Background()
	c, nav := newInProcessClient(t)

	_, err := c.Login(ctx, auth.DemoUsername, auth.DemoPassword)
	require.NoError(t, err)

	_, err = c.Product(ctx, 999)
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
	assert.False(t, client.IsUnauthorized(err))

	_, err = c.AddComment(ctx, 1, catalog.Comment{Content: "x", Rating: 9})
	var ae *client.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadRequest, ae.Status)

	_, err = c.Tokens.Token(ctx)
	assert.NoError(t, err)
	assert.Empty(t, nav.Paths())
}

func TestWhoAmI_GuardRedirectSurfaces(t *testing.T) {
	c, _ := newInProcessClient(t)

	_, err := c.WhoAmI(context.Background())

	var ae *client.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusFound, ae.Status)
	assert.Equal(t, "redirected to /api/login", ae.Message)
}

func TestBearerHeaderOverNetwork(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	ctx := context.Background()
	c := client.New(client.Options{BaseURL: ts.URL})

	_, err := c.Products(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Tokens.SetToken(ctx, "abc"))
	_, err = c.Products(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Logout(ctx))
	_, err = c.Products(ctx)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"", "Bearer abc", ""}, seen)
}

func TestMemTokenStore(t *testing.T) {
	ctx := context.Background()
	s := client.NewMemTokenStore()

	_, err := s.Token(ctx)
	require.ErrorIs(t, err, client.ErrNoToken)

	require.NoError(t, s.SetToken(ctx, "t1"))
	got, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", got)

	require.NoError(t, s.ClearToken(ctx))
	_, err = s.Token(ctx)
	assert.ErrorIs(t, err, client.ErrNoToken)
}

func TestBoltTokenStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := client.OpenBoltTokenStore(path)
	require.NoError(t, err)

	_, err = s.Token(ctx)
	require.ErrorIs(t, err, client.ErrNoToken)
	require.NoError(t, s.SetToken(ctx, "persisted"))
	require.NoError(t, s.Close())

	s, err = client.OpenBoltTokenStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got)

	require.NoError(t, s.ClearToken(ctx))
	_, err = s.Token(ctx)
	assert.ErrorIs(t, err, client.ErrNoToken)
}
