// Package client talks to the MockShop API the way the storefront does:
// the stored token rides along on every call and a rejected token ends the
// session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"MockShop/internal/catalog"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }

func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

func hasStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

type Options struct {
	// BaseURL includes the API base path, e.g. http://localhost:8080/api.
	BaseURL string

	// Transport carries the requests. http.DefaultTransport when nil; a
	// mockapi.Transport keeps everything in-process.
	Transport http.RoundTripper
	Tokens    TokenStore
	Navigator Navigator
	Log       *zap.Logger
	Timeout   time.Duration
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenStore
}

func New(opts Options) *Client {
	baseURL := opts.BaseURL
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.Tokens == nil {
		opts.Tokens = NewMemTokenStore()
	}
	if opts.Navigator == nil {
		opts.Navigator = NavigatorFunc(func(string) {})
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	hc := &http.Client{Timeout: opts.Timeout}
	hc.Transport = &authTransport{
		base:   opts.Transport,
		tokens: opts.Tokens,
		nav:    opts.Navigator,
		log:    opts.Log,
	}
	// A guard redirect is an answer, not something to follow.
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		BaseURL: baseURL,
		HTTP:    hc,
		Tokens:  opts.Tokens,
	}
}

// Login exchanges credentials for a token and stores it.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("login: empty token in response")
	}

	if err := c.Tokens.SetToken(ctx, resp.Token); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Tokens.ClearToken(ctx)
}

func (c *Client) Products(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) Product(ctx context.Context, id int) (catalog.Product, error) {
	var p catalog.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &p); err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

func (c *Client) AddComment(ctx context.Context, productID int, comment catalog.Comment) (catalog.Comment, error) {
	var created catalog.Comment
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/products/%d/comments", productID), comment, &created); err != nil {
		return catalog.Comment{}, err
	}
	return created, nil
}

type Identity struct {
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *Client) WhoAmI(ctx context.Context) (Identity, error) {
	var id Identity
	if err := c.do(ctx, http.MethodGet, "/whoami", nil, &id); err != nil {
		return Identity{}, err
	}
	return id, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	if loc := resp.Header.Get("Location"); resp.StatusCode >= 300 && resp.StatusCode < 400 && loc != "" {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &APIError{Status: resp.StatusCode, Message: "redirected to " + loc}
	}

	var e struct {
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &e); err != nil || e.Message == "" {
		e.Message = strings.TrimSpace(string(raw))
	}
	return &APIError{Status: resp.StatusCode, Message: e.Message}
}
