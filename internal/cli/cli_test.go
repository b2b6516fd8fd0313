package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MockShop/internal/client"
)

type session struct {
	t    *testing.T
	args []string
}

func newSession(t *testing.T) *session {
	t.Helper()
	t.Setenv("RESPONSE_DELAY", "0s")
	t.Setenv("STORE_BACKEND", "memory")

	dir := t.TempDir()
	return &session{
		t: t,
		args: []string{
			"--in-process",
			"--token-file", filepath.Join(dir, "session.db"),
			"--data", filepath.Join(dir, "products.json"),
		},
	}
}

func (s *session) tokenFile() string { return s.args[2] }

func (s *session) run(stdin string, args ...string) (string, string, error) {
	s.t.Helper()

	var out, errOut bytes.Buffer
	err := Execute(context.Background(), append(append([]string{}, s.args...), args...), strings.NewReader(stdin), &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestShopctl_FullSession(t *testing.T) {
	s := newSession(t)

	_, _, err := s.run("", "products")
	require.ErrorIs(t, err, errNotLoggedIn)

	out, _, err := s.run("user123\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as user")

	out, _, err = s.run("", "products")
	require.NoError(t, err)
	assert.Contains(t, out, "Wireless Headphones")
	assert.Contains(t, out, "Desk Lamp")

	out, _, err = s.run("", "comment", "1", "--content", "Crisp highs", "--rating", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "added by user (5.0)")

	out, _, err = s.run("", "product", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Rating:  4.0")
	assert.Contains(t, out, "Crisp highs")

	out, _, err = s.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "User:    user")

	_, _, err = s.run("", "logout")
	require.NoError(t, err)

	_, _, err = s.run("", "whoami")
	require.ErrorIs(t, err, errNotLoggedIn)
}

func TestShopctl_WrongPassword(t *testing.T) {
	s := newSession(t)

	_, _, err := s.run("", "login", "--password", "nope")
	require.Error(t, err)
	assert.True(t, client.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "Invalid username or password")
}

func TestShopctl_StaleTokenEndsSession(t *testing.T) {
	s := newSession(t)

	tokens, err := client.OpenBoltTokenStore(s.tokenFile())
	require.NoError(t, err)
	require.NoError(t, tokens.SetToken(context.Background(), "stale"))
	require.NoError(t, tokens.Close())

	_, errOut, err := s.run("", "products")
	require.Error(t, err)
	assert.True(t, client.IsUnauthorized(err))
	assert.Equal(t, 1, strings.Count(errOut, "session ended, go to /login"))

	_, _, err = s.run("", "products")
	require.ErrorIs(t, err, errNotLoggedIn)
}

func TestShopctl_UnknownProduct(t *testing.T) {
	s := newSession(t)

	_, _, err := s.run("", "login", "-p", "user123")
	require.NoError(t, err)

	_, _, err = s.run("", "product", "42")
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))

	_, _, err = s.run("", "product", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a number")
}

func TestPromptPassword_Terminal(t *testing.T) {
	origFd, origRead := terminalFd, readPassword
	t.Cleanup(func() { terminalFd, readPassword = origFd, origRead })

	terminalFd = func(io.Reader) (int, bool) { return 7, true }
	readPassword = func(fd int) ([]byte, error) {
		if fd != 7 {
			return nil, errors.New("wrong fd")
		}
		return []byte("user123"), nil
	}

	var w bytes.Buffer
	pw, err := promptPassword(strings.NewReader(""), &w)
	require.NoError(t, err)
	assert.Equal(t, "user123", pw)
	assert.Equal(t, "Password: \n", w.String())
}

func TestPromptPassword_Pipe(t *testing.T) {
	var w bytes.Buffer

	pw, err := promptPassword(strings.NewReader("secret\r\nignored\n"), &w)
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)

	_, err = promptPassword(strings.NewReader(""), &w)
	assert.Error(t, err)
}
