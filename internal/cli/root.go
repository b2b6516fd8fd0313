// Package cli implements shopctl, a terminal front end for the MockShop API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"MockShop/internal/client"
	"MockShop/internal/config"
	"MockShop/internal/guard"
	"MockShop/internal/mockapi"
	"MockShop/pkg/kit"
)

var errNotLoggedIn = errors.New("not logged in: run 'shopctl login' first")

const inProcessHost = "http://mockshop.in-process"

type app struct {
	server    string
	tokenFile string
	inProcess bool
	dataFile  string
	logLevel  string

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	log     *zap.Logger
	tokens  client.TokenStore
	api     *client.Client
	closers []func() error
}

// defaultServer returns the API URL, checking MOCKSHOP_SERVER first.
func defaultServer() string {
	if s := os.Getenv("MOCKSHOP_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080/api"
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "shopctl-session.db"
	}
	return filepath.Join(home, ".mockshop", "session.db")
}

// Execute runs shopctl with args and releases every resource it opened,
// whether the command succeeded or not.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	a := &app{in: in, out: out, errOut: errOut}
	defer a.close()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shopctl",
		Short: "Browse the MockShop catalog from the terminal",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.server, "server", defaultServer(), "API base URL including the base path (or MOCKSHOP_SERVER env)")
	pf.StringVar(&a.tokenFile, "token-file", defaultTokenFile(), "file the session token is kept in")
	pf.BoolVar(&a.inProcess, "in-process", false, "serve the API inside shopctl instead of calling --server")
	pf.StringVar(&a.dataFile, "data", "", "product snapshot file for --in-process (memory when empty)")
	pf.StringVar(&a.logLevel, "log-level", "error", "log level (debug, info, warn, error)")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoAmICmd(),
		a.productsCmd(),
		a.productCmd(),
		a.commentCmd(),
	)

	return root
}

func (a *app) setup(ctx context.Context) error {
	a.log = kit.NewLogger("shopctl", a.logLevel)
	a.closers = append(a.closers, func() error { _ = a.log.Sync(); return nil })

	if err := os.MkdirAll(filepath.Dir(a.tokenFile), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	tokens, err := client.OpenBoltTokenStore(a.tokenFile)
	if err != nil {
		return err
	}
	a.tokens = tokens
	a.closers = append(a.closers, tokens.Close)

	baseURL := a.server
	var transport http.RoundTripper
	if a.inProcess {
		transport, baseURL, err = a.inProcessTransport(ctx)
		if err != nil {
			return err
		}
	}

	a.api = client.New(client.Options{
		BaseURL:   baseURL,
		Transport: transport,
		Tokens:    a.tokens,
		Navigator: client.NavigatorFunc(a.navigate),
		Log:       a.log,
	})
	return nil
}

func (a *app) inProcessTransport(ctx context.Context) (http.RoundTripper, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	if a.dataFile != "" {
		cfg.StoreBackend = config.BackendFile
		cfg.StorePath = a.dataFile
	}

	srv, closeFn, err := mockapi.NewServer(ctx, cfg, a.log)
	if err != nil {
		return nil, "", err
	}
	a.closers = append(a.closers, closeFn)

	h := mockapi.NewHandler(srv, mockapi.DepsFromConfig(cfg, "shopctl", a.log, nil))
	return &mockapi.Transport{Handler: h}, inProcessHost + cfg.BasePath, nil
}

func (a *app) navigate(path string) {
	fmt.Fprintf(a.errOut, "session ended, go to %s: run 'shopctl login'\n", path)
}

// requireSession applies the route guard to a protected command and scopes
// its requests so a rejected token is handled once.
func (a *app) requireSession(cmd *cobra.Command) (context.Context, error) {
	ctx := cmd.Context()

	tok, err := a.tokens.Token(ctx)
	if err != nil && !errors.Is(err, client.ErrNoToken) {
		return nil, err
	}

	if guard.Decide(guard.WithAuth(ctx, guard.AuthContext{Token: tok})) != guard.Render {
		return nil, errNotLoggedIn
	}
	return client.WithRedirectOnce(ctx), nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.log != nil {
			a.log.Warn("close", zap.Error(err))
		}
	}
	a.closers = nil
}
