package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Dongwon38/wpyvr-sub000/internal/config"
	"github.com/Dongwon38/wpyvr-sub000/internal/identity"
	"github.com/Dongwon38/wpyvr-sub000/internal/store"
	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

// version is overridden via -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile      string
	baseURL      string
	outputFormat string
	verbose      bool
)

// env is the per-invocation wiring shared by all subcommands.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    store.Store
	cms      *client.Client
	firebase *identity.FirebaseProvider
	bridge   *identity.Bridge
}

var app *env

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wpyvr",
	Short: "wpyvr community site CLI",
	Long: `wpyvr reads the community site's posts, events, pages and hub, and
manages your member session and profile from the command line.

Sign in once with "wpyvr login"; the session is kept in ~/.wpyvr and
restored on every run.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		e, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		app = e
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app == nil {
			return
		}
		if err := app.store.Close(); err != nil {
			app.logger.Warn("close session store", zap.Error(err))
		}
		_ = app.logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.wpyvr/wpyvr.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "CMS base URL (overrides wp.base_url)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and degraded reads to stderr")

	rootCmd.AddCommand(versionCmd)
}

func newEnv(ctx context.Context) (*env, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		logger = l
	}

	cfg, err := config.Load(config.Options{File: cfgFile}, logger)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.WP.BaseURL = baseURL
		cfg.WP.HubURL = baseURL
	}

	st, err := store.Open(ctx, cfg.StoreOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	cms, err := client.New(cfg.WP.BaseURL, cfg.ClientOptions(logger)...)
	if err != nil {
		st.Close()
		return nil, err
	}

	hc := &http.Client{Timeout: cfg.HTTP.Timeout}
	fb := identity.NewFirebaseProvider(cfg.Firebase.APIKey, st,
		identity.WithFirebaseHTTPClient(hc),
		identity.WithFirebaseLogger(logger),
	)
	backend := identity.NewHTTPBackend(cms, identity.WithBackendHTTPClient(hc))

	return &env{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		cms:      cms,
		firebase: fb,
		bridge:   identity.NewBridge(fb, st, backend, logger),
	}, nil
}

// session restores the stored session and returns the bearer token, or an
// error telling the user to sign in.
func (e *env) session(ctx context.Context) (string, error) {
	if err := e.bridge.Restore(ctx); err != nil {
		var se *identity.SyncError
		if errors.As(err, &se) {
			return "", fmt.Errorf("session sync failed: %w", err)
		}
		return "", err
	}
	tok := e.bridge.AccessToken()
	if tok == "" {
		return "", errors.New(`not signed in; run "wpyvr login"`)
	}
	return tok, nil
}

// authFailed clears the local session when err is a 401 and rewrites the
// message accordingly.
func (e *env) authFailed(err error) error {
	if e.bridge.HandleAuthError(err) {
		return errors.New(`session expired; run "wpyvr login" again`)
	}
	return err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func jsonOutput() bool { return outputFormat == "json" }

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the wpyvr CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wpyvr %s\n", version)
	},
}
