// teaserctl is the command-line client for the Kelp investment-teaser
// platform: create project workspaces, upload source documents, trigger
// teaser generation, and watch progress on a live dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kelp-ai/teaserctl/config"
	"github.com/kelp-ai/teaserctl/internal/api"
	"github.com/kelp-ai/teaserctl/internal/session"
)

var (
	// Global flags
	verbose   bool
	serverURL string
	tokenPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "teaserctl",
	Short: "Client for the Kelp investment-teaser platform",
	Long: `teaserctl drives the teaser generation backend from the terminal:
manage project workspaces, upload financial documents, trigger slide-deck
generation, and follow progress on a polling dashboard.

The backend URL comes from KELP_API_URL (or --server).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if serverURL != "" {
			cfg.Backend.URL = serverURL
		}
		if tokenPath != "" {
			cfg.Backend.TokenPath = tokenPath
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// tokenStore returns the configured credential store.
func tokenStore() (session.Store, error) {
	path := cfg.Backend.TokenPath
	if path == "" {
		var err error
		path, err = session.DefaultTokenPath()
		if err != nil {
			return nil, err
		}
	}
	return session.NewFileStore(path), nil
}

// backendClient wires the API client against the configured backend.
func backendClient(store session.Store) *api.Client {
	return api.NewClient(cfg.Backend.URL, store, api.WithLogger(logger))
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "backend URL (overrides KELP_API_URL)")
	rootCmd.PersistentFlags().StringVar(&tokenPath, "token-path", "", "path to the stored session credential")

	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd)
	rootCmd.AddCommand(listCmd, createCmd, uploadCmd, generateCmd, downloadCmd, deleteCmd)
	rootCmd.AddCommand(dashCmd, demoCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
