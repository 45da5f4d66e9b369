package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seslattery/hstsward/internal/config"
	"github.com/seslattery/hstsward/internal/hsts"
	"github.com/seslattery/hstsward/internal/logging"
	"github.com/seslattery/hstsward/internal/policy"
	"github.com/seslattery/hstsward/internal/proxy"
)

var (
	cfgFile  string
	logLevel string
	hstsFile string
	listen   string
)

var rootCmd = &cobra.Command{
	Use:   "hstsward",
	Short: "HSTS-enforcing local HTTP proxy",
	Long: `Hstsward runs a local forward proxy that remembers HTTP Strict
Transport Security policy and silently upgrades plain-HTTP requests
to HTTPS for hosts that have advertised it.

Example:
  hstsward --listen 127.0.0.1:8808
  hstsward run -- curl http://example.com/`,
	Version: "0.1.0",
	RunE:    runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.hstsward/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&hstsFile, "hsts-file", "", "known-hosts database file (default: XDG data dir)")
	rootCmd.Flags().StringVar(&listen, "listen", "", "proxy listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Proxy.Listen = listen
	}

	logger, cleanup, err := logging.Setup(logLevel)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer cleanup()

	dbPath, err := databasePath(cfg)
	if err != nil {
		return err
	}

	excl, err := policy.New(cfg.Policy.Exclude)
	if err != nil {
		return fmt.Errorf("compiling exclusions: %w", err)
	}

	store := hsts.Open(dbPath)
	defer store.Close()

	prx, err := proxy.New(cfg.Proxy.Listen, store, excl, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = prx.Start(ctx)
	if ctx.Err() != nil {
		err = nil // clean shutdown
	}

	if store.Changed() {
		store.Save(dbPath)
	}
	return err
}

// databasePath resolves the known-hosts file: flag, then config, then the
// XDG default.
func databasePath(cfg *config.Config) (string, error) {
	if hstsFile != "" {
		return hstsFile, nil
	}
	return cfg.DatabasePath()
}
