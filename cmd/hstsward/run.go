package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seslattery/hstsward/internal/config"
	"github.com/seslattery/hstsward/internal/hsts"
	"github.com/seslattery/hstsward/internal/logging"
	"github.com/seslattery/hstsward/internal/policy"
	"github.com/seslattery/hstsward/internal/proxy"
	"github.com/seslattery/hstsward/internal/wrap"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- command [args...]",
	Short: "Run a command with its HTTP traffic routed through the proxy",
	Long: `Run starts the enforcing proxy on an ephemeral port, executes the
given command with HTTP_PROXY and HTTPS_PROXY pointing at it, and
persists any newly learned policy when the command exits.

Example:
  hstsward run -- curl http://example.com/`,
	DisableFlagsInUseLine: true,
	RunE:                  runWrapped,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runWrapped(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("command required after --")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
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

	prx, err := proxy.New("127.0.0.1:0", store, excl, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go func() {
		if serveErr := prx.Start(ctx); serveErr != nil && ctx.Err() == nil {
			logger.Error("proxy stopped", "error", serveErr)
		}
	}()
	defer prx.Close()

	runner := wrap.New(prx.Addr())
	runErr := runner.Run(ctx, args[0], args[1:], os.Environ())

	if store.Changed() {
		store.Save(dbPath)
	}
	return runErr
}
