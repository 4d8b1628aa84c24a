package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tripsplit/tripsplitd/internal/config"
	"github.com/tripsplit/tripsplitd/internal/server"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb/postgres"
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the tripsplitd HTTP API",
	Long: `Start the tripsplitd server: the JSON HTTP API for trips, expenses,
payments, balances, invites and friends, backed by PostgreSQL or SQLite.

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Set server as the default command
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServer(cmd, args)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storeCfg := cfg.Database.ToStoreConfig()
	repos, err := postgres.NewRepositoryManager(storeCfg)
	if err != nil {
		return err
	}

	mgr := relationaldb.NewManager(repos, storeCfg)
	if err := mgr.Open(ctx); err != nil {
		return err
	}
	defer func() {
		// Shutdown still flushes after the signal context is done.
		_ = mgr.Close(context.Background())
	}()

	srv, err := server.New(cfg, mgr.GetRepositoryManager())
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Printf("tripsplitd listening on %s (driver: %s)\n", cfg.Server.Addr(), storeCfg.Driver)
	}

	return srv.Run(ctx)
}
