package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/dealerhub/dealerhub/internal/api"
	"github.com/dealerhub/dealerhub/internal/catalog"
	"github.com/dealerhub/dealerhub/internal/database"
	"github.com/dealerhub/dealerhub/internal/scheduler"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dealerhub server",
	Long:  `Start the HTTP server that serves the catalog, dealer, review and identity endpoints.`,
	Example: `dealerhub serve --config config.yml
dealerhub serve -c /path/to/config.yml --log-level debug
`,
	RunE: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// seed eagerly so the first catalog request does not pay for it
	if err := catalog.New(db).EnsureSeeded(ctx); err != nil {
		log.Warn("failed to seed car catalog, retrying on first request", "error", err)
	}

	server, err := api.New(cfg, db)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	if cfg.SessionCleanupInterval > 0 {
		sched, err := scheduler.New()
		if err != nil {
			return err
		}
		if err := sched.AddSessionCleanup(db, cfg.SessionCleanupInterval); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop() //nolint:errcheck
	}

	log.Info("dealerhub started successfully")
	return server.Run(ctx)
}
