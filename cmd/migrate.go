package cmd

import (
	"fmt"

	"github.com/dealerhub/dealerhub/internal/catalog"
	"github.com/dealerhub/dealerhub/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Run database migrations, seed the car catalog if it is empty and purge expired sessions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		if err := catalog.New(db).EnsureSeeded(cmd.Context()); err != nil {
			return err
		}

		purged, err := db.DeleteExpiredSessions(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to purge sessions: %w", err)
		}

		fmt.Println("Database migrations completed successfully!")
		fmt.Printf("Purged %d expired sessions\n", purged)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
