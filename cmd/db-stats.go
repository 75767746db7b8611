package cmd

import (
	"fmt"

	"github.com/dealerhub/dealerhub/internal/database"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display statistics about users, sessions and the car catalog.`,
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

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Users: %s\n", humanize.Comma(stats.Users))
		fmt.Printf("Active Sessions: %s\n", humanize.Comma(stats.ActiveSessions))
		fmt.Printf("Car Makes: %s\n", humanize.Comma(stats.CarMakes))
		fmt.Printf("Car Models: %s\n", humanize.Comma(stats.CarModels))
		if stats.LastLogin != nil {
			fmt.Printf("Last Login: %s\n", humanize.Time(*stats.LastLogin))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}
