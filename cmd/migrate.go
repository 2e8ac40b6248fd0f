package cmd

import (
	"fmt"
	"log"

	"github.com/psds-microservice/apihub-assistant/internal/config"
	"github.com/psds-microservice/apihub-assistant/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrateUp,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateStore(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		log.Printf("migrate up: nothing to do for store %q", cfg.StoreDriver)
		return nil
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Println("migrate up: ok")
	return nil
}
