package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/psds-microservice/apihub-assistant/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "apihub-assistant",
	Short: "APIHub support assistant: chat with escalation to tickets, usage dashboard",
	RunE:  runAPI,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(ticketsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(republishEventsCmd)
}

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	_ = godotenv.Load("../../.env") // repo root when running from bin/
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
