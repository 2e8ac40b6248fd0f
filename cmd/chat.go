package cmd

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/psds-microservice/apihub-assistant/internal/application"
	"github.com/psds-microservice/apihub-assistant/internal/session"
	"github.com/psds-microservice/apihub-assistant/internal/tui"
	"github.com/spf13/cobra"
)

var chatContact string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatContact, "contact", "", "your contact, stored on escalated tickets")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The alternate screen owns the terminal; log lines go to a file instead.
	logFile, err := tea.LogToFile("apihub-assistant-chat.log", "chat")
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	core, err := application.NewCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = core.Close(closeCtx)
	}()

	sess := session.New(uuid.NewString(), chatContact)
	_, err = tea.NewProgram(tui.NewModel(ctx, core.Assistant, sess), tea.WithAltScreen()).Run()
	return err
}
