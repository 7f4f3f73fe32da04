package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/wellness-assistant/wellness-web-ui/internal/chat"
	"github.com/wellness-assistant/wellness-web-ui/internal/wellness"
)

var (
	apiURL  string
	logPath string
)

var rootCmd = &cobra.Command{
	Use:   "wellness-tui",
	Short: "Chat with the wellness assistant in the terminal",
	Long: `A terminal front-end for the wellness assistant.

Type a question and press Enter. Commands:
  /topic <id>  ask the canned question of a topic (nutrition, exercise, sleep, stress, hydration, checkup)
  /clear       clear the conversation (also Ctrl+L)
  /quit        leave (also Ctrl+C)`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := wellness.LoadEnv()
		if err != nil {
			return err
		}
		if apiURL != "" {
			env.BackendURL = apiURL
		}

		logger, closeLog, err := newLogger(logPath)
		if err != nil {
			return err
		}
		defer closeLog()

		api := wellness.NewClient(env.BackendURL, logger)
		logger.Info("Using wellness backend", slog.String("api", api.BaseURL()))

		listener := &programListener{}
		session := chat.NewSession(api, listener, logger)

		p := tea.NewProgram(newModel(cmd.Context(), session), tea.WithAltScreen())
		listener.send = p.Send

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running program: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&apiURL, "api", "", "base URL of the wellness backend (overrides WELLNESS_BACKEND_URL)")
	rootCmd.Flags().StringVar(&logPath, "log", "", "write debug logs to this file")
}

// newLogger logs to path at debug level, or nowhere when path is empty, since the terminal belongs to the UI.
func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { _ = f.Close() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
