package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"whatsgram/internal/app/account"
	"whatsgram/internal/app/api"
	"whatsgram/internal/app/chat"
	"whatsgram/internal/app/gate"
	"whatsgram/internal/app/session"
	"whatsgram/internal/app/storage"
	"whatsgram/internal/pkg/logx"
	"whatsgram/internal/ui"
)

func runClient(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "whatsgram.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	logx.InitGlobalLogger(cfg.IsDevelopment(), logFile)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("api_base_url", cfg.APIBaseURL).
		Str("presence_url", cfg.PresenceURL).
		Dur("poll_interval", cfg.PollInterval).
		Msg("Configuration loaded successfully")

	local, err := storage.NewLocalStorage(storage.ServiceConfig{Dir: filepath.Join(cfg.DataDir, "store")})
	if err != nil {
		return fmt.Errorf("failed to open local storage: %w", err)
	}
	defer local.Close()

	sessions := session.NewStore(local)

	client, err := api.NewClient(api.Config{
		BaseURL:     cfg.APIBaseURL,
		Timeout:     cfg.RequestTimeout,
		RequestRate: cfg.RequestRate,
	}, sessions)
	if err != nil {
		return err
	}
	defer client.Close()

	manager := chat.NewManager(chat.Options{
		API:          client,
		Sessions:     sessions,
		Dialer:       chat.WebsocketDialer{URL: cfg.PresenceURL},
		PollInterval: cfg.PollInterval,
	})
	defer manager.Close()

	accounts := account.NewService(client, sessions)

	program := tea.NewProgram(ui.New(accounts, manager, gate.RouteHome), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		logx.Error(err, "TUI exited with error")
		return err
	}

	logx.Info("Client stopped.")
	return nil
}
