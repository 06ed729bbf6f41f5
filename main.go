package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/staffdesk/internal/api"
	"github.com/sadopc/staffdesk/internal/config"
	"github.com/sadopc/staffdesk/internal/session"
	"github.com/sadopc/staffdesk/internal/store"
	"github.com/sadopc/staffdesk/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := openLog(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	s, err := store.New(cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	client := api.New(cfg.API.BaseURL, cfg.API.Timeout, logger)
	sessions := session.NewManager(s, client, cfg.Device.Token, logger)
	logger.Info("starting", "api", client.BaseURL())

	app := tui.NewApp(client, sessions, s, logger)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		logger.Error("program exited", "error", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// openLog writes JSON logs to the configured file; the terminal belongs to the TUI.
func openLog(c config.LogConfig) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(c.File), 0o700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: c.Level})).
		With(slog.String("app", "staffdesk"))
	return logger, func() { f.Close() }, nil
}
