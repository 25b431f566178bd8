package ui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DaanHessen/one-choice/internal/game"
)

// Run boots the TUI program and blocks until it exits.
func Run(ctx context.Context, ctrl *game.Controller, theme string, log *slog.Logger) error {
	m := initialModel(ctx, ctrl, theme, log)
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
