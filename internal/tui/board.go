package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"habitline/internal/engine"
)

// RunBoard shows today's tasks until the user quits. store must be loaded.
func RunBoard(ctx context.Context, store *engine.Store, out io.Writer) error {
	m := newBoardModel(ctx, store, store.Env().Now)
	p := tea.NewProgram(m, tea.WithOutput(out), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
