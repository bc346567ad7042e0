package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/realQhimself/dopamine-app/internal/engine"
)

// RunBoard starts the interactive board. overlay holds read-only
// calendar-derived tasks to display above the user's own.
func RunBoard(ctx context.Context, svc *engine.Service, overlay []engine.Task, out io.Writer) error {
	m := newBoardModel(ctx, svc, overlay)
	p := tea.NewProgram(m, tea.WithOutput(out))
	_, err := p.Run()
	return err
}
