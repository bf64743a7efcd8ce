package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rotisserie/eris"
)

// Run starts the terminal session and blocks until the user leaves or ctx
// is cancelled. It returns only after any attempt still in flight has
// finished.
func Run(ctx context.Context, f Fetcher, directory string, in io.Reader, out io.Writer) error {
	m := NewModel(ctx, f, directory)
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	_, err := p.Run()
	m.cancel()
	m.Wait()

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return eris.Wrap(err, "failed to run interactive session")
	}
	return nil
}
