package tui

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/monolythium/ubuntu-fetcher/internal/core"
)

// Fetcher runs one download attempt. *core.ImageFetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, req core.DownloadRequest, progress core.ProgressFunc) *core.FetchResult
}

// State is the stage of the interactive session.
type State int

const (
	StateURL State = iota
	StateFetching
	StateAnswer
	StateDone
)

func (s State) String() string {
	switch s {
	case StateURL:
		return "url"
	case StateFetching:
		return "fetching"
	case StateAnswer:
		return "answer"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Model is the bubbletea model for the interactive session.
type Model struct {
	ctx       context.Context
	cancel    context.CancelFunc
	fetcher   Fetcher
	directory string
	inflight  *sync.WaitGroup

	input   textinput.Model
	spinner spinner.Model

	state    State
	notice   string
	pending  string
	result   *core.FetchResult
	fetched  int
	farewell Farewell
	width    int
}

// NewModel creates a session that saves into directory. Cancelling ctx
// aborts an attempt in flight.
func NewModel(ctx context.Context, f Fetcher, directory string) Model {
	ctx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = TextInfo

	return Model{
		ctx:       ctx,
		cancel:    cancel,
		fetcher:   f,
		directory: directory,
		inflight:  &sync.WaitGroup{},
		input:     newInput("https://example.com/image.jpg"),
		spinner:   s,
		state:     StateURL,
	}
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 2048
	ti.Width = 60
	ti.Focus()
	return ti
}

// State returns the current session stage.
func (m Model) State() State { return m.state }

// Farewell returns how the session ended, or FarewellNone while it runs.
func (m Model) Farewell() Farewell { return m.farewell }

// Wait blocks until an attempt still running after the session ended has
// finished cleaning up.
func (m Model) Wait() { m.inflight.Wait() }

// Fetched returns the number of images saved during the session.
func (m Model) Fetched() int { return m.fetched }
