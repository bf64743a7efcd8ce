package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/monolythium/ubuntu-fetcher/internal/core"
)

type fetchDoneMsg struct {
	result *core.FetchResult
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeypress(msg)

	case spinner.TickMsg:
		if m.state != StateFetching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fetchDoneMsg:
		if m.state == StateDone {
			return m, nil
		}
		m.result = msg.result
		if msg.result.Success {
			m.fetched++
		}
		m.state = StateAnswer
		m.input = newInput("y/n")
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m.quit(FarewellInterrupt)
	case tea.KeyCtrlD:
		if m.state != StateFetching && m.input.Value() == "" {
			return m.quit(FarewellEOF)
		}
	}

	switch m.state {
	case StateURL:
		if msg.Type == tea.KeyEnter {
			return m.submitURL()
		}
	case StateAnswer:
		if msg.Type == tea.KeyEnter {
			return m.submitAnswer()
		}
	case StateFetching, StateDone:
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitURL() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	if isQuit(value) {
		return m.quit(FarewellQuit)
	}
	if notice := checkInput(value); notice != "" {
		m.notice = notice
		m.input.Reset()
		return m, nil
	}

	m.notice = ""
	m.result = nil
	m.pending = value
	m.state = StateFetching
	m.input.Blur()
	return m, tea.Batch(m.spinner.Tick, m.fetchCmd(value))
}

func (m Model) submitAnswer() (tea.Model, tea.Cmd) {
	if !isYes(m.input.Value()) {
		return m.quit(FarewellDeclined)
	}
	m.state = StateURL
	m.result = nil
	m.pending = ""
	m.input = newInput("https://example.com/image.jpg")
	return m, textinput.Blink
}

func (m Model) quit(f Farewell) (tea.Model, tea.Cmd) {
	m.cancel()
	m.farewell = f
	m.state = StateDone
	m.input.Blur()
	return m, tea.Quit
}

func (m Model) fetchCmd(rawURL string) tea.Cmd {
	ctx, f, wg := m.ctx, m.fetcher, m.inflight
	req := core.DownloadRequest{URL: rawURL, Directory: m.directory}
	wg.Add(1)
	return func() tea.Msg {
		defer wg.Done()
		return fetchDoneMsg{result: f.Fetch(ctx, req, nil)}
	}
}
