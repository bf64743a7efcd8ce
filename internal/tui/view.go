package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/monolythium/ubuntu-fetcher/internal/core"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(renderBanner())
	b.WriteString("\n\n")
	for _, l := range welcomeLines {
		b.WriteString(TextNormal.Render(l) + "\n")
	}

	switch m.state {
	case StateURL:
		if m.notice != "" {
			b.WriteString("\n" + TextWarning.Render(m.notice) + "\n")
		}
		b.WriteString(promptStyle.Render(urlPrompt) + "\n")
		b.WriteString(m.input.View() + "\n")
		b.WriteString(helpStyle.Render("enter: fetch • quit: exit • ctrl+c: leave"))

	case StateFetching:
		b.WriteString("\n" + m.spinner.View() + " " + TextBright.Render("Connecting to: "+m.pending) + "\n")
		b.WriteString(TextMuted.Render("   Approaching with Ubuntu spirit - respect and mindfulness...") + "\n")

	case StateAnswer:
		b.WriteString("\n" + m.renderResult() + "\n")
		b.WriteString(promptStyle.Render(nextPrompt(m.result)) + "\n")
		b.WriteString(m.input.View() + "\n")

	case StateDone:
		if m.result != nil && m.farewell == FarewellDeclined {
			b.WriteString("\n" + m.renderResult() + "\n")
		}
		b.WriteString("\n")
		for _, l := range m.farewell.lines() {
			b.WriteString(TextInfo.Render(l) + "\n")
		}
		if m.fetched > 0 {
			b.WriteString(TextMuted.Render(fmt.Sprintf("   Images gathered this session: %d", m.fetched)) + "\n")
		}
		b.WriteString("\n")
		for _, l := range closingLines {
			b.WriteString(TextBright.Render(l) + "\n")
		}
	}

	return b.String()
}

func renderBanner() string {
	rows := make([]string, len(bannerLines))
	for i, l := range bannerLines {
		if i == 0 {
			rows[i] = bannerTitleStyle.Render(l)
			continue
		}
		rows[i] = TextNormal.Render(l)
	}
	return bannerStyle.Render(lipgloss.JoinVertical(lipgloss.Center, rows...))
}

func (m Model) renderResult() string {
	r := m.result
	if r == nil {
		return ""
	}

	var rows []string
	for _, step := range r.Steps {
		rows = append(rows, renderStep(step))
	}
	if r.LargeFile {
		rows = append(rows, TextWarning.Render("⚠️  Large file detected. Proceeding mindfully..."))
	}
	rows = append(rows, "")
	for _, l := range outcomeLines(r) {
		rows = append(rows, styleFor(l.tone).Render(l.text))
	}
	return resultStyle.Render(strings.Join(rows, "\n"))
}

func renderStep(step core.Step) string {
	var icon string
	style := TextMuted
	switch step.Status {
	case core.StepSuccess:
		icon = "[+]"
		style = TextSuccess
	case core.StepFailed:
		icon = "[X]"
		style = TextDanger
	default:
		icon = "[ ]"
	}
	text := fmt.Sprintf("%s %s", style.Render(icon), step.Name)
	if step.Message != "" {
		text += TextMuted.Render(": " + step.Message)
	}
	return text
}

func styleFor(t tone) lipgloss.Style {
	switch t {
	case toneMuted:
		return TextMuted
	case toneSuccess:
		return TextSuccess
	case toneWarning:
		return TextWarning
	case toneDanger:
		return TextDanger
	default:
		return TextNormal
	}
}
