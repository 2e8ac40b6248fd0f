// Package tui is the terminal chat client. It drives the same turn
// orchestrator as the HTTP API against a single in-process session.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/psds-microservice/apihub-assistant/internal/assistant"
	"github.com/psds-microservice/apihub-assistant/internal/session"
)

const greeting = "Hi, I'm APIMAN. Ask me anything about APIHub."

// TurnHandler runs one chat turn against a session.
type TurnHandler interface {
	HandleTurn(ctx context.Context, sess *session.Session, userText string) (assistant.TurnResult, error)
}

type turnMsg struct {
	result assistant.TurnResult
	err    error
}

type line struct {
	speaker string
	text    string
	style   lipgloss.Style
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	ticketStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle      = lipgloss.NewStyle().Faint(true)
)

type Model struct {
	ctx     context.Context
	turns   TurnHandler
	session *session.Session

	input    textinput.Model
	viewport viewport.Model
	keys     keyMap

	lines   []line
	waiting bool
	width   int
}

func NewModel(ctx context.Context, turns TurnHandler, sess *session.Session) Model {
	in := textinput.New()
	in.Placeholder = "Type your question"
	in.Prompt = "> "
	in.CharLimit = 2000
	in.Focus()

	m := Model{
		ctx:      ctx,
		turns:    turns,
		session:  sess,
		input:    in,
		viewport: viewport.New(80, 20),
		keys:     defaultKeys,
		width:    80,
	}
	m.lines = append(m.lines, line{speaker: "APIMAN", text: greeting, style: assistantStyle})
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 3)
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.PageUp):
			m.viewport.HalfViewUp()
			return m, nil
		case key.Matches(msg, m.keys.PageDown):
			m.viewport.HalfViewDown()
			return m, nil
		case key.Matches(msg, m.keys.Send):
			return m.send()
		}

	case turnMsg:
		m.waiting = false
		m.record(msg)
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting {
		return m, nil
	}
	m.input.Reset()
	m.waiting = true
	m.lines = append(m.lines, line{speaker: "You", text: text, style: userStyle})
	m.refresh()

	ctx, turns, sess := m.ctx, m.turns, m.session
	return m, func() tea.Msg {
		res, err := turns.HandleTurn(ctx, sess, text)
		return turnMsg{result: res, err: err}
	}
}

func (m *Model) record(msg turnMsg) {
	if msg.result.Reply != "" {
		m.lines = append(m.lines, line{speaker: "APIMAN", text: msg.result.Reply, style: assistantStyle})
	}
	if msg.result.Escalated {
		m.lines = append(m.lines, line{text: fmt.Sprintf("Ticket #%s opened.", msg.result.TicketID), style: ticketStyle})
	}
	if msg.err != nil {
		m.lines = append(m.lines, line{text: "Error: " + msg.err.Error(), style: errorStyle})
	}
}

func (m *Model) refresh() {
	wrap := lipgloss.NewStyle().Width(max(m.width-2, 20))
	var b strings.Builder
	for i, l := range m.lines {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if l.speaker != "" {
			b.WriteString(wrap.Render(l.style.Render(l.speaker+":") + " " + l.text))
		} else {
			b.WriteString(wrap.Render(l.style.Render(l.text)))
		}
	}
	if m.waiting {
		b.WriteString("\n\n" + helpStyle.Render("APIMAN is typing..."))
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	help := helpStyle.Render(fmt.Sprintf("%s %s • %s %s",
		m.keys.Send.Help().Key, m.keys.Send.Help().Desc,
		m.keys.Quit.Help().Key, m.keys.Quit.Help().Desc))
	return titleStyle.Render("APIHub Support") + "\n" +
		m.viewport.View() + "\n" +
		m.input.View() + "\n" +
		help
}

// Transcript returns the rendered lines as plain text, oldest first.
func (m Model) Transcript() []string {
	out := make([]string, len(m.lines))
	for i, l := range m.lines {
		if l.speaker != "" {
			out[i] = l.speaker + ": " + l.text
		} else {
			out[i] = l.text
		}
	}
	return out
}
