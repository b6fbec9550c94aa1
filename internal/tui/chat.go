// Package tui is the terminal chat client.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// replyTimeout bounds one question/answer round trip
const replyTimeout = 5 * time.Minute

// Backend answers and forgets conversations
type Backend interface {
	Reply(ctx context.Context, userID, message string) (string, error)
	Clear(ctx context.Context, userID string) error
}

// Message is one rendered line of the transcript
type Message struct {
	Role    string
	Content string
}

// replyMsg carries a finished reply back into the update loop
type replyMsg struct {
	content string
	err     error
}

// clearedMsg signals that the stored history was deleted
type clearedMsg struct {
	err error
}

// Model is the Bubble Tea model of the chat screen
type Model struct {
	backend  Backend
	userID   string
	title    string
	input    textinput.Model
	viewport viewport.Model
	messages []Message
	status   string
	loading  bool
	ready    bool
}

// New creates a chat model for one user
func New(backend Backend, userID, title string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question (Enter to send, /clear to reset, Ctrl+C to quit)"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		backend:  backend,
		userID:   userID,
		title:    title,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Ready.",
	}
}

// Init starts the cursor blink
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles keys, window size and finished backend calls
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := transcriptStyle.GetFrameSize()
		m.viewport.Width = maxInt(20, msg.Width-2)
		m.viewport.Height = maxInt(3, msg.Height-fh-4)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case replyMsg:
		m.loading = false
		last := len(m.messages) - 1
		if msg.err != nil {
			m.messages[last] = Message{Role: "error", Content: msg.err.Error()}
			m.status = "Request failed."
		} else {
			m.messages[last] = Message{Role: "assistant", Content: msg.content}
			m.status = "Ready."
		}
		m.refresh()
		return m, nil

	case clearedMsg:
		if msg.err != nil {
			m.status = "Clear failed: " + msg.err.Error()
		} else {
			m.messages = nil
			m.status = "Chat history cleared."
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.loading {
		return m, nil
	}
	m.input.SetValue("")

	if text == "/clear" {
		return m, m.clear()
	}

	m.loading = true
	m.status = "Thinking..."
	m.messages = append(m.messages,
		Message{Role: "user", Content: text},
		Message{Role: "assistant", Content: "Thinking..."},
	)
	m.refresh()
	return m, m.ask(text)
}

func (m Model) ask(text string) tea.Cmd {
	backend, userID := m.backend, m.userID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
		defer cancel()
		reply, err := backend.Reply(ctx, userID, text)
		return replyMsg{content: reply, err: err}
	}
}

func (m Model) clear() tea.Cmd {
	backend, userID := m.backend, m.userID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return clearedMsg{err: backend.Clear(ctx, userID)}
	}
}

// Messages returns the transcript
func (m Model) Messages() []Message { return m.messages }

// Status returns the status line text
func (m Model) Status() string { return m.status }

// View renders the screen
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render(m.title)
	transcript := transcriptStyle.Render(m.viewport.View())
	status := statusStyle.Render(m.status)
	return lipgloss.JoinVertical(lipgloss.Left, header, transcript, m.input.View(), status)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.render())
	m.viewport.GotoBottom()
}

func (m Model) render() string {
	if len(m.messages) == 0 {
		return hintStyle.Render("Ask anything about the indexed documents.")
	}
	width := maxInt(20, m.viewport.Width-2)
	var lines []string
	for _, msg := range m.messages {
		switch msg.Role {
		case "user":
			lines = append(lines, userStyle.Width(width).Render("You: "+msg.Content))
		case "error":
			lines = append(lines, errorStyle.Width(width).Render(fmt.Sprintf("Error: %s", msg.Content)))
		default:
			body := formatMarkdown(msg.Content, boldStyle.Render, headerStyle.Render)
			lines = append(lines, botStyle.Width(width).Render("Bot: "+body))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
