package tui

import (
	"strings"

	"ai-sitechat-be/pkg/chatclient"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// sessionUpdatedMsg carries a snapshot of the conversation after the session
// state changed, as pushed by the chatclient update hook.
type sessionUpdatedMsg struct {
	messages []chatclient.Message
}

// submitDoneMsg signals that a blocking Submit call has returned.
type submitDoneMsg struct {
	err error
}

// Model is the Bubble Tea model for the chat terminal client.
type Model struct {
	session  *chatclient.Session
	updates  chan []chatclient.Message
	input    textinput.Model
	viewport viewport.Model
	messages []chatclient.Message
	status   string
	ready    bool
}

// New creates the chat model. The update channel must be the one the session's
// update hook writes to, so streamed events re-render the transcript live.
func New(session *chatclient.Session, updates chan []chatclient.Message) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = chatclient.MaxInputLength
	vp := viewport.New(0, 0)
	return Model{
		session:  session,
		updates:  updates,
		input:    ti,
		viewport: vp,
		status:   "Connected. Type to chat.",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForUpdate())
}

// waitForUpdate bridges the session's push hook into the Bubble Tea loop.
func (m Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		messages, ok := <-m.updates
		if !ok {
			return nil
		}
		return sessionUpdatedMsg{messages: messages}
	}
}

func (m Model) submit(text string) tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{err: m.session.Submit(text)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, qh := inputBoxStyle.GetFrameSize()
		_, th := transcriptStyle.GetFrameSize()
		vh := msg.Height - qh - th - 3
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-transcriptStyle.GetHorizontalFrameSize())
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case sessionUpdatedMsg:
		m.messages = msg.messages
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		if m.session.Loading() {
			m.status = "Thinking..."
		}
		return m, m.waitForUpdate()

	case submitDoneMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = "Done. Ask another question."
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" {
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			if m.session.Loading() {
				m.status = "Still answering the previous question."
				return m, nil
			}
			m.input.Reset()
			m.status = "Thinking..."
			return m, m.submit(text)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Site Chat")
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.messages) == 0 {
		return "No messages yet."
	}
	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		label := assistantLabelStyle.Render("assistant")
		if msg.Role == "user" {
			label = userLabelStyle.Render("you")
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(msg.Content)
	}
	return b.String()
}

var (
	transcriptStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
