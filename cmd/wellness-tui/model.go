package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/wellness-assistant/wellness-web-ui/internal/chat"
	"github.com/wellness-assistant/wellness-web-ui/internal/models"
)

type (
	stateMsg  chat.State
	noticeMsg chat.Notice
	sendMsg   struct{ err error }
)

// programListener forwards session changes into the program. Session methods publish synchronously, so the
// model only calls them from commands, never from Update.
type programListener struct {
	send func(tea.Msg)
}

type model struct {
	ctx     context.Context
	session *chat.Session

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	state  chat.State
	notice *chat.Notice

	width  int
	height int
	ready  bool
}

const (
	headerHeight = 2
	footerHeight = 2
	inputHeight  = 3
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	topicStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))
)

func (l *programListener) StateChanged(st chat.State) {
	if l.send != nil {
		l.send(stateMsg(st))
	}
}

func (l *programListener) Notified(n chat.Notice) {
	if l.send != nil {
		l.send(noticeMsg(n))
	}
}

func newModel(ctx context.Context, session *chat.Session) model {
	ta := textarea.New()
	ta.Placeholder = "Ask about nutrition, exercise, sleep... (Enter to send, /topic <id>, /clear, /quit)"
	ta.Focus()
	ta.Prompt = "│ "
	ta.CharLimit = 4096
	ta.ShowLineNumbers = false
	ta.SetHeight(inputHeight - 1)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(80, 20)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)

	return model{
		ctx:      ctx,
		session:  session,
		textarea: ta,
		viewport: vp,
		spinner:  sp,
		renderer: renderer,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.loadTopics())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlL:
			return m, m.clear()
		case tea.KeyEnter:
			text := m.textarea.Value()
			m.textarea.Reset()
			return m.submit(text)
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight-inputHeight, 1)
		m.textarea.SetWidth(msg.Width - 2)
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(max(msg.Width-6, 20)),
		)
		m.ready = true
		m.refresh()

	case stateMsg:
		m.state = chat.State(msg)
		m.refresh()

	case noticeMsg:
		n := chat.Notice(msg)
		m.notice = &n

	case sendMsg:
		// Stream failures arrive as notices. Rejected sends never reach the session listener.
		if errors.Is(msg.err, chat.ErrUnknownTopic) || errors.Is(msg.err, chat.ErrBusy) {
			m.notice = &chat.Notice{Level: chat.NoticeError, Text: msg.err.Error()}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles one line of input: a command or a question.
func (m model) submit(text string) (tea.Model, tea.Cmd) {
	text = strings.TrimSpace(text)
	if text == "" {
		return m, nil
	}
	m.notice = nil

	switch cmd, arg := parseCommand(text); cmd {
	case "quit":
		return m, tea.Quit
	case "clear":
		return m, m.clear()
	case "topic":
		if arg == "" {
			m.notice = &chat.Notice{Level: chat.NoticeError, Text: "usage: /topic <id>"}
			return m, nil
		}
		if m.state.Loading {
			m.notice = &chat.Notice{Level: chat.NoticeError, Text: chat.ErrBusy.Error()}
			return m, nil
		}
		return m, m.askTopic(arg)
	case "":
	default:
		m.notice = &chat.Notice{Level: chat.NoticeError, Text: fmt.Sprintf("unknown command /%s", cmd)}
		return m, nil
	}

	if m.state.Loading {
		m.notice = &chat.Notice{Level: chat.NoticeError, Text: chat.ErrBusy.Error()}
		return m, nil
	}
	return m, m.send(text)
}

// parseCommand splits "/name arg" input. Input that is not a command yields an empty name.
func parseCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	name, arg, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}

func (m model) loadTopics() tea.Cmd {
	return func() tea.Msg {
		m.session.LoadTopics(m.ctx)
		return nil
	}
}

func (m model) send(text string) tea.Cmd {
	return func() tea.Msg {
		return sendMsg{err: m.session.Send(m.ctx, text)}
	}
}

func (m model) askTopic(id string) tea.Cmd {
	return func() tea.Msg {
		return sendMsg{err: m.session.AskTopic(m.ctx, id)}
	}
}

func (m model) clear() tea.Cmd {
	return func() tea.Msg {
		m.session.Clear()
		return nil
	}
}

// refresh re-renders the transcript into the viewport and jumps to the newest entry.
func (m *model) refresh() {
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

func (m model) transcript() string {
	if len(m.state.Messages) == 0 && m.state.Draft == nil {
		return m.welcome()
	}

	md := models.RenderTranscript(m.state.Messages, m.state.Draft)
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (m model) welcome() string {
	var sb strings.Builder
	sb.WriteString("How can I help you today?\n\n")
	if len(m.state.Topics) == 0 {
		sb.WriteString(hintStyle.Render("Ask your own question below."))
		return sb.String()
	}
	sb.WriteString(hintStyle.Render("Pick a topic with /topic <id>:"))
	sb.WriteString("\n")
	for _, t := range m.state.Topics {
		sb.WriteString(fmt.Sprintf("  %s  %s\n", topicStyle.Render(t.ID), t.Label))
	}
	return sb.String()
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := titleStyle.Render("Wellness Assistant")

	status := hintStyle.Render("General wellness information only. Ctrl+L clears, Ctrl+C quits.")
	switch {
	case m.state.Loading:
		status = m.spinner.View() + " " + hintStyle.Render("Thinking...")
	case m.notice != nil && m.notice.Level == chat.NoticeError:
		status = errorStyle.Render(m.notice.Text)
	case m.notice != nil:
		status = successStyle.Render(m.notice.Text)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		status,
		m.textarea.View(),
	)
}
