package main

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/wellness-assistant/wellness-web-ui/internal/chat"
	"github.com/wellness-assistant/wellness-web-ui/internal/models"
)

type fakeAPI struct {
	mu       sync.Mutex
	requests []models.ChatRequest
}

func (f *fakeAPI) Topics(context.Context) ([]models.Topic, error) {
	return []models.Topic{{ID: "sleep", Icon: "moon", Label: "Sleep Hygiene"}}, nil
}

func (f *fakeAPI) ChatStream(_ context.Context, req models.ChatRequest) iter.Seq2[models.Event, error] {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	return func(yield func(models.Event, error) bool) {
		for _, ev := range []models.Event{
			{Type: models.EventResponseStart},
			{Type: models.EventResponse, Content: "Rest well"},
			{Type: models.EventResponseEnd},
			{Type: models.EventDone},
		} {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func newTestModel(t *testing.T) (model, *fakeAPI) {
	t.Helper()

	api := &fakeAPI{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := newModel(context.Background(), chat.NewSession(api, nil, logger))

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(model)
	// Plain markdown keeps the transcript assertions independent of the terminal style.
	m.renderer = nil
	return m, api
}

func enter(t *testing.T, m model, text string) (model, tea.Cmd) {
	t.Helper()

	m.textarea.SetValue(text)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(model), cmd
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantArg  string
	}{
		{name: "plain text", input: "How do I sleep better?", wantName: "", wantArg: ""},
		{name: "bare command", input: "/clear", wantName: "clear", wantArg: ""},
		{name: "command with argument", input: "/topic sleep", wantName: "topic", wantArg: "sleep"},
		{name: "mixed case", input: "/QUIT", wantName: "quit", wantArg: ""},
		{name: "padded argument", input: "/topic   stress ", wantName: "topic", wantArg: "stress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, arg := parseCommand(tt.input)
			if name != tt.wantName || arg != tt.wantArg {
				t.Errorf("parseCommand(%q) = (%q, %q), want (%q, %q)", tt.input, name, arg, tt.wantName, tt.wantArg)
			}
		})
	}
}

func TestProgramListenerForwardsMessages(t *testing.T) {
	var got []tea.Msg
	l := &programListener{send: func(msg tea.Msg) { got = append(got, msg) }}

	st := chat.State{Loading: true}
	n := chat.Notice{Level: chat.NoticeSuccess, Text: "Chat cleared"}
	l.StateChanged(st)
	l.Notified(n)

	want := []tea.Msg{stateMsg(st), noticeMsg(n)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("forwarded messages mismatch (-want +got):\n%s", diff)
	}

	// A listener without a program drops updates.
	(&programListener{}).StateChanged(st)
}

func TestQuitCommand(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := enter(t, m, "/quit")
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg")
	}
}

func TestSendRunsInCommand(t *testing.T) {
	m, api := newTestModel(t)

	m, cmd := enter(t, m, "  How do I sleep better?  ")
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if m.textarea.Value() != "" {
		t.Errorf("textarea not reset: %q", m.textarea.Value())
	}

	msg, ok := cmd().(sendMsg)
	if !ok {
		t.Fatalf("expected sendMsg")
	}
	if msg.err != nil {
		t.Fatalf("send error = %v", msg.err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.requests) != 1 || api.requests[0].Message != "How do I sleep better?" {
		t.Errorf("requests = %+v", api.requests)
	}
}

func TestSendWhileLoading(t *testing.T) {
	m, api := newTestModel(t)

	updated, _ := m.Update(stateMsg(chat.State{Loading: true}))
	m = updated.(model)

	m, cmd := enter(t, m, "Another question")
	if cmd != nil {
		t.Errorf("expected no command while loading")
	}
	if m.notice == nil || m.notice.Level != chat.NoticeError {
		t.Fatalf("notice = %+v, want an error notice", m.notice)
	}
	if !strings.Contains(m.View(), "Thinking...") {
		t.Errorf("view does not show the loading indicator")
	}
	if len(api.requests) != 0 {
		t.Errorf("requests = %+v, want none", api.requests)
	}
}

func TestTopicCommand(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantCmd    bool
		wantNotice string
	}{
		{name: "missing id", input: "/topic", wantNotice: "usage: /topic <id>"},
		{name: "unknown command", input: "/dance", wantNotice: "unknown command /dance"},
		{name: "known topic", input: "/topic sleep", wantCmd: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t)

			m, cmd := enter(t, m, tt.input)
			if (cmd != nil) != tt.wantCmd {
				t.Fatalf("command returned = %v, want %v", cmd != nil, tt.wantCmd)
			}
			if tt.wantNotice != "" && (m.notice == nil || m.notice.Text != tt.wantNotice) {
				t.Errorf("notice = %+v, want %q", m.notice, tt.wantNotice)
			}
		})
	}
}

func TestUnknownTopicShowsNotice(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := enter(t, m, "/topic yoga")
	if cmd == nil {
		t.Fatal("expected a command")
	}

	updated, _ := m.Update(cmd())
	m = updated.(model)
	if m.notice == nil || !strings.Contains(m.notice.Text, "unknown topic") {
		t.Errorf("notice = %+v, want unknown topic", m.notice)
	}
}

func TestRejectedSendShowsNotice(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "busy", err: chat.ErrBusy, want: chat.ErrBusy.Error()},
		{name: "stream failure reported elsewhere", err: chat.ErrIncompleteStream, want: ""},
		{name: "success", err: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t)

			updated, _ := m.Update(sendMsg{err: tt.err})
			m = updated.(model)

			got := ""
			if m.notice != nil {
				got = m.notice.Text
			}
			if got != tt.want {
				t.Errorf("notice = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStateRendersTranscript(t *testing.T) {
	m, _ := newTestModel(t)

	if !strings.Contains(m.viewport.View(), "How can I help you today?") {
		t.Errorf("empty transcript should show the welcome text")
	}

	updated, _ := m.Update(stateMsg(chat.State{
		Messages: []models.Message{
			{ID: "1", Role: models.RoleUser, Content: "Hello"},
			{ID: "2", Role: models.RoleAssistant, Content: "Drink water", Sources: []string{"CDC"}},
		},
	}))
	m = updated.(model)

	content := m.viewport.View()
	for _, want := range []string{"Hello", "Drink water"} {
		if !strings.Contains(content, want) {
			t.Errorf("viewport missing %q:\n%s", want, content)
		}
	}
}

func TestWelcomeListsTopics(t *testing.T) {
	m, _ := newTestModel(t)

	updated, _ := m.Update(stateMsg(chat.State{Topics: []models.Topic{{ID: "sleep", Label: "Sleep Hygiene"}}}))
	m = updated.(model)

	if !strings.Contains(m.viewport.View(), "Sleep Hygiene") {
		t.Errorf("welcome should list topics:\n%s", m.viewport.View())
	}
}

func TestViewBeforeResize(t *testing.T) {
	api := &fakeAPI{}
	m := newModel(context.Background(), chat.NewSession(api, nil, slog.New(slog.NewTextHandler(io.Discard, nil))))

	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q, want Loading...", got)
	}
}
