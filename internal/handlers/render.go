package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/wellness-assistant/wellness-web-ui/internal/chat"
	"github.com/wellness-assistant/wellness-web-ui/internal/models"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

type message struct {
	ID        string
	Role      string
	Timestamp time.Time

	// Text is the raw content of user messages, Content the rendered markdown of assistant messages.
	Text             string
	Content          template.HTML
	Thinking         template.HTML
	ThinkingComplete bool

	Sources     []string
	WebSources  []models.WebSource
	WebSearched bool

	StreamingState string
}

type screenData struct {
	Messages []message
	Topics   []models.Topic
	Loading  bool
}

type shellData struct {
	Messages []models.ShellMessage
}

const (
	streamingStateLoading   = "loading"
	streamingStateStreaming = "streaming"
	streamingStateEnded     = "ended"
)

// Raw HTML in model output is escaped, since goldmark's renderer is not configured as unsafe.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

func renderMarkdown(src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	// The output of goldmark is trusted as it escapes raw HTML.
	//nolint:gosec
	return template.HTML(buf.String()), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"topicIcon": topicIcon,
		"isText": func(t models.ShellMessageType) bool {
			return t == models.ShellMessageText
		},
		"lower": strings.ToLower,
	}
}

// topicIcon maps the icon names used by the backend to an emoji, as the page ships no icon font.
func topicIcon(name string) string {
	switch name {
	case "apple":
		return "🍎"
	case "activity":
		return "🏃"
	case "moon":
		return "🌙"
	case "heart":
		return "❤️"
	case "droplet":
		return "💧"
	case "clipboard":
		return "📋"
	default:
		return "💬"
	}
}

func screenView(st chat.State) (screenData, error) {
	msgs := make([]message, 0, len(st.Messages)+1)
	for _, msg := range st.Messages {
		m, err := messageView(msg)
		if err != nil {
			return screenData{}, err
		}
		msgs = append(msgs, m)
	}
	if st.Draft != nil {
		m, err := draftView(st.Draft)
		if err != nil {
			return screenData{}, err
		}
		msgs = append(msgs, m)
	}
	return screenData{
		Messages: msgs,
		Topics:   st.Topics,
		Loading:  st.Loading,
	}, nil
}

// webSourceLinks decodes web sources for display. The backend reports bare domains, which would resolve
// against the page host as links, so a missing scheme becomes https.
func webSourceLinks(raw json.RawMessage) []models.WebSource {
	ws := models.ParseWebSources(raw)
	for i := range ws {
		if ws[i].URL != "" && !strings.Contains(ws[i].URL, "://") {
			ws[i].URL = "https://" + ws[i].URL
		}
	}
	return ws
}

func messageView(msg models.Message) (message, error) {
	m := message{
		ID:             msg.ID,
		Role:           string(msg.Role),
		Timestamp:      msg.Timestamp,
		Sources:        msg.Sources,
		WebSources:     webSourceLinks(msg.WebSources),
		WebSearched:    msg.WebSearched,
		StreamingState: streamingStateEnded,
	}
	if msg.Role == models.RoleUser {
		m.Text = msg.Content
		return m, nil
	}

	var err error
	if m.Content, err = renderMarkdown(msg.Content); err != nil {
		return message{}, err
	}
	if m.Thinking, err = renderMarkdown(msg.Thinking); err != nil {
		return message{}, err
	}
	m.ThinkingComplete = true
	return m, nil
}

func draftView(d *models.Draft) (message, error) {
	m := message{
		ID:               d.ID,
		Role:             string(models.RoleAssistant),
		Timestamp:        d.Timestamp,
		ThinkingComplete: d.ThinkingComplete,
		Sources:          d.Sources,
		WebSources:       webSourceLinks(d.WebSources),
		WebSearched:      d.WebSearched,
		StreamingState:   streamingStateStreaming,
	}
	if d.Content == "" && d.Thinking == "" {
		m.StreamingState = streamingStateLoading
	}

	var err error
	if m.Content, err = renderMarkdown(d.Content); err != nil {
		return message{}, err
	}
	if m.Thinking, err = renderMarkdown(d.Thinking); err != nil {
		return message{}, err
	}
	return m, nil
}
