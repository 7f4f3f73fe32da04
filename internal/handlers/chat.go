package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/tmaxmax/go-sse"
	"github.com/wellness-assistant/wellness-web-ui/internal/chat"
	"github.com/wellness-assistant/wellness-web-ui/internal/models"
)

type toast struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// screenListener pushes the state of one visitor's chat screen to its browser.
type screenListener struct {
	m         Main
	visitorID string
}

// HandleChats accepts a message from the chat form and starts streaming the assistant reply into the
// visitor's screen. The reply itself arrives over SSE, so the handler only acknowledges the request.
//
// The handler expects a "message" form field. Blank messages are rejected with 400 and a message sent while
// a reply is still streaming is rejected with 409.
func (m Main) HandleChats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	msg := r.FormValue("message")
	if strings.TrimSpace(msg) == "" {
		m.logger.Error("Message is required")
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	v := m.visitor(w, r)
	if v.chat.State().Loading {
		http.Error(w, chat.ErrBusy.Error(), http.StatusConflict)
		return
	}

	// The stream outlives the request, so it must not inherit its context.
	go m.send(v, func(ctx context.Context) error {
		return v.chat.Send(ctx, msg)
	})

	w.WriteHeader(http.StatusAccepted)
}

// HandleClear empties the visitor's transcript and cancels a reply that is still streaming.
func (m Main) HandleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m.visitor(w, r).chat.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// HandleTopic sends the canned question of the topic named by the "topic_id" form field.
func (m Main) HandleTopic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	topicID := r.FormValue("topic_id")
	if _, ok := chat.TopicQuestion(topicID); !ok {
		m.logger.Error("Unknown topic", slog.String("topic", topicID))
		http.Error(w, "Unknown topic", http.StatusBadRequest)
		return
	}

	v := m.visitor(w, r)
	if v.chat.State().Loading {
		http.Error(w, chat.ErrBusy.Error(), http.StatusConflict)
		return
	}

	go m.send(v, func(ctx context.Context) error {
		return v.chat.AskTopic(ctx, topicID)
	})

	w.WriteHeader(http.StatusAccepted)
}

func (m Main) send(v *visitor, fn func(ctx context.Context) error) {
	err := fn(context.Background())
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrBusy):
		m.logger.Warn("Message dropped, reply still streaming", slog.String("visitor", v.id))
	default:
		// The session already told the visitor through a toast.
		m.logger.Error("Failed to send message",
			slog.String("visitor", v.id),
			slog.String(errLoggerKey, err.Error()))
	}
}

func (l screenListener) StateChanged(st chat.State) {
	data, err := screenView(st)
	if err != nil {
		l.m.logger.Error("Failed to prepare messages",
			slog.String("visitor", l.visitorID),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	var sb strings.Builder
	if err := l.m.templates.ExecuteTemplate(&sb, "messages", data); err != nil {
		l.m.logger.Error("Failed to render messages",
			slog.String("visitor", l.visitorID),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := &sse.Message{Type: messagesSSEType}
	msg.AppendData(sb.String())
	l.m.publish(l.visitorID, msg)

	loading := &sse.Message{Type: loadingSSEType}
	loading.AppendData(strconv.FormatBool(st.Loading))
	l.m.publish(l.visitorID, loading)
}

func (l screenListener) Notified(n chat.Notice) {
	b, err := json.Marshal(toast{Level: string(n.Level), Text: n.Text})
	if err != nil {
		l.m.logger.Error("Failed to marshal toast", slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := &sse.Message{Type: toastSSEType}
	msg.AppendData(string(b))
	l.m.publish(l.visitorID, msg)
}

func (m Main) shellChanged(visitorID string) func([]models.ShellMessage) {
	return func(msgs []models.ShellMessage) {
		var sb strings.Builder
		if err := m.templates.ExecuteTemplate(&sb, "shell_messages", shellData{Messages: msgs}); err != nil {
			m.logger.Error("Failed to render shell messages",
				slog.String("visitor", visitorID),
				slog.String(errLoggerKey, err.Error()))
			return
		}

		msg := &sse.Message{Type: shellSSEType}
		msg.AppendData(sb.String())
		m.publish(visitorID, msg)
	}
}
