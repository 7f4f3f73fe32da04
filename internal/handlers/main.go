package handlers

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/tmaxmax/go-sse"
	wellnesswebui "github.com/wellness-assistant/wellness-web-ui"
	"github.com/wellness-assistant/wellness-web-ui/internal/chat"
)

// Main handles the web front-end of the wellness assistant: it renders the pages, accepts form posts from
// the browser and pushes every state change of a visitor's chat screen and static shell over server-sent
// events.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	api        chat.API
	visitors   *visitors
	shellDelay time.Duration

	logger *slog.Logger
}

// SSE event types for real-time updates.
var (
	messagesSSEType = sse.Type("messages")
	loadingSSEType  = sse.Type("loading")
	toastSSEType    = sse.Type("toast")
	shellSSEType    = sse.Type("shell")
	closeSSEType    = sse.Type("close")
)

const (
	errLoggerKey = "err"

	sessionCookieName = "wellness_session"
)

// NewMain creates a new Main that talks to the wellness backend through api. The static shell answers after
// shellDelay. Templates are parsed from the embedded filesystem; an error is returned if they are invalid.
func NewMain(api chat.API, shellDelay time.Duration, logger *slog.Logger) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(
		wellnesswebui.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, fmt.Errorf("failed to parse templates: %w", err)
	}

	logger = logger.With(slog.String("module", "handlers"))

	return Main{
		sseSrv: &sse.Server{
			OnSession: func(w http.ResponseWriter, r *http.Request) ([]string, bool) {
				c, err := r.Cookie(sessionCookieName)
				if err != nil || c.Value == "" {
					http.Error(w, "Session cookie is required", http.StatusBadRequest)
					return nil, false
				}
				// Every visitor only receives the updates of its own screens, plus broadcasts.
				return []string{sse.DefaultTopic, visitorTopic(c.Value)}, true
			},
			Logger: func(*http.Request) *slog.Logger {
				return logger
			},
		},
		templates:  tmpl,
		api:        api,
		visitors:   newVisitors(visitorIdleTTL, visitorLimit),
		shellDelay: shellDelay,
		logger:     logger,
	}, nil
}

func visitorTopic(visitorID string) string {
	return fmt.Sprintf("visitor-%s", visitorID)
}

// HandleSSE subscribes the browser to the updates of its session.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if v, ok := m.visitors.connect(c.Value); ok {
			defer m.visitors.disconnect(v)
		}
	}
	m.sseSrv.ServeHTTP(w, r)
}

// Shutdown gracefully terminates the Main instance's SSE server. It stops pending shell replies, broadcasts
// a close message to all connected clients and waits up to 5 seconds for connections to terminate. After
// the timeout, any remaining connections are forcefully closed.
func (m Main) Shutdown(ctx context.Context) error {
	m.visitors.each(func(v *visitor) {
		v.shell.Stop()
	})

	e := &sse.Message{Type: closeSSEType}
	// Close event carries data since SSE clients ignore events without it
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}

func (m Main) publish(visitorID string, msg *sse.Message) {
	if err := m.sseSrv.Publish(msg, visitorTopic(visitorID)); err != nil {
		m.logger.Error("Failed to publish event",
			slog.String("visitor", visitorID),
			slog.String("type", msg.Type.String()),
			slog.String(errLoggerKey, err.Error()))
	}
}
