package handlers

import (
	"log/slog"
	"net/http"
)

// HandleHome renders the wellness chat screen of the visitor, with the topic shortcuts fetched from the
// backend. A visitor without a session gets a fresh one.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	v := m.visitor(w, r)
	v.chat.LoadTopics(r.Context())

	sd, err := screenView(v.chat.State())
	if err != nil {
		m.logger.Error("Failed to prepare messages", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := m.templates.ExecuteTemplate(w, "home.html", sd); err != nil {
		m.logger.Error("Failed to render home", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// HandleShell renders the static chat shell.
func (m Main) HandleShell(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	v := m.visitor(w, r)
	data := shellData{Messages: v.shell.Messages()}
	if err := m.templates.ExecuteTemplate(w, "shell.html", data); err != nil {
		m.logger.Error("Failed to render shell", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// HandleShellMessages appends the "message" form field to the static shell. The canned reply follows over
// SSE after the configured delay.
func (m Main) HandleShellMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !m.visitor(w, r).shell.Send(r.FormValue("message")) {
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
