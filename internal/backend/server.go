// Package backend is a development stand-in for the wellness API the front-ends talk to. It serves the
// topic list, answers chat requests with a configurable generator and streams the answer back as
// "data: <json>" events.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/tmaxmax/go-sse"
	"github.com/wellness-assistant/wellness-web-ui/internal/models"
	"github.com/wellness-assistant/wellness-web-ui/internal/services"
)

// Generator produces the raw answer of a model to prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher looks a question up on the web. It never fails; a failed search yields an empty result.
type Searcher interface {
	Search(ctx context.Context, query string) services.SearchResult
}

// StatusStore keeps the status checks clients post.
type StatusStore interface {
	AddStatusCheck(ctx context.Context, check models.StatusCheck) error
	StatusChecks(ctx context.Context) ([]models.StatusCheck, error)
}

// Server handles the wellness API.
type Server struct {
	generator Generator
	searcher  Searcher
	store     StatusStore
	pacing    Pacing

	logger *slog.Logger
}

type rootResponse struct {
	Message string `json:"message"`
}

type topicsResponse struct {
	Topics []models.Topic `json:"topics"`
}

type statusCheckRequest struct {
	ClientName string `json:"client_name"`
}

// errorResponse mirrors the error body of the original API, so clients can show the detail.
type errorResponse struct {
	Detail string `json:"detail"`
}

const (
	errLoggerKey = "err"

	maxRequestBody = 1 << 20
)

// Topics are the wellness topics offered as shortcuts, in display order.
var Topics = []models.Topic{
	{ID: "nutrition", Label: "Nutrition", Icon: "apple"},
	{ID: "exercise", Label: "Exercise", Icon: "activity"},
	{ID: "sleep", Label: "Sleep", Icon: "moon"},
	{ID: "stress", Label: "Stress", Icon: "heart"},
	{ID: "hydration", Label: "Hydration", Icon: "droplet"},
	{ID: "checkup", Label: "Check-ups", Icon: "clipboard"},
}

// NewServer creates a Server. searcher may be nil, in which case web search requests are answered without
// web context.
func NewServer(generator Generator, searcher Searcher, store StatusStore, pacing Pacing, logger *slog.Logger) Server {
	return Server{
		generator: generator,
		searcher:  searcher,
		store:     store,
		pacing:    pacing,
		logger:    logger.With(slog.String("module", "backend")),
	}
}

// Router returns the HTTP handler of the API under /api. Access logs are written to accessLog in the
// Apache combined format, and cross-origin requests are allowed from corsOrigins ("*" allows all).
func (s Server) Router(accessLog io.Writer, corsOrigins []string) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.Path("/").Methods(http.MethodGet).HandlerFunc(s.handleRoot)
	api.Path("/wellness-topics").Methods(http.MethodGet).HandlerFunc(s.handleTopics)
	api.Path("/chat/stream").Methods(http.MethodPost).HandlerFunc(s.handleChatStream)
	api.Path("/status").Methods(http.MethodGet).HandlerFunc(s.handleReadStatus)
	api.Path("/status").Methods(http.MethodPost).HandlerFunc(s.handleCreateStatus)

	// mux reports a method mismatch as not found once later routes are registered, so every known path
	// ends with a route that answers 405.
	for _, path := range []string{"/", "/wellness-topics", "/chat/stream", "/status"} {
		api.Path(path).HandlerFunc(s.handleMethodNotAllowed)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)

	cors := handlers.CORS(
		handlers.AllowedOrigins(corsOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: s.logger}),
	)

	return handlers.CombinedLoggingHandler(accessLog, recovery(cors(r)))
}

func (s Server) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	s.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func (s Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, rootResponse{Message: "Wellness Assistant API"})
}

func (s Server) handleTopics(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, topicsResponse{Topics: Topics})
}

// handleChatStream answers a chat request. The whole answer is generated and parsed before the first event
// is written, so generation errors still get a proper 500 response.
func (s Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusUnprocessableEntity, "message is required")
		return
	}

	var (
		search   services.SearchResult
		searched bool
	)
	if req.UseWebSearch && s.searcher != nil {
		search = s.searcher.Search(r.Context(), req.Message)
		searched = true
	}

	text, err := s.generator.Generate(r.Context(), BuildPrompt(req.Message, search.Context))
	if err != nil {
		s.logger.Error("Failed to generate answer", slog.String(errLoggerKey, err.Error()))
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error generating response: %v", err))
		return
	}

	a := answer{
		StructuredResponse: ParseStructuredResponse(text),
		WebSearched:        searched,
	}
	if searched {
		a.WebSources = search.Sources
	}

	sess, err := sse.Upgrade(w, r)
	if err != nil {
		s.logger.Error("Failed to upgrade stream", slog.String(errLoggerKey, err.Error()))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	if err := streamAnswer(r.Context(), sess, s.pacing, a); err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Debug("Client went away while streaming")
			return
		}
		s.logger.Error("Failed to stream answer", slog.String(errLoggerKey, err.Error()))
	}
}

func (s Server) handleCreateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusCheckRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	check := models.StatusCheck{
		ID:         uuid.New().String(),
		ClientName: req.ClientName,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.store.AddStatusCheck(r.Context(), check); err != nil {
		s.logger.Error("Failed to add status check", slog.String(errLoggerKey, err.Error()))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, check)
}

func (s Server) handleReadStatus(w http.ResponseWriter, r *http.Request) {
	checks, err := s.store.StatusChecks(r.Context())
	if err != nil {
		s.logger.Error("Failed to read status checks", slog.String(errLoggerKey, err.Error()))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, checks)
}

func (s Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", slog.String(errLoggerKey, err.Error()))
	}
}

func (s Server) writeError(w http.ResponseWriter, code int, detail string) {
	s.writeJSON(w, code, errorResponse{Detail: detail})
}

// recoveryLogger reports recovered panics through slog.
type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error("Recovered from panic", slog.String("panic", fmt.Sprint(v...)))
}
