package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wellness-assistant/wellness-web-ui/internal/backend"
	"github.com/wellness-assistant/wellness-web-ui/internal/models"
	"github.com/wellness-assistant/wellness-web-ui/internal/services"
	"github.com/wellness-assistant/wellness-web-ui/internal/wellness"
)

type mockGenerator struct {
	text string
	err  error

	mu      sync.Mutex
	prompts []string
}

type mockSearcher struct {
	result  services.SearchResult
	queries []string
}

func TestParseStructuredResponse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want backend.StructuredResponse
	}{
		{
			name: "All blocks",
			text: "[THINKING]\nConsider sleep hygiene.\n[/THINKING]\n\n[RESPONSE]\nKeep a regular schedule.\n[/RESPONSE]\n\n" +
				"[SOURCES]\nCDC, NIH, Harvard Health\n[/SOURCES]",
			want: backend.StructuredResponse{
				Thinking: "Consider sleep hygiene.",
				Response: "Keep a regular schedule.",
				Sources:  []string{"CDC", "NIH", "Harvard Health"},
			},
		},
		{
			name: "Tags are case-insensitive",
			text: "[thinking]Think.[/thinking][response]Answer.[/response]",
			want: backend.StructuredResponse{
				Thinking: "Think.",
				Response: "Answer.",
			},
		},
		{
			name: "No response block uses the rest of the text",
			text: "[THINKING]Think.[/THINKING]\nDrink water often.",
			want: backend.StructuredResponse{
				Thinking: "Think.",
				Response: "Drink water often.",
			},
		},
		{
			name: "Plain text with inline sources",
			text: "Walk 30 minutes a day.\nSources: CDC, WHO",
			want: backend.StructuredResponse{
				Response: "Walk 30 minutes a day.",
				Sources:  []string{"CDC", "WHO"},
			},
		},
		{
			name: "Harvard Health only counts inside a sources block",
			text: "Eat greens, says Harvard Health and USDA.",
			want: backend.StructuredResponse{
				Response: "Eat greens, says Harvard Health and USDA.",
				Sources:  []string{"USDA"},
			},
		},
		{
			name: "Sources block inside the response is stripped",
			text: "[THINKING]T[/THINKING] Rest well. [SOURCES]Mayo Clinic[/SOURCES]",
			want: backend.StructuredResponse{
				Thinking: "T",
				Response: "Rest well.",
				Sources:  []string{"Mayo Clinic"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := backend.ParseStructuredResponse(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseStructuredResponse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := backend.BuildPrompt("How do I sleep better?", "")
	if !strings.Contains(p, "User question: How do I sleep better?") {
		t.Errorf("prompt does not end with the question: %q", p)
	}
	if strings.Contains(p, "Additional web context") {
		t.Error("prompt has web context without a search")
	}

	p = backend.BuildPrompt("q", "cdc.gov says rest")
	if !strings.HasSuffix(p, "Additional web context: cdc.gov says rest") {
		t.Errorf("prompt does not end with the web context: %q", p)
	}
}

func TestRootAndTopics(t *testing.T) {
	srv := newTestServer(t, &mockGenerator{}, nil)

	res, err := http.Get(srv.URL + "/api/")
	if err != nil {
		t.Fatal(err)
	}
	var root struct {
		Message string `json:"message"`
	}
	decodeBody(t, res, &root)
	if root.Message != "Wellness Assistant API" {
		t.Errorf("root message = %q", root.Message)
	}

	topics, err := wellness.NewClient(srv.URL, discardLogger()).Topics(context.Background())
	if err != nil {
		t.Fatalf("Topics() error = %v", err)
	}
	if diff := cmp.Diff(backend.Topics, topics); diff != "" {
		t.Errorf("Topics() mismatch (-want +got):\n%s", diff)
	}
}

func TestChatStreamWireFormat(t *testing.T) {
	gen := &mockGenerator{text: "[THINKING]Be brief.[/THINKING][RESPONSE]Drink water.[/RESPONSE][SOURCES]CDC[/SOURCES]"}
	srv := newTestServer(t, gen, nil)

	res, err := http.Post(srv.URL+"/api/chat/stream", "application/json",
		strings.NewReader(`{"message":"hydration?","use_web_search":false}`))
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	if ct := res.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	want := `data: {"type":"thinking_start"}` + "\n\n" +
		`data: {"type":"thinking","content":"Be "}` + "\n\n" +
		`data: {"type":"thinking","content":"brief."}` + "\n\n" +
		`data: {"type":"thinking_end"}` + "\n\n" +
		`data: {"type":"response_start"}` + "\n\n" +
		`data: {"type":"response","content":"Drink "}` + "\n\n" +
		`data: {"type":"response","content":"water."}` + "\n\n" +
		`data: {"type":"response_end"}` + "\n\n" +
		`data: {"type":"metadata","sources":["CDC"]}` + "\n\n" +
		`data: {"type":"done"}` + "\n\n"
	if diff := cmp.Diff(want, string(body)); diff != "" {
		t.Errorf("stream mismatch (-want +got):\n%s", diff)
	}
}

func TestChatStreamThroughClient(t *testing.T) {
	gen := &mockGenerator{text: "Stretch every hour.\nSources: Mayo Clinic"}
	search := &mockSearcher{result: services.SearchResult{
		Context: "mayoclinic.org stretching",
		Sources: []models.WebSource{{Name: "Mayo Clinic", URL: "mayoclinic.org"}},
	}}
	srv := newTestServer(t, gen, search)

	client := wellness.NewClient(srv.URL, discardLogger())
	draft := models.NewDraft("1")
	var types []models.EventType
	done := false
	for ev, err := range client.ChatStream(context.Background(), models.ChatRequest{Message: "exercise", UseWebSearch: true}) {
		if err != nil {
			t.Fatalf("ChatStream() error = %v", err)
		}
		types = append(types, ev.Type)
		done = draft.Apply(ev)
	}

	if !done {
		t.Fatal("stream did not end with done")
	}
	wantTypes := []models.EventType{
		models.EventResponseStart,
		models.EventResponse, models.EventResponse, models.EventResponse,
		models.EventResponseEnd,
		models.EventMetadata,
		models.EventDone,
	}
	if diff := cmp.Diff(wantTypes, types); diff != "" {
		t.Errorf("event types mismatch (-want +got):\n%s", diff)
	}

	msg := draft.Message()
	if msg.Content != "Stretch every hour." || msg.Thinking != "" {
		t.Errorf("message = %+v", msg)
	}
	if diff := cmp.Diff([]string{"Mayo Clinic"}, msg.Sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if !msg.WebSearched {
		t.Error("WebSearched = false after a web search")
	}
	if diff := cmp.Diff(search.result.Sources, models.ParseWebSources(msg.WebSources)); diff != "" {
		t.Errorf("web sources mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"exercise"}, search.queries); diff != "" {
		t.Errorf("search queries mismatch (-want +got):\n%s", diff)
	}
	if p := gen.lastPrompt(); !strings.Contains(p, "Additional web context: mayoclinic.org stretching") {
		t.Errorf("prompt lacks web context: %q", p)
	}
}

func TestChatStreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		gen        *mockGenerator
		body       string
		wantStatus int
		wantDetail string
	}{
		{
			name:       "Generator failure",
			gen:        &mockGenerator{err: errors.New("model unavailable")},
			body:       `{"message":"sleep"}`,
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Error generating response: model unavailable",
		},
		{
			name:       "Invalid body",
			gen:        &mockGenerator{},
			body:       `{"message":`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "Blank message",
			gen:        &mockGenerator{},
			body:       `{"message":"  "}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "message is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.gen, nil)

			res, err := http.Post(srv.URL+"/api/chat/stream", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if res.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
			var e struct {
				Detail string `json:"detail"`
			}
			decodeBody(t, res, &e)
			if tt.wantDetail != "" && e.Detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", e.Detail, tt.wantDetail)
			}
		})
	}
}

func TestStatusChecks(t *testing.T) {
	srv := newTestServer(t, &mockGenerator{}, nil)

	res, err := http.Post(srv.URL+"/api/status", "application/json", strings.NewReader(`{"client_name":"web"}`))
	if err != nil {
		t.Fatal(err)
	}
	var created models.StatusCheck
	decodeBody(t, res, &created)
	if created.ID == "" || created.ClientName != "web" || created.Timestamp.IsZero() {
		t.Errorf("created = %+v", created)
	}

	res, err = http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	var checks []models.StatusCheck
	decodeBody(t, res, &checks)
	if len(checks) != 1 || checks[0].ID != created.ID {
		t.Errorf("checks = %+v, want the created check", checks)
	}
}

func TestRouterMiddleware(t *testing.T) {
	srv := newTestServer(t, &mockGenerator{}, nil)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/wellness-topics", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Origin", "http://localhost:3000")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	res, err = http.Get(srv.URL + "/api/unknown")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}

}

func TestRouterMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &mockGenerator{text: "[RESPONSE]ok[/RESPONSE]"}, nil)

	tests := []struct {
		method   string
		path     string
		wantCode int
	}{
		{method: http.MethodGet, path: "/api/chat/stream", wantCode: http.StatusMethodNotAllowed},
		{method: http.MethodDelete, path: "/api/wellness-topics", wantCode: http.StatusMethodNotAllowed},
		{method: http.MethodDelete, path: "/api/status", wantCode: http.StatusMethodNotAllowed},
		{method: http.MethodPut, path: "/api/", wantCode: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/api/status", wantCode: http.StatusOK},
		{method: http.MethodGet, path: "/api/wellness-topics", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			if err != nil {
				t.Fatal(err)
			}
			res, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			if res.StatusCode != tt.wantCode {
				res.Body.Close()
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.wantCode)
			}
			if tt.wantCode != http.StatusMethodNotAllowed {
				res.Body.Close()
				return
			}

			var body struct {
				Detail string `json:"detail"`
			}
			decodeBody(t, res, &body)
			if body.Detail != "Method Not Allowed" {
				t.Errorf("detail = %q, want Method Not Allowed", body.Detail)
			}
		})
	}
}

func newTestServer(t *testing.T, gen *mockGenerator, search *mockSearcher) *httptest.Server {
	t.Helper()

	var searcher backend.Searcher
	if search != nil {
		searcher = search
	}
	s := backend.NewServer(gen, searcher, services.NewMemory(), backend.Pacing{}, discardLogger())
	srv := httptest.NewServer(s.Router(io.Discard, []string{"*"}))
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, res *http.Response, v any) {
	t.Helper()
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	return m.text, m.err
}

func (m *mockGenerator) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *mockSearcher) Search(_ context.Context, query string) services.SearchResult {
	m.queries = append(m.queries, query)
	return m.result
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
