package wellness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/wellness-assistant/wellness-web-ui/internal/models"
)

// Client talks to the wellness backend API: it fetches the topic shortcuts and streams chat replies.
type Client struct {
	baseURL string

	client *http.Client

	logger *slog.Logger
}

// StatusError is returned when the backend answers with a non-OK status.
type StatusError struct {
	StatusCode int
	Body       string
}

const (
	errLoggerKey = "err"

	readChunkSize = 4096
	maxErrorBody  = 4096
)

// NewClient creates a Client for the backend at baseURL. Trailing slashes are stripped from baseURL before
// the "/api" path is appended, so "http://host/" and "http://host" address the same API.
func NewClient(baseURL string, logger *slog.Logger) Client {
	return Client{
		baseURL: APIBase(baseURL),
		client:  &http.Client{},
		logger:  logger.With(slog.String("module", "wellness")),
	}
}

// APIBase returns the API root for a backend base URL.
func APIBase(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/api"
}

// BaseURL returns the API root the client sends requests to.
func (c Client) BaseURL() string {
	return c.baseURL
}

// Topics fetches the wellness topic shortcuts.
func (c Client) Topics(ctx context.Context) ([]models.Topic, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/wellness-topics", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var res struct {
		Topics []models.Topic `json:"topics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("error decoding topics: %w", err)
	}
	return res.Topics, nil
}

// ChatStream sends a chat message and returns an iterator over the events of the streamed reply. Events are
// yielded as soon as the chunk that completes them arrives. If the backend (or something in between) did
// not answer with an event stream, the whole body is read first and the same events are yielded from it.
//
// Any request, status or read failure is yielded as the last element of the sequence.
func (c Client) ChatStream(ctx context.Context, request models.ChatRequest) iter.Seq2[models.Event, error] {
	return func(yield func(models.Event, error) bool) {
		jsonBody, err := json.Marshal(request)
		if err != nil {
			yield(models.Event{}, fmt.Errorf("error marshaling request: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/stream",
			bytes.NewReader(jsonBody))
		if err != nil {
			yield(models.Event{}, fmt.Errorf("error creating request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.client.Do(req)
		if err != nil {
			yield(models.Event{}, fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			yield(models.Event{}, statusError(resp))
			return
		}

		dec := NewDecoder(c.logger)

		if !isEventStream(resp.Header) {
			c.logger.Debug("Response is not an event stream, decoding whole body",
				slog.String("contentType", resp.Header.Get("Content-Type")))
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				yield(models.Event{}, fmt.Errorf("error reading response: %w", err))
				return
			}
			for _, ev := range dec.DecodeAll(body) {
				if !yield(ev, nil) {
					return
				}
			}
			return
		}

		buf := make([]byte, readChunkSize)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				for _, ev := range dec.Feed(buf[:n]) {
					if !yield(ev, nil) {
						return
					}
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				yield(models.Event{}, fmt.Errorf("error reading response: %w", err))
				return
			}
		}
		for _, ev := range dec.Flush() {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func isEventStream(h http.Header) bool {
	mediaType, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "text/event-stream"
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, e.Body)
}
