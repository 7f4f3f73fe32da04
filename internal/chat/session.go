package chat

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wellness-assistant/wellness-web-ui/internal/models"
)

// API is the remote wellness backend as seen by a Session.
type API interface {
	Topics(ctx context.Context) ([]models.Topic, error)
	ChatStream(ctx context.Context, request models.ChatRequest) iter.Seq2[models.Event, error]
}

// Listener is notified about every state change of a Session, in the order the changes were made.
// Listener methods may call State but must not call any other Session method.
type Listener interface {
	StateChanged(state State)
	Notified(notice Notice)
}

// State is a snapshot of a Session. It shares no memory with the session.
type State struct {
	Messages []models.Message
	Draft    *models.Draft
	Topics   []models.Topic
	Loading  bool
}

// Notice is a transient user-facing notification.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// NoticeLevel classifies a Notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

var (
	// ErrEmptyMessage is returned by Send for input that is empty after trimming.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy is returned by Send while another send is in flight.
	ErrBusy = errors.New("a reply is still streaming")
	// ErrUnknownTopic is returned by AskTopic for an id without a canned question.
	ErrUnknownTopic = errors.New("unknown topic")
	// ErrIncompleteStream is returned by Send when the stream ends before the done event.
	ErrIncompleteStream = errors.New("stream ended before done event")
)

const (
	noticeSendFailed = "Failed to get response. Please try again."
	noticeCleared    = "Chat cleared"

	errLoggerKey = "err"
)

// Session holds the state of one wellness chat screen: the transcript, the in-flight draft, the topic
// shortcuts and the loading flag. It is safe for concurrent use.
type Session struct {
	api      API
	listener Listener
	logger   *slog.Logger

	// pubMu serializes state changes together with their publication, mu guards the fields below.
	pubMu    sync.Mutex
	mu       sync.Mutex
	messages []models.Message
	draft    *models.Draft
	topics   []models.Topic
	loading  bool

	// generation is bumped by Clear so events of a send started before it are dropped.
	generation uint64
	cancel     context.CancelFunc
}

// NewSession creates an empty Session. listener may be nil.
func NewSession(api API, listener Listener, logger *slog.Logger) *Session {
	return &Session{
		api:      api,
		listener: listener,
		logger:   logger.With(slog.String("module", "chat")),
	}
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// LoadTopics fetches the topic shortcuts. Failures are logged and leave the topic list empty.
func (s *Session) LoadTopics(ctx context.Context) {
	topics, err := s.api.Topics(ctx)
	if err != nil {
		s.logger.Error("Failed to load topics", slog.String(errLoggerKey, err.Error()))
		topics = nil
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	s.topics = topics
	st := s.stateLocked()
	s.mu.Unlock()

	s.publish(st)
}

// Send appends text as a user message and streams the assistant reply into the transcript. It blocks until
// the reply is complete, failed or was dropped by Clear.
//
// Empty input is rejected with ErrEmptyMessage before anything changes, and a second Send while one is in
// flight is rejected with ErrBusy. On failure the draft is discarded, an error notice is emitted and the
// error is returned; the user message stays in the transcript.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.pubMu.Lock()
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		s.pubMu.Unlock()
		return ErrBusy
	}
	s.messages = append(s.messages, models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	s.loading = true
	s.draft = models.NewDraft(uuid.New().String())
	s.cancel = cancel
	gen := s.generation
	st := s.stateLocked()
	s.mu.Unlock()
	s.publish(st)
	s.pubMu.Unlock()

	err := s.stream(ctx, gen, text)

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	if s.generation != gen {
		// Cleared while streaming; the new state is not ours to touch.
		s.mu.Unlock()
		return nil
	}
	s.loading = false
	s.cancel = nil
	if err != nil {
		s.draft = nil
	}
	st = s.stateLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Failed to stream reply", slog.String(errLoggerKey, err.Error()))
		s.notify(Notice{Level: NoticeError, Text: noticeSendFailed})
	}
	s.publish(st)
	return err
}

func (s *Session) stream(ctx context.Context, gen uint64, text string) error {
	req := models.ChatRequest{
		Message:      text,
		UseWebSearch: false,
	}

	for ev, err := range s.api.ChatStream(ctx, req) {
		if s.stale(gen) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error streaming reply: %w", err)
		}

		switch ev.Type {
		case models.EventThinkingStart, models.EventResponseStart, models.EventResponseEnd:
			s.logger.Debug("Stream marker", slog.String("type", string(ev.Type)))
			continue
		}

		if done := s.apply(gen, ev); done {
			return nil
		}
	}

	if s.stale(gen) {
		return nil
	}
	return ErrIncompleteStream
}

// apply feeds ev into the draft of send generation gen and reports whether the draft was finalized.
func (s *Session) apply(gen uint64, ev models.Event) bool {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	if s.generation != gen || s.draft == nil {
		s.mu.Unlock()
		return false
	}
	done := s.draft.Apply(ev)
	if done {
		s.messages = append(s.messages, s.draft.Message())
		s.draft = nil
	}
	st := s.stateLocked()
	s.mu.Unlock()

	s.publish(st)
	return done
}

func (s *Session) stale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation != gen
}

// AskTopic sends the canned question of the topic with the given id.
func (s *Session) AskTopic(ctx context.Context, topicID string) error {
	q, ok := TopicQuestion(topicID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topicID)
	}
	return s.Send(ctx, q)
}

// Clear empties the transcript and drops the draft. A send in flight is cancelled and its remaining events
// are ignored.
func (s *Session) Clear() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.messages = nil
	s.draft = nil
	s.loading = false
	st := s.stateLocked()
	s.mu.Unlock()

	s.publish(st)
	s.notify(Notice{Level: NoticeSuccess, Text: noticeCleared})
}

func (s *Session) stateLocked() State {
	msgs := make([]models.Message, len(s.messages))
	copy(msgs, s.messages)
	topics := make([]models.Topic, len(s.topics))
	copy(topics, s.topics)
	return State{
		Messages: msgs,
		Draft:    s.draft.Clone(),
		Topics:   topics,
		Loading:  s.loading,
	}
}

func (s *Session) publish(st State) {
	if s.listener != nil {
		s.listener.StateChanged(st)
	}
}

func (s *Session) notify(n Notice) {
	if s.listener != nil {
		s.listener.Notified(n)
	}
}
