package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wellness-assistant/wellness-web-ui/internal/models"
)

const (
	// ShellReplyDelay is how long the static shell waits before it appends its canned reply.
	ShellReplyDelay = 1000 * time.Millisecond
	// ShellReply is the canned reply of the static shell.
	ShellReply = "Thanks for reaching out! I'm your wellness assistant. " +
		"I can share general tips on nutrition, exercise, sleep, stress and hydration."
)

// Shell is the static chat shell: it echoes the user's bubbles and answers each of them with the same
// canned reply after a fixed delay. It never talks to the network.
type Shell struct {
	delay    time.Duration
	onChange func([]models.ShellMessage)

	mu       sync.Mutex
	messages []models.ShellMessage
	timers   []*time.Timer
}

// NewShell creates a Shell that replies after delay and reports every change of its message list to
// onChange, which may be nil.
func NewShell(delay time.Duration, onChange func([]models.ShellMessage)) *Shell {
	return &Shell{
		delay:    delay,
		onChange: onChange,
	}
}

// Send appends text as a right-aligned user bubble and schedules the canned reply. Text that is empty after
// trimming is ignored and Send reports false.
func (s *Shell) Send(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	s.append(models.ShellMessage{
		ID:       uuid.New().String(),
		Type:     models.ShellMessageText,
		Text:     text,
		Position: models.PositionRight,
	})

	t := time.AfterFunc(s.delay, func() {
		s.append(models.ShellMessage{
			ID:       uuid.New().String(),
			Type:     models.ShellMessageText,
			Text:     ShellReply,
			Position: models.PositionLeft,
		})
	})

	s.mu.Lock()
	s.timers = append(s.timers, t)
	s.mu.Unlock()
	return true
}

// Messages returns a copy of the shell's message list.
func (s *Shell) Messages() []models.ShellMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ShellMessage(nil), s.messages...)
}

// Stop cancels the replies that have not been appended yet.
func (s *Shell) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func (s *Shell) append(msg models.ShellMessage) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	msgs := append([]models.ShellMessage(nil), s.messages...)
	if s.onChange != nil {
		// Called under the lock so observers see changes in order.
		s.onChange(msgs)
	}
	s.mu.Unlock()
}
