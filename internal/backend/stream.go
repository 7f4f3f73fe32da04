package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmaxmax/go-sse"
	"github.com/wellness-assistant/wellness-web-ui/internal/models"
)

// Pacing spaces out the streamed events to give the answer a typing effect. The zero value streams
// without delay.
type Pacing struct {
	// Before is waited after each start marker.
	Before        time.Duration
	ThinkingWord  time.Duration
	AfterThinking time.Duration
	ResponseWord  time.Duration
}

// DefaultPacing is the typing effect used when the backend runs for real.
var DefaultPacing = Pacing{
	Before:        100 * time.Millisecond,
	ThinkingWord:  30 * time.Millisecond,
	AfterThinking: 200 * time.Millisecond,
	ResponseWord:  50 * time.Millisecond,
}

// answer is everything streamed back for one chat request.
type answer struct {
	StructuredResponse

	WebSources  []models.WebSource
	WebSearched bool
}

type eventWriter struct {
	sess   *sse.Session
	pacing Pacing
}

// streamAnswer writes a as thinking_start, thinking words, thinking_end, response_start, response words,
// response_end, metadata and done. The thinking part is skipped when there is no thinking. It stops early
// when ctx is done.
func streamAnswer(ctx context.Context, sess *sse.Session, pacing Pacing, a answer) error {
	w := eventWriter{sess: sess, pacing: pacing}

	if a.Thinking != "" {
		if err := w.send(ctx, models.Event{Type: models.EventThinkingStart}, pacing.Before); err != nil {
			return err
		}
		if err := w.words(ctx, models.EventThinking, a.Thinking, pacing.ThinkingWord); err != nil {
			return err
		}
		if err := w.send(ctx, models.Event{Type: models.EventThinkingEnd}, pacing.AfterThinking); err != nil {
			return err
		}
	}

	if err := w.send(ctx, models.Event{Type: models.EventResponseStart}, pacing.Before); err != nil {
		return err
	}
	if err := w.words(ctx, models.EventResponse, a.Response, pacing.ResponseWord); err != nil {
		return err
	}
	if err := w.send(ctx, models.Event{Type: models.EventResponseEnd}, 0); err != nil {
		return err
	}

	meta := models.Event{
		Type:        models.EventMetadata,
		Sources:     a.Sources,
		WebSearched: a.WebSearched,
	}
	if a.WebSources != nil {
		raw, err := json.Marshal(a.WebSources)
		if err != nil {
			return fmt.Errorf("failed to marshal web sources: %w", err)
		}
		meta.WebSources = raw
	}
	if err := w.send(ctx, meta, 0); err != nil {
		return err
	}

	return w.send(ctx, models.Event{Type: models.EventDone}, 0)
}

// words streams text one word at a time. Every word but the last carries a trailing space.
func (w eventWriter) words(ctx context.Context, typ models.EventType, text string, delay time.Duration) error {
	words := strings.Fields(text)
	for i, word := range words {
		if i < len(words)-1 {
			word += " "
		}
		if err := w.send(ctx, models.Event{Type: typ, Content: word}, delay); err != nil {
			return err
		}
	}
	return nil
}

func (w eventWriter) send(ctx context.Context, ev models.Event, delay time.Duration) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sse.Message{}
	msg.AppendData(string(b))
	if err := w.sess.Send(msg); err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}
	if err := w.sess.Flush(); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}

	if delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
