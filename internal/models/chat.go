package models

import (
	"encoding/json"
	"time"
)

// Message represents an individual entry within the wellness chat transcript. Once a message is appended to
// the transcript it is never modified; assistant messages are produced only by finalizing a Draft.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time

	// Thinking is the reasoning trace streamed before the answer. Empty if none arrived.
	Thinking string
	// Sources lists the citation names reported by the metadata event.
	Sources []string
	// WebSources is kept as the raw JSON the backend sent, see ParseWebSources.
	WebSources  json.RawMessage
	WebSearched bool
}

// Draft is the mutable, in-progress assistant reply that is filled by stream events until the terminal done
// event turns it into a Message.
type Draft struct {
	ID        string
	Content   string
	Thinking  string
	Timestamp time.Time

	Sources     []string
	WebSources  json.RawMessage
	WebSearched bool

	ThinkingComplete bool
}

// Topic is a predefined wellness-question shortcut shown before any conversation starts.
type Topic struct {
	ID    string `json:"id"`
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

// Role represents the role of a message participant.
type Role string

const (
	// RoleUser represents a message typed by the user.
	RoleUser Role = "user"
	// RoleAssistant represents a message produced by the wellness assistant.
	RoleAssistant Role = "assistant"
)

// NewDraft creates an empty draft with the given id.
func NewDraft(id string) *Draft {
	return &Draft{
		ID:        id,
		Timestamp: time.Now(),
	}
}

// Apply mutates the draft according to ev. It reports true when ev is the terminal done event, after which
// the draft should be finalized with Message and discarded.
func (d *Draft) Apply(ev Event) bool {
	switch ev.Type {
	case EventThinking:
		d.Thinking += ev.Content
	case EventThinkingEnd:
		d.ThinkingComplete = true
	case EventResponse:
		d.Content += ev.Content
	case EventMetadata:
		d.Sources = ev.Sources
		d.WebSources = ev.WebSources
		d.WebSearched = ev.WebSearched
	case EventDone:
		return true
	}
	return false
}

// Message converts the draft into an immutable assistant message.
func (d *Draft) Message() Message {
	return Message{
		ID:          d.ID,
		Role:        RoleAssistant,
		Content:     d.Content,
		Timestamp:   d.Timestamp,
		Thinking:    d.Thinking,
		Sources:     cloneStrings(d.Sources),
		WebSources:  cloneRaw(d.WebSources),
		WebSearched: d.WebSearched,
	}
}

// Clone returns a deep copy of the draft, so snapshots handed to views are not affected by later events.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	c := *d
	c.Sources = cloneStrings(d.Sources)
	c.WebSources = cloneRaw(d.WebSources)
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneRaw(r json.RawMessage) json.RawMessage {
	if r == nil {
		return nil
	}
	return append(json.RawMessage(nil), r...)
}
