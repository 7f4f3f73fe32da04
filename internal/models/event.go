package models

import "encoding/json"

// EventType is the value of the "type" field of a stream event.
type EventType string

const (
	EventThinkingStart EventType = "thinking_start"
	EventThinking      EventType = "thinking"
	EventThinkingEnd   EventType = "thinking_end"
	EventResponseStart EventType = "response_start"
	EventResponse      EventType = "response"
	EventResponseEnd   EventType = "response_end"
	EventMetadata      EventType = "metadata"
	EventDone          EventType = "done"
)

// Event is one decoded "data: " line of the chat stream. Which payload fields are set depends on Type:
// Content for thinking and response, the remaining fields for metadata.
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`

	Sources     []string        `json:"sources,omitempty"`
	WebSources  json.RawMessage `json:"web_sources,omitempty"`
	WebSearched bool            `json:"web_searched,omitempty"`
}

// ChatRequest is the body of a chat stream request.
type ChatRequest struct {
	Message      string `json:"message"`
	UseWebSearch bool   `json:"use_web_search"`
}

// WebSource is the shape the wellness backend uses for entries of web_sources.
type WebSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ParseWebSources decodes raw web_sources as a list of WebSource. The field is opaque to the protocol, so
// anything that does not match that shape yields nil.
func ParseWebSources(raw json.RawMessage) []WebSource {
	if len(raw) == 0 {
		return nil
	}
	var ws []WebSource
	if err := json.Unmarshal(raw, &ws); err != nil {
		return nil
	}
	return ws
}
