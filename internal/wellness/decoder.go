package wellness

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/wellness-assistant/wellness-web-ui/internal/models"
)

const dataPrefix = "data: "

// Decoder turns chunks of a chat stream body into events. Each line that starts with "data: " carries one
// JSON encoded event; every other line is ignored. A line that is split across two chunks is held back until
// its terminating newline arrives, so chunk boundaries never drop or corrupt an event.
//
// Lines whose payload is not valid JSON are logged and skipped.
type Decoder struct {
	pending []byte
	logger  *slog.Logger
}

// NewDecoder creates a Decoder that logs skipped lines to logger.
func NewDecoder(logger *slog.Logger) *Decoder {
	return &Decoder{logger: logger}
}

// Feed decodes every complete line available after appending chunk to the held-back remainder.
func (d *Decoder) Feed(chunk []byte) []models.Event {
	d.pending = append(d.pending, chunk...)

	var events []models.Event
	for {
		idx := bytes.IndexByte(d.pending, '\n')
		if idx < 0 {
			break
		}
		line := d.pending[:idx]
		d.pending = d.pending[idx+1:]
		if ev, ok := d.decodeLine(line); ok {
			events = append(events, ev)
		}
	}

	// Reclaim the consumed prefix once nothing is held back.
	if len(d.pending) == 0 {
		d.pending = d.pending[:0:0]
	}
	return events
}

// Flush decodes the unterminated line left at the end of the body, if any.
func (d *Decoder) Flush() []models.Event {
	line := d.pending
	d.pending = nil
	if len(line) == 0 {
		return nil
	}
	if ev, ok := d.decodeLine(line); ok {
		return []models.Event{ev}
	}
	return nil
}

// DecodeAll decodes a complete body in one pass.
func (d *Decoder) DecodeAll(body []byte) []models.Event {
	return append(d.Feed(body), d.Flush()...)
}

func (d *Decoder) decodeLine(line []byte) (models.Event, bool) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if !bytes.HasPrefix(line, []byte(dataPrefix)) {
		return models.Event{}, false
	}
	payload := line[len(dataPrefix):]

	var ev models.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		d.logger.Warn("Skipping malformed stream event",
			slog.String("line", string(payload)),
			slog.String(errLoggerKey, err.Error()))
		return models.Event{}, false
	}
	d.logger.Debug("Stream event", slog.String("type", string(ev.Type)))
	return ev, true
}
