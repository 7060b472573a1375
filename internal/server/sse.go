package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/cojournalist/internal/modes"
	"github.com/jonathan/cojournalist/internal/session"
	"github.com/jonathan/cojournalist/internal/types"
)

// Chat stream event names.
const (
	eventMessage  = "message"
	eventError    = "error"
	eventComplete = "complete"
)

// messageEvent is the data of a "message" event: one transcript entry as it
// is appended.
type messageEvent struct {
	Mode    modes.Mode    `json:"mode"`
	Message types.Message `json:"message"`
}

// chatStream writes the server-sent events of one streamed chat submission.
// The 200 status is committed on creation, so submission failures travel as
// an "error" event.
type chatStream struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	sessionID string
}

func newChatStream(w http.ResponseWriter, sessionID string) (*chatStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &chatStream{w: w, flusher: flusher, sessionID: sessionID}, nil
}

func (c *chatStream) write(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

// Message streams one appended transcript entry.
func (c *chatStream) Message(mode modes.Mode, msg types.Message) error {
	return c.write(eventMessage, messageEvent{Mode: mode, Message: msg})
}

// Fail ends the stream with the submission error.
func (c *chatStream) Fail(err error) {
	c.write(eventError, map[string]string{"error": err.Error()}) //nolint:errcheck
}

// Complete ends the stream with the session after the exchange.
func (c *chatStream) Complete(snap session.Snapshot) {
	c.write(eventComplete, map[string]any{ //nolint:errcheck
		"session_id": c.sessionID,
		"session":    snap,
	})
}
