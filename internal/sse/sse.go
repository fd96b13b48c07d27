// Package sse frames named JSON events over a text/event-stream response
// and parses them back.
package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// Event names used by the workflow stream
const (
	EventStep   = "step"
	EventResult = "result"
	EventDone   = "done"
	EventError  = "error"
)

// Writer sends frames to an HTTP response, flushing after each one.
// It is safe for concurrent use.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
}

// NewWriter sets the stream headers when w is an http.ResponseWriter.
func NewWriter(w io.Writer) *Writer {
	sw := &Writer{w: w}
	if rw, ok := w.(http.ResponseWriter); ok {
		h := rw.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
	}
	if f, ok := w.(http.Flusher); ok {
		sw.flusher = f
	}
	return sw
}

// Send writes one frame with data encoded as JSON
func (s *Writer) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return eris.Wrapf(err, "sse: marshal %s event", event)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return eris.Wrapf(err, "sse: write %s event", event)
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// Frame is one parsed event
type Frame struct {
	Event string
	Data  string
}

// Decode unmarshals the frame's data into v
func (f Frame) Decode(v any) error {
	if err := json.Unmarshal([]byte(f.Data), v); err != nil {
		return eris.Wrapf(err, "sse: decode %s event", f.Event)
	}
	return nil
}

// Decoder reads frames from a stream. A frame is only yielded once its
// terminating blank line has been read; a trailing partial frame is dropped.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder creates a Decoder
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next complete frame, or io.EOF when the stream ends.
func (d *Decoder) Next() (Frame, error) {
	var f Frame
	var data []string
	started := false

	for {
		line, err := d.r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return Frame{}, io.EOF
			}
			return Frame{}, eris.Wrap(err, "sse: read stream")
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if !started {
				continue
			}
			f.Data = strings.Join(data, "\n")
			return f, nil
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			f.Event = value
			started = true
		case "data":
			data = append(data, value)
			started = true
		}
	}
}
