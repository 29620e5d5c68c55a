// Package filesink adapts the session engine's broadcast.Event stream
// to a recording file: it converts the hub's wire-shaped events into
// asciicast.Event values and drives one of the internal/encoder
// implementations, buffering writes to the underlying file.
package filesink

import (
	"bufio"
	"io"
	"time"

	"github.com/asciinema/asciinema-go/internal/alis"
	"github.com/asciinema/asciinema-go/internal/asciicast"
	"github.com/asciinema/asciinema-go/internal/broadcast"
	"github.com/asciinema/asciinema-go/internal/encoder"
)

// Sink writes every broadcast.Event it is handed to a file-backed
// encoder, implementing session.Sink.
type Sink struct {
	w       *bufio.Writer
	enc     encoder.Encoder
	closer  io.Closer
	wroteHd bool
	header  asciicast.Header
}

// New creates a Sink that writes h followed by every emitted event
// through enc to w. If closer is non-nil it is closed on Flush.
func New(w io.Writer, closer io.Closer, enc encoder.Encoder, h asciicast.Header) *Sink {
	return &Sink{w: bufio.NewWriter(w), enc: enc, closer: closer, header: h}
}

// Emit converts ev and writes it, writing the header first on the
// initial call.
func (s *Sink) Emit(ev broadcast.Event) error {
	if !s.wroteHd {
		if _, err := s.w.Write(s.enc.Header(s.header)); err != nil {
			return err
		}
		s.wroteHd = true
	}

	a, ok := toAsciicastEvent(ev)
	if !ok {
		return nil
	}
	_, err := s.w.Write(s.enc.Event(a))
	return err
}

// Flush writes the header if no event has arrived yet, flushes the
// encoder's trailer, flushes the buffered writer, and closes the
// underlying file if one was given.
func (s *Sink) Flush() error {
	if !s.wroteHd {
		if _, err := s.w.Write(s.enc.Header(s.header)); err != nil {
			return err
		}
		s.wroteHd = true
	}
	if _, err := s.w.Write(s.enc.Flush()); err != nil {
		return err
	}
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func toAsciicastEvent(ev broadcast.Event) (asciicast.Event, bool) {
	t := time.Duration(ev.TimeUS) * time.Microsecond

	switch ev.Tag {
	case alis.TagOutput:
		return asciicast.OutputEvent(t, string(ev.Data)), true
	case alis.TagInput:
		return asciicast.InputEvent(t, string(ev.Data)), true
	case alis.TagMarker:
		return asciicast.MarkerEvent(t, string(ev.Data)), true
	case alis.TagResize:
		return asciicast.ResizeEvent(t, uint16(ev.Cols), uint16(ev.Rows)), true
	default: // Exit and anything else: not part of the recorded timeline
		return asciicast.Event{}, false
	}
}
