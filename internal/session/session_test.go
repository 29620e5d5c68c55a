package session

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/asciinema/asciinema-go/internal/alis"
	"github.com/asciinema/asciinema-go/internal/broadcast"
)

// fakeReadWriter feeds a scripted sequence of reads over a channel, so
// more chunks can be pushed at any time before close signals EOF.
type fakeReadWriter struct {
	reads chan []byte

	mu      sync.Mutex
	written [][]byte
}

func newFakeReadWriter(chunks ...[]byte) *fakeReadWriter {
	f := &fakeReadWriter{reads: make(chan []byte, 16)}
	for _, c := range chunks {
		f.reads <- c
	}
	return f
}

func (f *fakeReadWriter) push(c []byte) {
	f.reads <- c
}

func (f *fakeReadWriter) Read(p []byte) (int, error) {
	c, ok := <-f.reads
	if !ok {
		return 0, io.EOF
	}
	return copy(p, c), nil
}

func (f *fakeReadWriter) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), p...)
	f.written = append(f.written, cp)
	return len(p), nil
}

func (f *fakeReadWriter) Resize(cols, rows uint16) error { return nil }
func (f *fakeReadWriter) Wait() (int, error)             { return 0, nil }
func (f *fakeReadWriter) Kill() (int, error)              { return 0, nil }

func (f *fakeReadWriter) close() {
	close(f.reads)
}

// collectSink records every emitted event.
type collectSink struct {
	mu     sync.Mutex
	events []broadcast.Event
	flush  bool
}

func (s *collectSink) Emit(ev broadcast.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *collectSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flush = true
	return nil
}

func (s *collectSink) snapshot() []broadcast.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]broadcast.Event, len(s.events))
	copy(out, s.events)
	return out
}

func waitFor(t *testing.T, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestOutputIsDecodedAndEchoedToTTY(t *testing.T) {
	pty := newFakeReadWriter([]byte("hello"))
	tty := newFakeReadWriter()
	sink := &collectSink{}

	e := New(Config{PTY: pty, TTY: tty, Sinks: []Sink{sink}})

	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)
	defer cancel()

	waitFor(t, func() bool { return len(sink.snapshot()) > 0 })

	events := sink.snapshot()
	if events[0].Tag != alis.TagOutput || string(events[0].Data) != "hello" {
		t.Fatalf("got %+v", events[0])
	}

	tty.mu.Lock()
	written := tty.written
	tty.mu.Unlock()
	if len(written) == 0 || string(written[0]) != "hello" {
		t.Fatalf("expected output echoed to tty, got %v", written)
	}

	pty.close()
	tty.close()
}

func TestExitEmittedOnPTYEOF(t *testing.T) {
	pty := newFakeReadWriter()
	sink := &collectSink{}
	e := New(Config{PTY: pty, Sinks: []Sink{sink}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pty.close()
	e.Run(ctx)

	events := sink.snapshot()
	if len(events) == 0 || events[len(events)-1].Tag != alis.TagExit {
		t.Fatalf("expected a final Exit event, got %+v", events)
	}
	if !sink.flush {
		t.Fatalf("expected sink to be flushed on exit")
	}
}

func TestPauseDropsOutputButKeepsEchoing(t *testing.T) {
	pty := newFakeReadWriter([]byte("before"))
	tty := newFakeReadWriter([]byte{0x1c}) // default pause key
	sink := &collectSink{}

	e := New(Config{
		PTY:      pty,
		TTY:      tty,
		Bindings: DefaultKeyBindings(),
		Sinks:    []Sink{sink},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)
	defer cancel()

	waitFor(t, func() bool { return e.paused })

	pty.push([]byte("after"))

	time.Sleep(20 * time.Millisecond)

	for _, ev := range sink.snapshot() {
		if ev.Tag == alis.TagOutput && string(ev.Data) == "after" {
			t.Fatalf("output emitted while paused")
		}
	}

	waitFor(t, func() bool {
		tty.mu.Lock()
		defer tty.mu.Unlock()
		for _, w := range tty.written {
			if n := len(w); n >= 5 && string(w[n-5:]) == "after" {
				return true
			}
		}
		return false
	})

	pty.close()
	tty.close()
}

func TestMarkerKeyEmitsMarkerEvent(t *testing.T) {
	pty := newFakeReadWriter()
	tty := newFakeReadWriter([]byte("M"))
	sink := &collectSink{}

	e := New(Config{
		PTY:      pty,
		TTY:      tty,
		Bindings: KeyBindings{AddMarker: []byte("M")},
		Sinks:    []Sink{sink},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)
	defer cancel()

	waitFor(t, func() bool {
		for _, ev := range sink.snapshot() {
			if ev.Tag == alis.TagMarker {
				return true
			}
		}
		return false
	})

	pty.close()
	tty.close()
}

func TestPrefixSwallowsArmingKeystroke(t *testing.T) {
	pty := newFakeReadWriter()
	tty := newFakeReadWriter([]byte{0x01}, []byte("x"))
	sink := &collectSink{}

	e := New(Config{
		PTY:         pty,
		TTY:         tty,
		Bindings:    KeyBindings{Prefix: []byte{0x01}},
		RecordInput: true,
		Sinks:       []Sink{sink},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)
	defer cancel()

	waitFor(t, func() bool {
		pty.mu.Lock()
		defer pty.mu.Unlock()
		return len(pty.written) > 0
	})

	pty.mu.Lock()
	written := pty.written
	pty.mu.Unlock()

	if len(written) != 1 || string(written[0]) != "x" {
		t.Fatalf("expected only 'x' forwarded to the child, got %v", written)
	}

	pty.close()
	tty.close()
}

func TestResizeUpdatesSizeAndDeliversEventOnlyWhenChanged(t *testing.T) {
	pty := newFakeReadWriter()
	sink := &collectSink{}

	e := New(Config{PTY: pty, Cols: 80, Rows: 24, Sinks: []Sink{sink}})

	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)
	defer cancel()

	e.Resize(80, 24) // no-op, size unchanged
	e.Resize(100, 30)

	waitFor(t, func() bool {
		for _, ev := range sink.snapshot() {
			if ev.Tag == alis.TagResize {
				return true
			}
		}
		return false
	})

	var resizeCount int
	for _, ev := range sink.snapshot() {
		if ev.Tag == alis.TagResize {
			resizeCount++
			if ev.Cols != 100 || ev.Rows != 30 {
				t.Fatalf("got (%d, %d), want (100, 30)", ev.Cols, ev.Rows)
			}
		}
	}
	if resizeCount != 1 {
		t.Fatalf("expected exactly 1 resize event, got %d", resizeCount)
	}

	pty.close()
}
