// Package session implements the capture loop: it reads PTY output and
// controlling-terminal input, classifies and timestamps each chunk,
// applies the key-binding state machine (prefix/pause/marker), and fans
// resulting events out to every configured sink.
package session

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/asciinema/asciinema-go/internal/alis"
	"github.com/asciinema/asciinema-go/internal/broadcast"
	"github.com/asciinema/asciinema-go/internal/notifier"
	"github.com/asciinema/asciinema-go/internal/utf8dec"
)

// PTY is the capability the engine needs from the pseudo-terminal half
// of the session.
type PTY interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Resize(cols, rows uint16) error
}

// TTY is the capability the engine needs from the controlling terminal.
type TTY interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// Sink receives every event the engine produces, in order.
type Sink interface {
	Emit(broadcast.Event) error
	Flush() error
}

// KeyBindings configures the prefix/pause/marker keystrokes. A nil
// binding disables that behavior.
type KeyBindings struct {
	Prefix    []byte
	Pause     []byte
	AddMarker []byte
}

// DefaultKeyBindings matches the upstream default: no prefix, pause
// bound to ^\ (0x1c), no marker binding.
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{Pause: []byte{0x1c}}
}

// Config configures a new Engine.
type Config struct {
	PTY         PTY
	TTY         TTY // optional; nil disables input capture and live echo
	Cols, Rows  uint16
	Bindings    KeyBindings
	RecordInput bool
	Notifier    notifier.Sink
	Sinks       []Sink
	Logger      *slog.Logger
}

// Engine runs the capture loop for a single recorded session. All state
// is owned by the goroutine executing Run; Resize is the only method
// safe to call concurrently from another goroutine.
type Engine struct {
	pty  PTY
	tty  TTY
	cols uint16
	rows uint16

	bindings    KeyBindings
	recordInput bool
	armed       bool

	decIn  *utf8dec.Decoder
	decOut *utf8dec.Decoder

	start          time.Time
	paused         bool
	pauseStart     time.Duration
	pausedDuration time.Duration

	sinks []Sink
	notif notifier.Sink

	resizeCh chan [2]uint16
	logger   *slog.Logger
}

// New constructs an Engine ready to Run.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notif := cfg.Notifier
	if notif == nil {
		notif = notifier.NullSink{}
	}

	return &Engine{
		pty:         cfg.PTY,
		tty:         cfg.TTY,
		cols:        cfg.Cols,
		rows:        cfg.Rows,
		bindings:    cfg.Bindings,
		recordInput: cfg.RecordInput,
		decIn:       utf8dec.New(),
		decOut:      utf8dec.New(),
		sinks:       cfg.Sinks,
		notif:       notif,
		resizeCh:    make(chan [2]uint16, 1),
		logger:      logger,
	}
}

// Resize records an external window-size change (e.g. detected via
// SIGWINCH) to be applied on the engine's next loop iteration. Only the
// most recent pending resize is kept.
func (e *Engine) Resize(cols, rows uint16) {
	for {
		select {
		case e.resizeCh <- [2]uint16{cols, rows}:
			return
		default:
			select {
			case <-e.resizeCh:
			default:
			}
		}
	}
}

type readResult struct {
	data []byte
	err  error
}

func readLoop(r interface {
	Read(p []byte) (int, error)
}, out chan<- readResult) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			out <- readResult{data: cp}
		}
		if err != nil {
			out <- readResult{err: err}
			return
		}
	}
}

// Run drives the capture loop until the PTY reports EOF/EIO (the child
// has exited) or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.start = time.Now()

	var ptyCh, ttyCh chan readResult

	if e.pty != nil {
		ptyCh = make(chan readResult)
		go readLoop(e.pty, ptyCh)
	}
	if e.tty != nil {
		ttyCh = make(chan readResult)
		go readLoop(e.tty, ttyCh)
	}

	for {
		select {
		case r := <-ptyCh:
			if r.err != nil {
				return e.terminate()
			}
			e.handleOutput(r.data)

		case r := <-ttyCh:
			if r.err != nil {
				ttyCh = nil // controlling tty gone; stop selecting on it
				continue
			}
			e.handleInput(r.data)

		case sz := <-e.resizeCh:
			e.handleResize(sz[0], sz[1])

		case <-ctx.Done():
			if e.pty != nil {
				if k, ok := e.pty.(interface{ Kill() (int, error) }); ok {
					k.Kill()
				}
			}
			return ctx.Err()
		}
	}
}

// elapsed returns the session clock at now: real wall time since start,
// minus accumulated pause time, or the frozen pause instant while
// currently paused.
func (e *Engine) elapsed(now time.Time) time.Duration {
	if e.paused {
		return e.pauseStart
	}
	return now.Sub(e.start) - e.pausedDuration
}

func (e *Engine) handleOutput(data []byte) {
	now := time.Now()

	if e.tty != nil {
		e.tty.Write(data)
	}

	if e.paused {
		return
	}

	text := e.decOut.Feed(data)
	if text == "" {
		return
	}
	e.deliver(alis.TagOutput, e.elapsed(now), []byte(text), 0, 0, 0)
}

func (e *Engine) handleInput(data []byte) {
	now := time.Now()

	if !e.armed && e.bindings.Prefix != nil && bytes.Equal(data, e.bindings.Prefix) {
		e.armed = true
		return
	}

	if e.armed || e.bindings.Prefix == nil {
		e.armed = false

		if e.bindings.Pause != nil && bytes.Equal(data, e.bindings.Pause) {
			e.togglePause(now)
			return
		}

		if e.bindings.AddMarker != nil && bytes.Equal(data, e.bindings.AddMarker) {
			e.deliver(alis.TagMarker, e.elapsed(now), nil, 0, 0, 0)
			e.notif.Notify("Marker added")
			return
		}
	}

	if e.pty != nil {
		e.pty.Write(data)
	}

	if !e.recordInput || e.paused {
		return
	}

	text := e.decIn.Feed(data)
	if text == "" {
		return
	}
	e.deliver(alis.TagInput, e.elapsed(now), []byte(text), 0, 0, 0)
}

func (e *Engine) togglePause(now time.Time) {
	if e.paused {
		e.paused = false
		e.pausedDuration += e.elapsed(now) - e.pauseStart
		e.notif.Notify("Resumed recording")
		return
	}

	e.pauseStart = e.elapsed(now)
	e.paused = true
	e.notif.Notify("Paused recording")
}

func (e *Engine) handleResize(cols, rows uint16) {
	if cols == e.cols && rows == e.rows {
		return
	}
	e.cols, e.rows = cols, rows

	if e.pty != nil {
		e.pty.Resize(cols, rows)
	}

	e.deliver(alis.TagResize, e.elapsed(time.Now()), nil, uint64(cols), uint64(rows), 0)
}

func (e *Engine) terminate() error {
	status := 0
	if w, ok := e.pty.(interface{ Wait() (int, error) }); ok {
		if s, err := w.Wait(); err == nil {
			status = s
		}
	}

	e.deliver(alis.TagExit, e.elapsed(time.Now()), nil, 0, 0, status)

	for _, s := range e.sinks {
		if err := s.Flush(); err != nil {
			e.logger.Warn("sink flush failed", "error", err)
		}
	}
	return nil
}

func (e *Engine) deliver(tag alis.Tag, elapsed time.Duration, data []byte, cols, rows uint64, status int) {
	ev := broadcast.Event{
		Tag:    tag,
		TimeUS: uint64(elapsed / time.Microsecond),
		Data:   data,
		Cols:   cols,
		Rows:   rows,
		Status: status,
	}
	for _, s := range e.sinks {
		if err := s.Emit(ev); err != nil {
			e.logger.Warn("sink emit failed, continuing", "error", err)
		}
	}
}
