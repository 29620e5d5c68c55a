package player

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/asciinema/asciinema-go/internal/asciicast"
)

// TTY is the capability the player needs from the controlling terminal
// to read playback control keystrokes. A nil TTY disables all
// interactivity: the recording plays to completion unattended.
type TTY interface {
	Read(p []byte) (int, error)
}

// KeyBindings configures the playback control keystrokes. A nil
// binding disables that control.
type KeyBindings struct {
	Quit       []byte
	Pause      []byte
	Step       []byte
	NextMarker []byte
}

// DefaultKeyBindings matches the upstream defaults: Ctrl-C quits, space
// pauses, `.` steps one event while paused, `]` skips to the next
// marker while paused.
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Quit:       []byte{0x03},
		Pause:      []byte(" "),
		Step:       []byte("."),
		NextMarker: []byte("]"),
	}
}

// Config configures a single playback run.
type Config struct {
	Cast           asciicast.Cast
	Out            io.Writer
	TTY            TTY
	Speed          float64
	IdleTimeLimit  time.Duration // 0 means "use the header's, else unlimited"
	PauseOnMarkers bool
	Bindings       KeyBindings
}

// Play drives playback until the recording completes, the context is
// cancelled, or the user quits. completed is false when the user quit
// early.
func Play(ctx context.Context, cfg Config) (completed bool, err error) {
	limit := cfg.IdleTimeLimit
	if limit <= 0 && cfg.Cast.Header.IdleTimeLimit != nil {
		limit = time.Duration(*cfg.Cast.Header.IdleTimeLimit * float64(time.Second))
	}

	events := LimitIdleTime(cfg.Cast.Events, limit)
	events = Accelerate(events, cfg.Speed)

	var input <-chan []byte
	if cfg.TTY != nil {
		ch := make(chan []byte)
		go readLoop(cfg.TTY, ch)
		input = ch
	}

	p := &player{
		out:      cfg.Out,
		input:    input,
		bindings: cfg.Bindings,
		pauseOn:  cfg.PauseOnMarkers,
	}
	return p.run(ctx, events)
}

func readLoop(tty TTY, out chan<- []byte) {
	buf := make([]byte, 1024)
	for {
		n, err := tty.Read(buf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			out <- cp
		}
		if err != nil {
			close(out)
			return
		}
	}
}

type player struct {
	out      io.Writer
	input    <-chan []byte
	bindings KeyBindings
	pauseOn  bool
}

// run plays events starting from epoch = now, honoring pause/step/
// next-marker/quit keys read from p.input. The wall-clock epoch is
// rewound whenever playback resumes from a pause so delays stay
// relative to unpaused elapsed time.
func (p *player) run(ctx context.Context, events []asciicast.Event) (bool, error) {
	epoch := time.Now()
	paused := false
	var pausedAt time.Duration

	i := 0
	for i < len(events) {
		ev := events[i]

		if paused {
			key, ok, err := p.waitInput(ctx, -1)
			if err != nil {
				return false, err
			}
			if !ok {
				continue
			}

			switch {
			case matches(key, p.bindings.Quit):
				p.out.Write([]byte("\r\n"))
				return false, nil

			case matches(key, p.bindings.Pause):
				epoch = time.Now().Add(-pausedAt)
				paused = false

			case matches(key, p.bindings.Step):
				if ev.Code == asciicast.CodeOutput {
					io.WriteString(p.out, ev.Data)
				}
				pausedAt = ev.Time
				i++

			case matches(key, p.bindings.NextMarker):
				for i < len(events) {
					ev = events[i]
					i++
					if ev.Code == asciicast.CodeOutput {
						io.WriteString(p.out, ev.Data)
					}
					if ev.Code == asciicast.CodeMarker {
						pausedAt = ev.Time
						break
					}
				}
			}
			continue
		}

		elapsed := time.Since(epoch)
		delay := ev.Time - elapsed

		if delay > 0 {
			key, ok, err := p.waitInput(ctx, delay)
			if err != nil {
				return false, err
			}
			if ok {
				if matches(key, p.bindings.Quit) {
					p.out.Write([]byte("\r\n"))
					return false, nil
				}
				if matches(key, p.bindings.Pause) {
					pausedAt = time.Since(epoch)
					paused = true
				}
				continue
			}
		}

		switch ev.Code {
		case asciicast.CodeOutput:
			io.WriteString(p.out, ev.Data)
		case asciicast.CodeMarker:
			if p.pauseOn {
				pausedAt = ev.Time
				paused = true
			}
		}
		i++
	}

	return true, nil
}

// waitInput waits up to timeout (or indefinitely, if timeout < 0) for a
// keystroke or ctx cancellation. ok is false on timeout.
func (p *player) waitInput(ctx context.Context, timeout time.Duration) (key []byte, ok bool, err error) {
	if p.input == nil {
		if timeout < 0 {
			<-ctx.Done()
			return nil, false, ctx.Err()
		}
		select {
		case <-time.After(timeout):
			return nil, false, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	var timer <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case data, open := <-p.input:
		if !open {
			p.input = nil
			return nil, false, nil
		}
		return data, true, nil
	case <-timer:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func matches(data, binding []byte) bool {
	return binding != nil && bytes.Equal(data, binding)
}
