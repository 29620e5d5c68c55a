package player

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/asciinema/asciinema-go/internal/asciicast"
)

func TestLimitIdleTimeSquashesLongGaps(t *testing.T) {
	events := []asciicast.Event{
		asciicast.OutputEvent(0, "a"),
		asciicast.OutputEvent(5*time.Second, "b"),
		asciicast.OutputEvent(6*time.Second, "c"),
	}

	got := LimitIdleTime(events, 2*time.Second)

	if got[0].Time != 0 {
		t.Fatalf("first event time = %v, want 0", got[0].Time)
	}
	if got[1].Time != 2*time.Second {
		t.Fatalf("second event time = %v, want 2s", got[1].Time)
	}
	if got[2].Time != 3*time.Second {
		t.Fatalf("third event time = %v, want 3s", got[2].Time)
	}
}

func TestAccelerateDividesTimeBySpeed(t *testing.T) {
	events := []asciicast.Event{asciicast.OutputEvent(4*time.Second, "x")}
	got := Accelerate(events, 2.0)
	if got[0].Time != 2*time.Second {
		t.Fatalf("time = %v, want 2s", got[0].Time)
	}
}

func TestPlayWithoutTTYRunsToCompletion(t *testing.T) {
	cast := asciicast.Cast{
		Header: asciicast.Header{Cols: 80, Rows: 24},
		Events: []asciicast.Event{
			asciicast.OutputEvent(0, "hello"),
			asciicast.OutputEvent(1*time.Millisecond, " world"),
		},
	}

	var buf bytes.Buffer
	completed, err := Play(context.Background(), Config{Cast: cast, Out: &buf, Speed: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if !completed {
		t.Fatal("expected playback to complete")
	}
	if buf.String() != "hello world" {
		t.Fatalf("got %q", buf.String())
	}
}

type fakeTTY struct {
	sent chan []byte
}

func (f *fakeTTY) Read(p []byte) (int, error) {
	data, ok := <-f.sent
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

func TestPlayQuitsOnQuitKey(t *testing.T) {
	cast := asciicast.Cast{
		Header: asciicast.Header{Cols: 80, Rows: 24},
		Events: []asciicast.Event{
			asciicast.OutputEvent(0, "a"),
			asciicast.OutputEvent(10*time.Second, "b"),
		},
	}

	tty := &fakeTTY{sent: make(chan []byte, 1)}
	var buf bytes.Buffer

	done := make(chan bool, 1)
	go func() {
		completed, err := Play(context.Background(), Config{
			Cast: cast, Out: &buf, TTY: tty, Speed: 1,
			Bindings: DefaultKeyBindings(),
		})
		if err != nil {
			t.Error(err)
		}
		done <- completed
	}()

	time.Sleep(20 * time.Millisecond)
	tty.sent <- []byte{0x03}

	select {
	case completed := <-done:
		if completed {
			t.Fatal("expected playback to report early exit")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for quit to take effect")
	}
}

func TestPlayRespectsContextCancellation(t *testing.T) {
	cast := asciicast.Cast{
		Header: asciicast.Header{Cols: 80, Rows: 24},
		Events: []asciicast.Event{
			asciicast.OutputEvent(0, "a"),
			asciicast.OutputEvent(10*time.Second, "b"),
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer

	done := make(chan error, 1)
	go func() {
		_, err := Play(ctx, Config{Cast: cast, Out: &buf, Speed: 1})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected context cancellation error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cancellation")
	}
}
