package broadcast

import (
	"testing"

	"github.com/asciinema/asciinema-go/internal/alis"
)

func TestSubscribeReturnsInitSnapshot(t *testing.T) {
	h := New(80, 24)
	init, sub := h.Subscribe()
	defer sub.Close()

	if init.Cols != 80 || init.Rows != 24 {
		t.Fatalf("got (%d, %d), want (80, 24)", init.Cols, init.Rows)
	}
	if init.LastID != 0 {
		t.Fatalf("expected LastID 0 on a fresh hub, got %d", init.LastID)
	}
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	h := New(80, 24)
	_, sub := h.Subscribe()
	defer sub.Close()

	h.Publish(Event{Tag: alis.TagOutput, TimeUS: 1000, Data: []byte("hi")})

	ev, err := sub.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(ev.Data) != "hi" {
		t.Fatalf("got %q, want %q", ev.Data, "hi")
	}
	if ev.ID != 0 {
		t.Fatalf("expected first event id 0, got %d", ev.ID)
	}
}

func TestOutputFeedsGridForLaterInit(t *testing.T) {
	h := New(10, 2)
	_, sub := h.Subscribe()
	defer sub.Close()

	h.Publish(Event{Tag: alis.TagOutput, TimeUS: 0, Data: []byte("hi")})
	sub.Next()

	_, sub2 := h.Subscribe()
	defer sub2.Close()

	init, _ := h.Subscribe()
	if len(init.Dump) == 0 {
		t.Fatalf("expected non-empty dump after output was fed to the grid")
	}
}

func TestResizeUpdatesInitSize(t *testing.T) {
	h := New(80, 24)
	h.Publish(Event{Tag: alis.TagResize, TimeUS: 0, Cols: 100, Rows: 30})

	init, sub := h.Subscribe()
	defer sub.Close()

	if init.Cols != 100 || init.Rows != 30 {
		t.Fatalf("got (%d, %d), want (100, 30)", init.Cols, init.Rows)
	}
}

func TestLaggedSubscriberGetsGapSignal(t *testing.T) {
	h := New(80, 24)
	_, sub := h.Subscribe()
	defer sub.Close()

	for i := 0; i < ringCapacity+10; i++ {
		h.Publish(Event{Tag: alis.TagOutput, TimeUS: uint64(i), Data: []byte("x")})
	}

	_, err := sub.Next()
	if err == nil {
		t.Fatalf("expected a Lagged error after overflowing the ring")
	}
	if _, ok := err.(*Lagged); !ok {
		t.Fatalf("expected *Lagged, got %T: %v", err, err)
	}
}

func TestCloseUnblocksNext(t *testing.T) {
	h := New(80, 24)
	_, sub := h.Subscribe()

	done := make(chan error, 1)
	go func() {
		_, err := sub.Next()
		done <- err
	}()

	sub.Close()

	if err := <-done; err == nil {
		t.Fatalf("expected Next to return an error after Close")
	}
}

func TestThemeCarriedIntoInit(t *testing.T) {
	h := New(80, 24)
	theme := &alis.Theme{FG: alis.RGB{R: 1}, BG: alis.RGB{G: 2}}
	h.SetTheme(theme)

	init, sub := h.Subscribe()
	defer sub.Close()

	if init.Theme == nil || *init.Theme != *theme {
		t.Fatalf("expected theme to be carried into the init snapshot")
	}
}
