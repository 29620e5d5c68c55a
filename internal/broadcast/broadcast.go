// Package broadcast implements the in-process event hub that fans a
// single recorded session out to any number of subscribers (the local
// WebSocket server, the upstream forwarder). Producers never block on
// slow consumers; a consumer that falls too far behind is dropped with
// a Lagged signal instead of stalling the session.
package broadcast

import (
	"sync"
	"time"

	"github.com/asciinema/asciinema-go/internal/alis"
	"github.com/asciinema/asciinema-go/internal/vt"
)

// ringCapacity bounds how many events a subscriber may lag behind
// before it is considered unrecoverable.
const ringCapacity = 1024

// Event is a single session event as delivered to subscribers, in the
// hub's internal representation (not yet wire-encoded).
type Event struct {
	ID     uint64
	Tag    alis.Tag
	TimeUS uint64
	Data   []byte
	Cols   uint64
	Rows   uint64
	Status int
}

// Init describes the snapshot synthesized for a newly-subscribed
// consumer so it can render the session from its current state instead
// of its beginning.
type Init struct {
	LastID uint64
	TimeUS uint64
	Cols   uint64
	Rows   uint64
	Theme  *alis.Theme
	Dump   []byte
}

// Lagged is returned by Subscription.Next when the consumer fell behind
// the ring by more than its capacity; the gap it represents cannot be
// recovered and the caller must re-subscribe.
type Lagged struct {
	N uint64
}

func (l *Lagged) Error() string {
	return "subscriber lagged behind the event ring"
}

// Hub holds a bounded ring of recent events plus enough live state
// (terminal grid, theme, elapsed time) to synthesize an Init snapshot
// for any new subscriber.
type Hub struct {
	mu sync.Mutex

	ring    [ringCapacity]Event
	nextID  uint64 // id that will be assigned to the next published event
	oldest  uint64 // smallest id still present in the ring
	grid    vt.Grid
	theme   *alis.Theme
	elapsed time.Duration

	subscribers map[*Subscription]struct{}
}

// New creates a Hub backing a terminal grid of the given size.
func New(cols, rows int) *Hub {
	return &Hub{
		grid:        vt.New(cols, rows, 0),
		subscribers: make(map[*Subscription]struct{}),
	}
}

// HubSink adapts a Hub to the session engine's Sink interface, so the
// hub can be registered alongside file sinks without the engine
// depending on this package's concrete type.
type HubSink struct{ Hub *Hub }

// Emit publishes ev to the hub. It never errors: Publish is always
// safe to call and never blocks on subscribers.
func (s HubSink) Emit(ev Event) error { s.Hub.Publish(ev); return nil }

// Flush is a no-op: the hub has no buffered state to persist.
func (s HubSink) Flush() error { return nil }

// SetTheme records the session's color theme, included in future Init
// snapshots.
func (h *Hub) SetTheme(theme *alis.Theme) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.theme = theme
}

// Publish appends an event to the ring, updates grid state for Output
// and Resize events, and wakes every subscriber.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()

	h.elapsed = time.Duration(ev.TimeUS) * time.Microsecond

	switch ev.Tag {
	case alis.TagOutput:
		h.grid.Feed(ev.Data)
	case alis.TagResize:
		h.grid.Resize(int(ev.Cols), int(ev.Rows))
	}

	ev.ID = h.nextID
	h.ring[ev.ID%ringCapacity] = ev
	h.nextID++
	if h.nextID-h.oldest > ringCapacity {
		h.oldest = h.nextID - ringCapacity
	}

	subs := make([]*Subscription, 0, len(h.subscribers))
	for s := range h.subscribers {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.notify()
	}
}

// snapshot builds the Init event representing the hub's current state.
// Caller must hold h.mu.
func (h *Hub) snapshot() Init {
	cols, rows := h.grid.Size()
	return Init{
		LastID: h.nextID,
		TimeUS: uint64(h.elapsed / time.Microsecond),
		Cols:   uint64(cols),
		Rows:   uint64(rows),
		Theme:  h.theme,
		Dump:   h.grid.Dump(),
	}
}

// Subscribe registers a new consumer and returns its Init snapshot
// alongside the live Subscription. The snapshot's LastID is the
// starting point: the subscription only ever delivers events with
// ID >= LastID.
func (h *Hub) Subscribe() (Init, *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	init := h.snapshot()
	sub := &Subscription{
		hub:     h,
		nextID:  init.LastID,
		wake:    make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}
	h.subscribers[sub] = struct{}{}
	return init, sub
}

func (h *Hub) unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, s)
}

// Subscription is a single consumer's cursor into the hub's ring.
type Subscription struct {
	hub     *Hub
	nextID  uint64
	wake    chan struct{}
	closeCh chan struct{}
	closed  bool
}

// notify wakes the subscription's Next loop without blocking.
func (s *Subscription) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Next blocks until at least one new event is available, the
// subscription is closed, or ctx-like cancellation happens via Close.
// It returns (*Lagged) when the hub's ring has advanced past what this
// subscriber could consume.
func (s *Subscription) Next() (Event, error) {
	for {
		s.hub.mu.Lock()
		if s.nextID < s.hub.oldest {
			n := s.hub.oldest - s.nextID
			s.hub.mu.Unlock()
			return Event{}, &Lagged{N: n}
		}
		if s.nextID < s.hub.nextID {
			ev := s.hub.ring[s.nextID%ringCapacity]
			s.nextID++
			s.hub.mu.Unlock()
			return ev, nil
		}
		s.hub.mu.Unlock()

		select {
		case <-s.wake:
		case <-s.closeCh:
			return Event{}, errClosed
		}
	}
}

// Close detaches the subscription from its hub and unblocks any
// in-flight Next call.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	if s.closed {
		s.hub.mu.Unlock()
		return
	}
	s.closed = true
	s.hub.mu.Unlock()

	s.hub.unsubscribe(s)
	close(s.closeCh)
}

var errClosed = closedError{}

type closedError struct{}

func (closedError) Error() string { return "subscription closed" }
