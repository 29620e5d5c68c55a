// Package forwarder relays a recorded session's broadcast.Hub to a
// remote asciinema relay server over the v1.alis WebSocket subprotocol,
// reconnecting with full-jitter exponential backoff on transient
// failures and giving up permanently on fatal protocol errors.
package forwarder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/asciinema/asciinema-go/internal/alis"
	"github.com/asciinema/asciinema-go/internal/broadcast"
	"github.com/asciinema/asciinema-go/internal/notifier"
)

const subprotocol = "v1.alis"

// backoffBase and backoffCap bound the full-jitter reconnect delay:
// rand(0, min(backoffBase*2^attempt, backoffCap)).
const (
	backoffBase  = 500 * time.Millisecond
	backoffCap   = 10 * time.Second
	maxAttempt   = 10
	pingInterval = 15 * time.Second
	pongTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second

	// stableAfter is how long a connection must stay up before a
	// subsequent disconnect resets the backoff attempt counter.
	stableAfter = 3 * time.Second
)

// fatalError marks a reconnect-incompatible failure: the forwarder
// should give up rather than retry.
type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// graceful marks a server-initiated close that ends the stream without
// it being an error: Normal closure or any code in the library range.
type graceful struct{}

func (graceful) Error() string { return "relay closed the stream" }

// Config configures a Forwarder.
type Config struct {
	URL      string // ws(s):// relay URL
	Hub      *broadcast.Hub
	Notifier notifier.Sink
	Logger   *slog.Logger
}

// Forwarder maintains an upstream relay connection for the lifetime of
// a recording session.
type Forwarder struct {
	url    string
	hub    *broadcast.Hub
	notif  notifier.Sink
	logger *slog.Logger
}

// New constructs a Forwarder.
func New(cfg Config) *Forwarder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notif := cfg.Notifier
	if notif == nil {
		notif = notifier.NullSink{}
	}
	return &Forwarder{url: cfg.URL, hub: cfg.Hub, notif: notif, logger: logger}
}

// Run connects and streams until ctx is cancelled, the session ends (an
// Exit event is forwarded), the relay closes gracefully, or a fatal
// protocol error occurs. It never returns a reconnectable error: those
// are retried internally.
func (f *Forwarder) Run(ctx context.Context) error {
	var attempt int
	hasConnectedBefore := false

	for {
		if ctx.Err() != nil {
			return nil
		}

		connectedAt := time.Time{}
		err := f.connectAndStream(ctx, &connectedAt, hasConnectedBefore)
		connected := !connectedAt.IsZero()

		if connected && time.Since(connectedAt) >= stableAfter {
			attempt = 0
			hasConnectedBefore = true
		}

		if err == nil {
			return nil // session ended (Exit forwarded)
		}

		var ge graceful
		if errors.As(err, &ge) {
			f.notif.Notify("Stream ended by the server")
			return nil
		}

		var fe *fatalError
		if errors.As(err, &fe) {
			f.notif.Notify("CLI not compatible with the server")
			f.logger.Error("forwarder: fatal error, giving up", "error", fe.err)
			return nil
		}

		if ctx.Err() != nil {
			return nil
		}

		if connected {
			f.notif.Notify("Disconnected from the server, reconnecting")
		}

		f.logger.Warn("forwarder: connection lost, reconnecting", "error", err, "attempt", attempt)

		delay := backoffDelay(attempt)
		if attempt < maxAttempt {
			attempt++
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil
		}
	}
}

// backoffDelay returns a full-jitter delay for the given attempt count:
// a uniform random duration in [0, min(backoffBase*2^attempt, backoffCap)].
func backoffDelay(attempt int) time.Duration {
	ceil := backoffBase * time.Duration(1<<uint(attempt))
	if ceil > backoffCap || ceil <= 0 {
		ceil = backoffCap
	}
	if ceil <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(ceil)))
}

// connectAndStream dials once, streams hub events until the connection
// ends, and records the successful-connect time in connectedAt (left
// zero if the dial itself failed).
func (f *Forwarder) connectAndStream(ctx context.Context, connectedAt *time.Time, reconnect bool) error {
	dialer := websocket.Dialer{
		Subprotocols:     []string{subprotocol},
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusBadRequest {
			return &fatalError{err: fmt.Errorf("relay rejected upgrade: %w", err)}
		}
		return err
	}
	defer conn.Close()

	if conn.Subprotocol() != subprotocol {
		return &fatalError{err: fmt.Errorf("relay does not support %s", subprotocol)}
	}

	*connectedAt = time.Now()
	if reconnect {
		f.notif.Notify("Reconnected to the server")
	} else {
		f.notif.Notify("Connected to the server")
	}

	init, sub := f.hub.Subscribe()
	defer sub.Close()

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, broadcast.EncodeInitFrame(init)); err != nil {
		return err
	}

	closeCh := make(chan error, 1)
	// pongDeadline is zero while no ping is outstanding.
	var pongDeadline time.Time
	conn.SetPongHandler(func(string) error {
		pongDeadline = time.Time{}
		return nil
	})
	conn.SetCloseHandler(func(code int, text string) error {
		if code == websocket.CloseNormalClosure || code < 4100 {
			closeCh <- graceful{}
		} else {
			closeCh <- fmt.Errorf("relay closed with code %d: %s", code, text)
		}
		return nil
	})

	// gorilla only invokes ping/pong/close handlers while a read is in
	// flight, and we never expect application data from the relay, so a
	// dedicated goroutine just keeps ReadMessage pumping.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				select {
				case closeCh <- err:
				default:
				}
				return
			}
		}
	}()

	stopPing := f.startPingLoop(ctx, conn, &pongDeadline, closeCh)
	defer stopPing()

	eventCh := pumpEvents(sub, closeCh)

	prevTimeUS := init.TimeUS
	for {
		select {
		case err := <-closeCh:
			return err

		case ev, ok := <-eventCh:
			if !ok {
				return nil // subscription closed: hub/session shutting down
			}
			frame := broadcast.EncodeEventFrame(ev, prevTimeUS)
			prevTimeUS = ev.TimeUS

			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return err
			}

			if ev.Tag == alis.TagExit {
				return nil
			}
		}
	}
}

// pumpEvents adapts the subscription's blocking Next() into a channel
// usable in a select alongside closeCh. A Lagged subscription is
// reported on errCh as a reconnectable error, so the connection ends
// and Run reconnects with a fresh Init snapshot. The channel is closed
// once the subscription itself is closed.
func pumpEvents(sub *broadcast.Subscription, errCh chan<- error) <-chan broadcast.Event {
	out := make(chan broadcast.Event)
	go func() {
		for {
			ev, err := sub.Next()
			if err != nil {
				var lagged *broadcast.Lagged
				if errors.As(err, &lagged) {
					select {
					case errCh <- fmt.Errorf("subscriber lagged: %w", err):
					default:
					}
					return
				}
				close(out)
				return
			}
			out <- ev
		}
	}()
	return out
}

// startPingLoop pings the relay every pingInterval and reports a
// failure on closeCh if no pong has arrived within pongTimeout.
// Returns a function that stops the loop.
func (f *Forwarder) startPingLoop(ctx context.Context, conn *websocket.Conn, pongDeadline *time.Time, closeCh chan<- error) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !pongDeadline.IsZero() && time.Now().After(*pongDeadline) {
					select {
					case closeCh <- fmt.Errorf("ping timeout: no pong within %s", pongTimeout):
					default:
					}
					return
				}
				*pongDeadline = time.Now().Add(pongTimeout)
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					select {
					case closeCh <- err:
					default:
					}
					return
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return func() { close(stop) }
}
