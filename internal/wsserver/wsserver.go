// Package wsserver is the local `stream`/`session` HTTP server: it
// serves a static player page and exposes `/ws`, a WebSocket endpoint
// that streams a session's broadcast.Hub as ALiS frames under the
// `v1.alis` subprotocol.
package wsserver

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/asciinema/asciinema-go/internal/alis"
	"github.com/asciinema/asciinema-go/internal/broadcast"
)

//go:embed assets
var assetsFS embed.FS

const subprotocol = "v1.alis"

// writeTimeout bounds how long a single WS send may take before the
// connection is considered stalled and torn down.
const writeTimeout = 10 * time.Second

// Server serves the static player assets and the live `/ws` stream for
// a single recorded session.
type Server struct {
	listener net.Listener
	hub      *broadcast.Hub
	logger   *slog.Logger

	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New creates a Server that streams hub over listener.
func New(listener net.Listener, hub *broadcast.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		listener: listener,
		hub:      hub,
		logger:   logger,
		upgrader: websocket.Upgrader{
			Subprotocols:    []string{subprotocol},
			CheckOrigin:     func(*http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}

	assets, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic(err) // embed.FS is built at compile time; this cannot fail
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(assets)))
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{Handler: mux}
	return s
}

// Serve runs the server until ctx is cancelled, then shuts down with a
// 5-second grace period.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("local server starting", "addr", s.listener.Addr())

	err := s.httpServer.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if conn.Subprotocol() != subprotocol {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseProtocolError, "expected "+subprotocol),
			time.Now().Add(writeTimeout))
		return
	}

	init, sub := s.hub.Subscribe()
	defer sub.Close()

	if err := s.sendInit(conn, init); err != nil {
		s.logger.Debug("subscriber init send failed", "error", err)
		return
	}

	prevTimeUS := init.TimeUS
	for {
		ev, err := sub.Next()
		if err != nil {
			var lagged *broadcast.Lagged
			if errors.As(err, &lagged) {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseAbnormalClosure, "lagged"),
					time.Now().Add(writeTimeout))
			}
			return
		}

		frame := broadcast.EncodeEventFrame(ev, prevTimeUS)
		prevTimeUS = ev.TimeUS

		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			s.logger.Debug("subscriber write failed", "error", err)
			return
		}

		if ev.Tag == alis.TagExit {
			return
		}
	}
}

func (s *Server) sendInit(conn *websocket.Conn, init broadcast.Init) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, broadcast.EncodeInitFrame(init))
}
