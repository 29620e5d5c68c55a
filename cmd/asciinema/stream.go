package main

import (
	"fmt"
	"net"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/asciinema/asciinema-go/internal/broadcast"
	"github.com/asciinema/asciinema-go/internal/forwarder"
	"github.com/asciinema/asciinema-go/internal/notifier"
	"github.com/asciinema/asciinema-go/internal/pty"
	"github.com/asciinema/asciinema-go/internal/session"
	"github.com/asciinema/asciinema-go/internal/ttydriver"
	"github.com/asciinema/asciinema-go/internal/wsserver"
)

func newStreamCmd() *cobra.Command {
	var (
		listen   string
		relay    string
		command  string
		recInput bool
		headless bool
		logFile  string
		ttySize  string
	)

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Live-stream a terminal session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStream(cmd, streamOptions{
				listen:   listen,
				relay:    relay,
				command:  command,
				recInput: recInput,
				headless: headless,
				logFile:  logFile,
				ttySize:  ttySize,
			})
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "local IP:PORT to serve the player on")
	cmd.Flags().StringVarP(&relay, "relay", "r", "", "relay stream id or ws(s):// URL to forward to")
	cmd.Flags().StringVarP(&command, "command", "c", "", "command to run (default: $SHELL)")
	cmd.Flags().BoolVarP(&recInput, "rec-input", "I", false, "also capture keyboard input")
	cmd.Flags().BoolVar(&headless, "headless", false, "run without a controlling terminal")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write diagnostics to this file instead of discarding them")
	cmd.Flags().StringVar(&ttySize, "tty-size", "", "initial size COLSxROWS (headless mode)")

	return cmd
}

type streamOptions struct {
	listen   string
	relay    string
	command  string
	recInput bool
	headless bool
	logFile  string
	ttySize  string
}

func runStream(cmd *cobra.Command, opt streamOptions) error {
	if err := checkLocale(); err != nil {
		return err
	}
	if opt.listen == "" && opt.relay == "" {
		return fmt.Errorf("stream requires --listen, --relay, or both")
	}

	cfg := loadConfigOrWarn()

	relayURL := resolveRelayURL(opt.relay, cfg.Server.URL)
	if relayURL != "" {
		if err := checkRelayLoop(relayURL); err != nil {
			return err
		}
	}

	cols, rows, err := resolveInitialSize(opt.headless, opt.ttySize)
	if err != nil {
		return err
	}

	logger := newLogger(!opt.headless, opt.logFile)

	var driver *ttydriver.Driver
	if !opt.headless {
		driver, err = ttydriver.Open()
		if err != nil {
			return fmt.Errorf("opening controlling terminal: %w", err)
		}
		defer driver.Close()

		cols, rows, err = driver.Size()
		if err != nil {
			return fmt.Errorf("querying terminal size: %w", err)
		}
	}

	command := opt.command
	if command == "" {
		command = cfg.Stream.Command
	}
	if command == "" {
		command = defaultShellCommand()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env := map[string]string{}
	if relayURL != "" {
		env["ASCIINEMA_RELAY_ID"] = relayURL
	}

	sup := pty.New(cols, rows, logger)
	if err := sup.Spawn(pty.SpawnConfig{Command: command, Env: env}); err != nil {
		return fmt.Errorf("spawning command: %w", err)
	}

	hub := broadcast.New(int(cols), int(rows))

	if driver != nil {
		if theme, err := driver.QueryTheme(ctx); err == nil {
			hub.SetTheme(toAlisTheme(theme))
		}
	}

	notif := notifier.New(cfg.Notifications.Command)
	if !cfg.Notifications.Enabled {
		notif = notifier.NullSink{}
	}

	bindings, err := sessionKeyBindings("", "", "", cfg.Stream)
	if err != nil {
		return err
	}

	engCfg := session.Config{
		PTY:         sup,
		Cols:        cols,
		Rows:        rows,
		Bindings:    bindings,
		RecordInput: opt.recInput,
		Notifier:    notif,
		Sinks:       []session.Sink{broadcast.HubSink{Hub: hub}},
		Logger:      logger,
	}
	if driver != nil {
		engCfg.TTY = driver
	}

	eng := session.New(engCfg)
	if driver != nil {
		watchResize(ctx, driver, eng)
	}

	var wg sync.WaitGroup

	if opt.listen != "" {
		ln, err := net.Listen("tcp", opt.listen)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", opt.listen, err)
		}
		srv := wsserver.New(ln, hub, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Serve(ctx); err != nil {
				logger.Error("local server stopped", "error", err)
			}
		}()
	}

	if relayURL != "" {
		fwd := forwarder.New(forwarder.Config{URL: relayURL, Hub: hub, Notifier: notif, Logger: logger})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fwd.Run(ctx); err != nil {
				logger.Error("forwarder stopped", "error", err)
			}
		}()
	}

	err = eng.Run(ctx)
	wg.Wait()

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("streaming session: %w", err)
	}
	return nil
}

// resolveRelayURL turns a -r value into a full WebSocket URL: a value
// already looking like one is used as-is, otherwise it is treated as a
// stream id relative to the configured server.
func resolveRelayURL(relay, serverURL string) string {
	if relay == "" {
		return ""
	}
	if strings.HasPrefix(relay, "ws://") || strings.HasPrefix(relay, "wss://") {
		return relay
	}

	base := serverURL
	base = strings.TrimPrefix(base, "https://")
	base = strings.TrimPrefix(base, "http://")
	scheme := "wss://"
	if strings.HasPrefix(serverURL, "http://") {
		scheme = "ws://"
	}
	return scheme + strings.TrimSuffix(base, "/") + "/s/" + relay
}
