package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/asciinema/asciinema-go/internal/asciicast"
	"github.com/asciinema/asciinema-go/internal/broadcast"
	"github.com/asciinema/asciinema-go/internal/encoder"
	"github.com/asciinema/asciinema-go/internal/filesink"
	"github.com/asciinema/asciinema-go/internal/forwarder"
	"github.com/asciinema/asciinema-go/internal/notifier"
	"github.com/asciinema/asciinema-go/internal/pty"
	"github.com/asciinema/asciinema-go/internal/session"
	"github.com/asciinema/asciinema-go/internal/ttydriver"
	"github.com/asciinema/asciinema-go/internal/wsserver"
)

func newSessionCmd() *cobra.Command {
	var (
		out      string
		listen   string
		relay    string
		format   string
		command  string
		recInput bool
		headless bool
		ttySize  string
	)

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Record and/or live-stream a terminal session concurrently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, sessionOptions{
				out:      out,
				listen:   listen,
				relay:    relay,
				format:   format,
				command:  command,
				recInput: recInput,
				headless: headless,
				ttySize:  ttySize,
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "also record to this file")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "local IP:PORT to serve the player on")
	cmd.Flags().StringVarP(&relay, "relay", "r", "", "relay stream id or ws(s):// URL to forward to")
	cmd.Flags().StringVarP(&format, "format", "f", "", "recording format: v3, v2, raw, or txt")
	cmd.Flags().StringVarP(&command, "command", "c", "", "command to run (default: $SHELL)")
	cmd.Flags().BoolVarP(&recInput, "rec-input", "I", false, "also capture keyboard input")
	cmd.Flags().BoolVar(&headless, "headless", false, "run without a controlling terminal")
	cmd.Flags().StringVar(&ttySize, "tty-size", "", "initial size COLSxROWS (headless mode)")

	return cmd
}

type sessionOptions struct {
	out      string
	listen   string
	relay    string
	format   string
	command  string
	recInput bool
	headless bool
	ttySize  string
}

func runSession(cmd *cobra.Command, opt sessionOptions) error {
	if err := checkLocale(); err != nil {
		return err
	}
	if opt.out == "" && opt.listen == "" && opt.relay == "" {
		return fmt.Errorf("session requires at least one of --out, --listen, --relay")
	}

	format, err := parseFormat(opt.format)
	if err != nil {
		return err
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

	logger := newLogger(!opt.headless, "")

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

	var out *os.File
	if opt.out != "" {
		out, err = openOutputFile(opt.out, false, false)
		if err != nil {
			return err
		}
	}

	command := opt.command
	if command == "" {
		command = cfg.Session.Command
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
		if out != nil {
			out.Close()
		}
		return fmt.Errorf("spawning command: %w", err)
	}

	hub := broadcast.New(int(cols), int(rows))

	var theme *asciicast.Theme
	if driver != nil {
		if t, err := driver.QueryTheme(ctx); err == nil {
			theme = t
			hub.SetTheme(toAlisTheme(t))
		}
	}

	sinks := []session.Sink{broadcast.HubSink{Hub: hub}}
	if out != nil {
		header := asciicast.Header{Cols: cols, Rows: rows, Command: command, Theme: theme}
		enc := encoder.New(format, false, false)
		sinks = append(sinks, filesink.New(out, out, enc, header))
	}

	notif := notifier.New(cfg.Notifications.Command)
	if !cfg.Notifications.Enabled {
		notif = notifier.NullSink{}
	}

	bindings, err := sessionKeyBindings("", "", "", cfg.Session)
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
		Sinks:       sinks,
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
		return fmt.Errorf("session: %w", err)
	}
	return nil
}
