package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/asciinema/asciinema-go/internal/asciicast"
	"github.com/asciinema/asciinema-go/internal/encoder"
	"github.com/asciinema/asciinema-go/internal/filesink"
	"github.com/asciinema/asciinema-go/internal/notifier"
	"github.com/asciinema/asciinema-go/internal/pty"
	"github.com/asciinema/asciinema-go/internal/session"
	"github.com/asciinema/asciinema-go/internal/ttydriver"
)

func newRecCmd() *cobra.Command {
	var (
		format     string
		command    string
		recInput   bool
		recEnv     string
		appendMode bool
		overwrite  bool
		title      string
		idleSecs   float64
		headless   bool
		ttySize    string
		prefixKey  string
		pauseKey   string
		markerKey  string
	)

	cmd := &cobra.Command{
		Use:   "rec <path>",
		Short: "Record a terminal session to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRec(cmd, args[0], recOptions{
				format:     format,
				command:    command,
				recInput:   recInput,
				recEnv:     recEnv,
				appendMode: appendMode,
				overwrite:  overwrite,
				title:      title,
				idleSecs:   idleSecs,
				headless:   headless,
				ttySize:    ttySize,
				prefixKey:  prefixKey,
				pauseKey:   pauseKey,
				markerKey:  markerKey,
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: v3, v2, raw, or txt")
	cmd.Flags().StringVarP(&command, "command", "c", "", "command to record (default: $SHELL)")
	cmd.Flags().BoolVarP(&recInput, "rec-input", "I", false, "also capture keyboard input")
	cmd.Flags().StringVar(&recEnv, "rec-env", "SHELL,TERM", "comma-separated env vars to capture in the header")
	cmd.Flags().BoolVarP(&appendMode, "append", "a", false, "append to an existing recording")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite an existing recording")
	cmd.Flags().StringVarP(&title, "title", "t", "", "recording title")
	cmd.Flags().Float64VarP(&idleSecs, "idle-time-limit", "i", 0, "limit recorded idle time to this many seconds")
	cmd.Flags().BoolVar(&headless, "headless", false, "run without a controlling terminal")
	cmd.Flags().StringVar(&ttySize, "tty-size", "", "initial size COLSxROWS (headless mode)")
	cmd.Flags().StringVar(&prefixKey, "prefix-key", "", "prefix key before pause/marker keys take effect")
	cmd.Flags().StringVar(&pauseKey, "pause-key", "", "pause/resume key")
	cmd.Flags().StringVar(&markerKey, "add-marker-key", "", "add-marker key")

	return cmd
}

type recOptions struct {
	format     string
	command    string
	recInput   bool
	recEnv     string
	appendMode bool
	overwrite  bool
	title      string
	idleSecs   float64
	headless   bool
	ttySize    string
	prefixKey  string
	pauseKey   string
	markerKey  string
}

func runRec(cmd *cobra.Command, path string, opt recOptions) error {
	if err := checkLocale(); err != nil {
		return err
	}

	format, err := parseFormat(opt.format)
	if err != nil {
		return err
	}

	if opt.appendMode {
		if err := checkAppendTarget(path); err != nil {
			return err
		}
	}

	cfg := loadConfigOrWarn()

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

	out, err := openOutputFile(path, opt.appendMode, opt.overwrite)
	if err != nil {
		return err
	}

	command := opt.command
	if command == "" {
		command = cfg.Rec.Command
	}
	if command == "" {
		command = defaultShellCommand()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessionID := strconv.FormatInt(time.Now().UnixNano(), 36)

	sup := pty.New(cols, rows, logger)
	if err := sup.Spawn(pty.SpawnConfig{
		Command: command,
		Env: map[string]string{
			"ASCIINEMA_SESSION": sessionID,
		},
	}); err != nil {
		out.Close()
		return fmt.Errorf("spawning command: %w", err)
	}

	header := asciicast.Header{
		Cols:    cols,
		Rows:    rows,
		Command: command,
		Title:   opt.title,
		Env:     captureEnv(opt.recEnv),
	}
	if opt.idleSecs > 0 {
		header.IdleTimeLimit = &opt.idleSecs
	}

	if driver != nil {
		if theme, err := driver.QueryTheme(ctx); err == nil {
			header.Theme = theme
		}
		if v, err := driver.QueryVersion(ctx); err == nil && v != "" {
			header.TermVersion = v
		}
	}
	if t := os.Getenv("TERM"); t != "" {
		header.TermType = t
	}

	enc := encoder.New(format, opt.appendMode, false)
	sink := filesink.New(out, out, enc, header)

	bindings, err := sessionKeyBindings(opt.prefixKey, opt.pauseKey, opt.markerKey, cfg.Rec)
	if err != nil {
		return err
	}

	notif := notifier.New(cfg.Notifications.Command)
	if !cfg.Notifications.Enabled {
		notif = notifier.NullSink{}
	}

	engCfg := session.Config{
		PTY:         sup,
		Cols:        cols,
		Rows:        rows,
		Bindings:    bindings,
		RecordInput: opt.recInput,
		Notifier:    notif,
		Sinks:       []session.Sink{sink},
		Logger:      logger,
	}
	if driver != nil {
		engCfg.TTY = driver
	}

	eng := session.New(engCfg)

	if driver != nil {
		watchResize(ctx, driver, eng)
	}

	err = eng.Run(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("recording session: %w", err)
	}
	return nil
}

// resolveInitialSize picks the initial terminal size for headless
// recordings, where there is no controlling terminal to query.
func resolveInitialSize(headless bool, ttySize string) (cols, rows uint16, err error) {
	if !headless {
		return 0, 0, nil
	}
	if ttySize == "" {
		return 80, 24, nil
	}
	left, right, ok := strings.Cut(ttySize, "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid --tty-size %q (want COLSxROWS)", ttySize)
	}
	c, err := strconv.ParseUint(left, 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --tty-size cols: %w", err)
	}
	r, err := strconv.ParseUint(right, 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --tty-size rows: %w", err)
	}
	return uint16(c), uint16(r), nil
}

// captureEnv resolves the comma-separated list of environment variable
// names (e.g. "SHELL,TERM") into the header's recorded env map.
func captureEnv(spec string) map[string]string {
	if spec == "" {
		return nil
	}
	out := make(map[string]string)
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			out[name] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// watchResize relays SIGWINCH (the controlling terminal's window-size
// change signal) to the engine for the life of ctx.
func watchResize(ctx context.Context, driver *ttydriver.Driver, eng *session.Engine) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)

	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				if cols, rows, err := driver.Size(); err == nil {
					eng.Resize(cols, rows)
				}
			}
		}
	}()
}
