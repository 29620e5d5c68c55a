// Command asciinema records, replays, and live-streams interactive
// terminal sessions.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asciinema/asciinema-go/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "asciinema",
		Short:   "Record and share your terminal sessions",
		Version: Version,
	}

	rootCmd.AddCommand(
		newRecCmd(),
		newPlayCmd(),
		newStreamCmd(),
		newSessionCmd(),
		newCatCmd(),
		newConvertCmd(),
		newAuthCmd(),
		newUploadCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger routes diagnostics to logFile when one is given. Otherwise
// headless runs log to stderr, while commands that hold the controlling
// terminal in raw mode discard them, so stray log lines never corrupt
// the live display the way they would on stderr.
func newLogger(interactive bool, logFile string) *slog.Logger {
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			return slog.New(slog.NewTextHandler(f, nil))
		}
		fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v\n", logFile, err)
	}

	if !interactive {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// checkLocale aborts setup early when the environment's character
// encoding is neither US-ASCII nor UTF-8: LC_ALL/LC_CTYPE/LANG must
// resolve to one of the two, since captured output is assumed decodable
// as UTF-8 throughout the engine.
func checkLocale() error {
	for _, name := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		lower := strings.ToLower(v)
		if strings.Contains(lower, "utf-8") || strings.Contains(lower, "utf8") {
			return nil
		}
		if strings.Contains(lower, "ascii") || strings.Contains(lower, "us-ascii") || lower == "posix" || lower == "c" {
			return nil
		}
		return fmt.Errorf("unsupported locale %s=%s: must resolve to US-ASCII or UTF-8", name, v)
	}
	return nil
}

// checkRelayLoop aborts when this invocation has inherited a relay id
// that matches the one we are about to use, preventing a session from
// forwarding into itself through a chain of nested shells.
func checkRelayLoop(relayID string) error {
	if relayID == "" {
		return nil
	}
	if os.Getenv("ASCIINEMA_RELAY_ID") == relayID {
		return fmt.Errorf("refusing to start: ASCIINEMA_RELAY_ID already set to this session's relay id (stream loop)")
	}
	return nil
}

func defaultShellCommand() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

func loadConfigOrWarn() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		return &config.Config{}
	}
	return cfg
}
