package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/asciinema/asciinema-go/internal/alis"
	"github.com/asciinema/asciinema-go/internal/asciicast"
	"github.com/asciinema/asciinema-go/internal/config"
	"github.com/asciinema/asciinema-go/internal/encoder"
	"github.com/asciinema/asciinema-go/internal/session"
)

// parseFormat maps a -f/--format flag value to an encoder.Format,
// defaulting to v3.
func parseFormat(s string) (encoder.Format, error) {
	switch s {
	case "", "asciicast-v3", "v3":
		return encoder.FormatV3, nil
	case "asciicast-v2", "v2":
		return encoder.FormatV2, nil
	case "raw":
		return encoder.FormatRaw, nil
	case "txt":
		return encoder.FormatTxt, nil
	default:
		return "", fmt.Errorf("unknown format %q (want v3, v2, raw, or txt)", s)
	}
}

// bindingFromFlag resolves a session key-binding flag: an explicit
// flag value wins, falling back to the configured one, then the engine
// default's corresponding slot.
func bindingFromFlag(flagValue, configValue string, fallback []byte) ([]byte, error) {
	v := flagValue
	if v == "" {
		v = configValue
	}
	if v == "" {
		return fallback, nil
	}
	b, err := config.ParseKey(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// openOutputFile resolves the overwrite/append/create-new policy for a
// recording destination: exactly one of append or overwrite may be
// requested, and by default an existing file is rejected.
func openOutputFile(path string, appendMode, overwrite bool) (*os.File, error) {
	if appendMode && overwrite {
		return nil, fmt.Errorf("--append and --overwrite are mutually exclusive")
	}

	if appendMode {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				appendMode = false
			} else {
				return nil, err
			}
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	switch {
	case appendMode:
		flags |= os.O_APPEND
	case overwrite:
		flags |= os.O_TRUNC
	default:
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%s already exists; use --overwrite or --append", path)
		}
		return nil, err
	}
	return f, nil
}

// checkAppendTarget parses an existing recording file before it is
// reopened in append mode, confirming it parses cleanly and that it is
// not a v1 recording (v1 cannot be appended to since it carries no
// per-event timing format an append could continue).
func checkAppendTarget(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return fmt.Errorf("cannot append: %s is empty", path)
	}
	version, err := asciicast.DetectVersion(scanner.Text())
	if err != nil {
		return fmt.Errorf("cannot append: %w", err)
	}
	if version == 1 {
		return fmt.Errorf("cannot append: %s is a v1 recording", path)
	}

	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	if _, err := asciicast.Parse(f); err != nil {
		return fmt.Errorf("cannot append: %w", err)
	}
	return nil
}

// toAlisTheme converts a parsed terminal theme to the wire-level Theme
// type the hub and ALiS framing use.
func toAlisTheme(t *asciicast.Theme) *alis.Theme {
	if t == nil {
		return nil
	}
	out := &alis.Theme{FG: alis.RGB(t.FG), BG: alis.RGB(t.BG)}
	for i, c := range t.Palette {
		out.Palette[i] = alis.RGB(c)
	}
	return out
}

// sessionKeyBindings builds the capture-loop key bindings for rec/
// stream/session from CLI flags layered over the command's configured
// defaults.
func sessionKeyBindings(prefixFlag, pauseFlag, markerFlag string, cfg config.Session) (session.KeyBindings, error) {
	defaults := session.DefaultKeyBindings()

	prefix, err := bindingFromFlag(prefixFlag, cfg.PrefixKey, defaults.Prefix)
	if err != nil {
		return session.KeyBindings{}, fmt.Errorf("prefix key: %w", err)
	}
	pause, err := bindingFromFlag(pauseFlag, cfg.PauseKey, defaults.Pause)
	if err != nil {
		return session.KeyBindings{}, fmt.Errorf("pause key: %w", err)
	}
	marker, err := bindingFromFlag(markerFlag, cfg.AddMarkerKey, defaults.AddMarker)
	if err != nil {
		return session.KeyBindings{}, fmt.Errorf("add-marker key: %w", err)
	}

	return session.KeyBindings{Prefix: prefix, Pause: pause, AddMarker: marker}, nil
}
