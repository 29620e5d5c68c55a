// Package config resolves and loads asciinema's own configuration: the
// server URL, per-command defaults (rec/play/stream/session), and the
// notification settings, plus the persistent install id.
//
// Configuration is assembled from, in increasing priority:
//  1. built-in defaults
//  2. defaults.toml in the config home
//  3. config.toml in the config home
//  4. ASCIINEMA_SERVER_URL (env)
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

const defaultServerURL = "https://asciinema.org"
const defaultRecFilename = "%Y-%m-%d-%H-%M-%S-{pid}.cast"
const installIDFilename = "install-id"
const defaultsFilename = "defaults.toml"
const configFilename = "config.toml"

// Config is the fully-resolved configuration for a single invocation.
type Config struct {
	Server        Server        `toml:"server"`
	Rec           Session       `toml:"rec"`
	Play          Play          `toml:"play"`
	Stream        Session       `toml:"stream"`
	Session       Session       `toml:"session"`
	Notifications Notifications `toml:"notifications"`
}

// Server holds the upstream asciinema server configuration.
type Server struct {
	URL string `toml:"url"`
}

// Session carries the shared settings used by rec, stream, and session.
type Session struct {
	Command      string  `toml:"command"`
	Filename     string  `toml:"filename"`
	Input        bool    `toml:"input"`
	Env          string  `toml:"env"`
	IdleTimeLimit float64 `toml:"idle_time_limit"`
	PrefixKey    string  `toml:"prefix_key"`
	PauseKey     string  `toml:"pause_key"`
	AddMarkerKey string  `toml:"add_marker_key"`
}

// Play holds playback-specific settings.
type Play struct {
	Speed         float64 `toml:"speed"`
	IdleTimeLimit float64 `toml:"idle_time_limit"`
	PauseKey      string  `toml:"pause_key"`
	StepKey       string  `toml:"step_key"`
	NextMarkerKey string  `toml:"next_marker_key"`
}

// Notifications controls the session engine's own user-facing messages.
type Notifications struct {
	Enabled bool   `toml:"enabled"`
	Command string `toml:"command"`
}

// defaultConfig returns the built-in defaults, applied before any file or
// environment override.
func defaultConfig() *Config {
	return &Config{
		Server: Server{URL: ""},
		Rec: Session{
			Filename: defaultRecFilename,
			Input:    false,
		},
		Session: Session{
			Filename: defaultRecFilename,
			Input:    false,
		},
		Stream: Session{
			Input: false,
		},
		Notifications: Notifications{
			Enabled: true,
		},
	}
}

// Load resolves the config home, merges defaults.toml and config.toml over
// the built-in defaults, and applies ASCIINEMA_SERVER_URL if set. A missing
// config home or file is not an error.
func Load() (*Config, error) {
	cfg := defaultConfig()

	home, err := Home()
	if err != nil {
		return cfg, nil
	}

	for _, name := range []string{defaultsFilename, configFilename} {
		path := filepath.Join(home, name)
		if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if url := os.Getenv("ASCIINEMA_SERVER_URL"); url != "" {
		cfg.Server.URL = url
	}
	if cfg.Server.URL == "" {
		cfg.Server.URL = defaultServerURL
	}

	return cfg, nil
}

// Home resolves the config home directory: the first of
// ASCIINEMA_CONFIG_HOME, $XDG_CONFIG_HOME/asciinema, or
// $HOME/.config/asciinema that can be determined.
func Home() (string, error) {
	if dir := os.Getenv("ASCIINEMA_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "asciinema"), nil
	}
	if dir := os.Getenv("HOME"); dir != "" {
		return filepath.Join(dir, ".config", "asciinema"), nil
	}
	return "", fmt.Errorf("config: need $HOME, $XDG_CONFIG_HOME, or $ASCIINEMA_CONFIG_HOME")
}

// InstallID returns the persistent install id, creating and saving one on
// first use.
func InstallID() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	path := filepath.Join(home, installIDFilename)

	data, err := os.ReadFile(path)
	if err == nil {
		return string(trimNewline(data)), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("config: reading install id: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("config: creating config home: %w", err)
	}
	if err := os.WriteFile(path, []byte(id), 0o600); err != nil {
		return "", fmt.Errorf("config: saving install id: %w", err)
	}

	return id, nil
}

// SaveDefaultServerURL persists a server URL to defaults.toml, used after
// interactively prompting the user for one.
func SaveDefaultServerURL(url string) error {
	home, err := Home()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(home, 0o700); err != nil {
		return fmt.Errorf("config: creating config home: %w", err)
	}

	path := filepath.Join(home, defaultsFilename)
	content := fmt.Sprintf("[server]\nurl = %q\n", url)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("config: saving defaults: %w", err)
	}
	return nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r' || b[len(b)-1] == ' ') {
		b = b[:len(b)-1]
	}
	return b
}
