package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/asciinema/asciinema-go/internal/asciicast"
	"github.com/asciinema/asciinema-go/internal/player"
)

func newPlayCmd() *cobra.Command {
	var (
		speed          float64
		idleSecs       float64
		loop           bool
		pauseOnMarkers bool
		pauseKey       string
		stepKey        string
		nextMarkerKey  string
	)

	cmd := &cobra.Command{
		Use:   "play <file|url>",
		Short: "Replay a recorded terminal session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, args[0], playOptions{
				speed:          speed,
				idleSecs:       idleSecs,
				loop:           loop,
				pauseOnMarkers: pauseOnMarkers,
				pauseKey:       pauseKey,
				stepKey:        stepKey,
				nextMarkerKey:  nextMarkerKey,
			})
		},
	}

	cmd.Flags().Float64VarP(&speed, "speed", "s", 1, "playback speed multiplier")
	cmd.Flags().Float64VarP(&idleSecs, "idle-time-limit", "i", 0, "limit idle gaps to this many seconds")
	cmd.Flags().BoolVarP(&loop, "loop", "l", false, "loop playback")
	cmd.Flags().BoolVarP(&pauseOnMarkers, "pause-on-markers", "m", false, "pause at every marker")
	cmd.Flags().StringVar(&pauseKey, "pause-key", "", "pause/resume key")
	cmd.Flags().StringVar(&stepKey, "step-key", "", "step-one-event key (while paused)")
	cmd.Flags().StringVar(&nextMarkerKey, "next-marker-key", "", "skip-to-next-marker key (while paused)")

	return cmd
}

type playOptions struct {
	speed          float64
	idleSecs       float64
	loop           bool
	pauseOnMarkers bool
	pauseKey       string
	stepKey        string
	nextMarkerKey  string
}

func runPlay(cmd *cobra.Command, source string, opt playOptions) error {
	if err := checkLocale(); err != nil {
		return err
	}

	cast, err := loadCast(source)
	if err != nil {
		return fmt.Errorf("loading recording: %w", err)
	}

	cfg := loadConfigOrWarn()

	speed := opt.speed
	if speed <= 0 {
		speed = cfg.Play.Speed
	}
	if speed <= 0 {
		speed = 1
	}

	idle := time.Duration(opt.idleSecs * float64(time.Second))
	if idle <= 0 && cfg.Play.IdleTimeLimit > 0 {
		idle = time.Duration(cfg.Play.IdleTimeLimit * float64(time.Second))
	}

	defaults := player.DefaultKeyBindings()
	pause, err := bindingFromFlag(opt.pauseKey, cfg.Play.PauseKey, defaults.Pause)
	if err != nil {
		return fmt.Errorf("pause key: %w", err)
	}
	step, err := bindingFromFlag(opt.stepKey, cfg.Play.StepKey, defaults.Step)
	if err != nil {
		return fmt.Errorf("step key: %w", err)
	}
	nextMarker, err := bindingFromFlag(opt.nextMarkerKey, cfg.Play.NextMarkerKey, defaults.NextMarker)
	if err != nil {
		return fmt.Errorf("next-marker key: %w", err)
	}

	bindings := player.KeyBindings{Quit: defaults.Quit, Pause: pause, Step: step, NextMarker: nextMarker}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var tty player.TTY
	if f, ok := os.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		oldState, err := term.MakeRaw(int(f.Fd()))
		if err == nil {
			defer term.Restore(int(f.Fd()), oldState)
			tty = f
		}
	}

	playCfg := player.Config{
		Cast:           cast,
		Out:            os.Stdout,
		TTY:            tty,
		Speed:          speed,
		IdleTimeLimit:  idle,
		PauseOnMarkers: opt.pauseOnMarkers,
		Bindings:       bindings,
	}

	for {
		completed, err := player.Play(ctx, playCfg)
		if err != nil {
			return err
		}
		if !completed || !opt.loop || ctx.Err() != nil {
			break
		}
	}
	return nil
}

// loadCast parses a recording from a local path or, if source looks
// like a URL, fetches it first.
func loadCast(source string) (asciicast.Cast, error) {
	var r io.Reader

	if isURL(source) {
		resp, err := http.Get(source)
		if err != nil {
			return asciicast.Cast{}, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return asciicast.Cast{}, fmt.Errorf("fetching %s: status %s", source, resp.Status)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return asciicast.Cast{}, err
		}
		defer f.Close()
		r = f
	}

	return asciicast.Parse(r)
}

func isURL(s string) bool {
	for _, prefix := range []string{"http://", "https://"} {
		if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
