//go:build darwin

package ttydriver

import (
	"os"

	"golang.org/x/term"
)

// Open opens /dev/tty, switches it into raw termios, and interposes a
// pipe bridge: kqueue-based polling of /dev/tty is unreliable on
// macOS, so the rest of the driver reads/writes pipe fds that a pair of
// background goroutines keep in sync with the tty.
func Open() (*Driver, error) {
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	oldState, err := term.MakeRaw(int(f.Fd()))
	if err != nil {
		f.Close()
		return nil, err
	}

	bridge, err := newPipeBridge(f)
	if err != nil {
		term.Restore(int(f.Fd()), oldState)
		f.Close()
		return nil, err
	}

	return &Driver{
		tty:       f,
		readFile:  bridge.readOut,
		writeFile: bridge.writeIn,
		oldState:  oldState,
		bridge:    bridge,
	}, nil
}
