//go:build !darwin

package ttydriver

import (
	"os"

	"golang.org/x/term"
)

// Open opens /dev/tty and switches it into raw termios: no echo, no
// canonical mode, no signal generation. The previous state is saved for
// Close to restore.
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

	return &Driver{tty: f, readFile: f, writeFile: f, oldState: oldState}, nil
}
