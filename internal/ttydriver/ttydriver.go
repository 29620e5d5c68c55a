// Package ttydriver puts the controlling terminal in raw mode for
// keystroke capture and offers the two inspection queries (color theme,
// terminal version) the session engine needs at startup.
package ttydriver

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Driver owns /dev/tty in raw mode for the lifetime of a session.
// readFile/writeFile are what Read/Write/the query reply reader operate
// on; on most platforms both are the tty file itself, but see
// bridge_darwin.go for why macOS interposes a pipe bridge instead.
type Driver struct {
	tty       *os.File
	readFile  *os.File
	writeFile *os.File
	oldState  *term.State
	bridge    io.Closer
}

// Close restores the saved termios and closes the underlying file(s).
func (d *Driver) Close() error {
	if d.oldState != nil {
		term.Restore(int(d.tty.Fd()), d.oldState)
	}
	if d.bridge != nil {
		return d.bridge.Close()
	}
	return d.tty.Close()
}

// Read reads keystroke bytes from the controlling terminal.
func (d *Driver) Read(p []byte) (int, error) {
	return d.readFile.Read(p)
}

// Write writes output bytes to the controlling terminal.
func (d *Driver) Write(p []byte) (int, error) {
	return d.writeFile.Write(p)
}

// Size returns the controlling terminal's current window size via
// TIOCGWINSZ.
func (d *Driver) Size() (cols, rows uint16, err error) {
	w, h, err := term.GetSize(int(d.tty.Fd()))
	if err != nil {
		return 0, 0, err
	}
	return uint16(w), uint16(h), nil
}
