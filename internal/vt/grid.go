// Package vt exposes the narrow terminal-grid interface the engine and
// the broadcast hub consume: feed bytes, resize, dump an opaque
// reconstructable snapshot, and extract visible text.
package vt

import (
	"sync"

	"github.com/charmbracelet/x/vt"
)

// Grid is the narrow capability the rest of the system needs from a
// terminal emulator. Any implementation must correctly handle the
// common CSI/OSC ANSI sequences; exact conformance is delegated to the
// backing implementation.
type Grid interface {
	Feed(data []byte)
	Resize(cols, rows int)
	Dump() []byte
	Text() []string
	Size() (cols, rows int)
}

// emulator wraps charmbracelet/x/vt's thread-safe terminal emulator.
type emulator struct {
	mu   sync.Mutex
	term vt.Terminal
	cols int
	rows int
}

// New constructs a Grid of the given size. scrollbackLimit is accepted
// for interface symmetry with the source format's VT builder but the
// underlying emulator here tracks only the visible screen — scrollback
// text formatting is the text encoder's concern, not the grid's.
func New(cols, rows, scrollbackLimit int) Grid {
	return &emulator{
		term: vt.NewSafeEmulator(cols, rows),
		cols: cols,
		rows: rows,
	}
}

func (e *emulator) Feed(data []byte) {
	e.term.Write(data)
}

func (e *emulator) Resize(cols, rows int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cols, e.rows = cols, rows
	e.term.Resize(cols, rows)
}

// Dump renders the current screen as an ANSI byte sequence. Feeding this
// sequence into a fresh Grid of the same size reconstructs the visible
// screen (cursor position, colors, and content), satisfying the format's
// "opaque reconstructable dump" contract.
func (e *emulator) Dump() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return []byte(e.term.Render())
}

// Text returns the visible screen as plain text lines, stripped of any
// escape sequences.
func (e *emulator) Text() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	lines := make([]string, e.rows)
	for y := 0; y < e.rows; y++ {
		var line []rune
		for x := 0; x < e.cols; x++ {
			cell := e.term.CellAt(x, y)
			if cell != nil && cell.Content != "" {
				runes := []rune(cell.Content)
				if len(runes) > 0 {
					line = append(line, runes[0])
					continue
				}
			}
			line = append(line, ' ')
		}
		lines[y] = string(line)
	}
	return lines
}

func (e *emulator) Size() (cols, rows int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cols, e.rows
}
