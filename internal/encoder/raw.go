package encoder

import (
	"fmt"

	"github.com/asciinema/asciinema-go/internal/asciicast"
)

// rawEncoder emits raw terminal output bytes with no framing: only
// Output event payloads pass through, preceded by a `rows;cols` resize
// sequence so a replaying terminal starts at the right size. The header
// is omitted entirely in append mode.
type rawEncoder struct {
	append  bool
	started bool
}

func (e *rawEncoder) Header(h asciicast.Header) []byte {
	if e.append {
		return nil
	}
	return []byte(fmt.Sprintf("\x1b[8;%d;%dt", h.Rows, h.Cols))
}

func (e *rawEncoder) Event(ev asciicast.Event) []byte {
	if ev.Code != asciicast.CodeOutput {
		return nil
	}
	return []byte(ev.Data)
}

func (e *rawEncoder) Flush() []byte { return nil }
