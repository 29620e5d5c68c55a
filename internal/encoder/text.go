package encoder

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/asciinema/asciinema-go/internal/asciicast"
	"github.com/asciinema/asciinema-go/internal/vt"
)

// virtualRows is the height given to the text encoder's internal grid.
// It stands in for unbounded scrollback: real recordings are orders of
// magnitude shorter than this, so no line is ever scrolled out before
// Flush renders it.
const virtualRows = 100_000

var (
	csiRE = regexp.MustCompile("\x1b\\[[0-?]*[ -/]*[@-~]")
	oscRE = regexp.MustCompile("\x1b\\][^\x07\x1b]*(?:\x07|\x1b\\\\)")
)

func stripANSI(s string) string {
	s = csiRE.ReplaceAllString(s, "")
	s = oscRE.ReplaceAllString(s, "")

	var b strings.Builder
	for _, c := range s {
		if c == '\r' || c == '\n' || (c >= ' ' && c != 0x7f) {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// textEncoder renders visible terminal text, stripped of escape
// sequences. In timestamp mode each completed line is prefixed with a
// wall-clock or relative time instead of being fed through a terminal
// grid, since resize/redraw handling is irrelevant to plain timestamped
// logging.
type textEncoder struct {
	timestamp bool
	baseTS    *uint64
	lastTime  time.Duration

	grid vt.Grid // nil in timestamp mode
	cols int

	buf strings.Builder
}

func newTextEncoder(timestamp bool) *textEncoder {
	return &textEncoder{timestamp: timestamp}
}

func (e *textEncoder) Header(h asciicast.Header) []byte {
	e.baseTS = h.Timestamp
	e.cols = int(h.Cols)

	if !e.timestamp {
		e.grid = vt.New(int(h.Cols), virtualRows, 0)
	}
	return nil
}

func (e *textEncoder) Event(ev asciicast.Event) []byte {
	e.lastTime = ev.Time

	switch ev.Code {
	case asciicast.CodeOutput:
		if e.timestamp {
			e.buf.WriteString(stripANSI(ev.Data))
			return e.drainCompleteLines(ev.Time)
		}
		e.grid.Feed([]byte(ev.Data))
		return nil

	case asciicast.CodeResize:
		if e.timestamp {
			return nil
		}
		e.cols = int(ev.Cols)
		e.grid.Resize(e.cols, virtualRows)
		return nil

	default:
		return nil
	}
}

func (e *textEncoder) drainCompleteLines(t time.Duration) []byte {
	var out []byte
	s := e.buf.String()

	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSuffix(s[:i], "\r")
		out = append(out, formatTimestamp(e.baseTS, t)...)
		out = append(out, line...)
		out = append(out, '\n')
		s = s[i+1:]
	}

	e.buf.Reset()
	e.buf.WriteString(s)
	return out
}

func (e *textEncoder) Flush() []byte {
	if e.timestamp {
		if e.buf.Len() == 0 {
			return nil
		}
		line := strings.TrimRight(e.buf.String(), "\r\n")
		e.buf.Reset()
		return append(append(formatTimestamp(e.baseTS, e.lastTime), line...), '\n')
	}

	lines := e.grid.Text()
	last := -1
	for i, line := range lines {
		if strings.TrimRight(line, " ") != "" {
			last = i
		}
	}

	var out []byte
	for _, line := range lines[:last+1] {
		out = append(out, strings.TrimRight(line, " ")...)
		out = append(out, '\n')
	}
	return out
}

func formatTimestamp(baseTS *uint64, d time.Duration) []byte {
	if baseTS != nil {
		abs := time.Unix(int64(*baseTS), 0).UTC().Add(d)
		return []byte(abs.Format("2006-01-02T15:04:05.000Z07:00") + " ")
	}
	return []byte(fmt.Sprintf("%.3fs ", d.Seconds()))
}
