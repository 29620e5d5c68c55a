// Package encoder adapts the asciicast v2/v3 renderers and the raw and
// text output formats behind one narrow interface, so `rec` and
// `convert` can treat every target format identically: header, then one
// call per event, then a final flush.
package encoder

import "github.com/asciinema/asciinema-go/internal/asciicast"

// Encoder renders a recording incrementally. Each method returns the
// bytes to write for that step; callers append them to the destination
// in order.
type Encoder interface {
	Header(h asciicast.Header) []byte
	Event(ev asciicast.Event) []byte
	Flush() []byte
}

// Format names accepted by the CLI's -f/--format flag.
type Format string

const (
	FormatV3  Format = "v3"
	FormatV2  Format = "v2"
	FormatRaw Format = "raw"
	FormatTxt Format = "txt"
)

// New constructs the Encoder for the given format. append controls
// whether the header step emits a full header (new file) or a
// synthetic zero-delta resize (continuing a file via `rec --append`).
// timestamp only affects the txt format.
func New(format Format, append bool, timestamp bool) Encoder {
	switch format {
	case FormatV2:
		return &asciicastV2Encoder{inner: asciicast.NewV2Encoder(0), append: append}
	case FormatRaw:
		return &rawEncoder{append: append}
	case FormatTxt:
		return newTextEncoder(timestamp)
	default:
		return &asciicastV3Encoder{inner: asciicast.NewV3Encoder(), append: append}
	}
}

type asciicastV3Encoder struct {
	inner   *asciicast.V3Encoder
	append  bool
}

func (e *asciicastV3Encoder) Header(h asciicast.Header) []byte {
	if e.append {
		return e.inner.Event(asciicast.ResizeEvent(0, h.Cols, h.Rows))
	}
	return e.inner.Header(h)
}

func (e *asciicastV3Encoder) Event(ev asciicast.Event) []byte { return e.inner.Event(ev) }
func (e *asciicastV3Encoder) Flush() []byte                   { return nil }

type asciicastV2Encoder struct {
	inner  *asciicast.V2Encoder
	append bool
}

func (e *asciicastV2Encoder) Header(h asciicast.Header) []byte {
	if e.append {
		return e.inner.Event(asciicast.ResizeEvent(0, h.Cols, h.Rows))
	}
	return e.inner.Header(h)
}

func (e *asciicastV2Encoder) Event(ev asciicast.Event) []byte { return e.inner.Event(ev) }
func (e *asciicastV2Encoder) Flush() []byte                   { return nil }
