package encoder

import (
	"testing"
	"time"

	"github.com/asciinema/asciinema-go/internal/asciicast"
)

func render(t *testing.T, enc Encoder, h asciicast.Header, events []asciicast.Event) []byte {
	t.Helper()
	var out []byte
	out = append(out, enc.Header(h)...)
	for _, ev := range events {
		out = append(out, enc.Event(ev)...)
	}
	out = append(out, enc.Flush()...)
	return out
}

func TestRawEncoderEmitsSizeHeaderThenOutputOnly(t *testing.T) {
	enc := New(FormatRaw, false, false)

	got := render(t, enc, asciicast.Header{Cols: 100, Rows: 50}, []asciicast.Event{
		asciicast.OutputEvent(0, "he\x1b[1mllo\r\n"),
		asciicast.OutputEvent(time.Microsecond, "world\r\n"),
		asciicast.InputEvent(2*time.Microsecond, "."),
		asciicast.ResizeEvent(3*time.Microsecond, 80, 24),
		asciicast.MarkerEvent(4*time.Microsecond, "."),
	})

	want := "\x1b[8;50;100the\x1b[1mllo\r\nworld\r\n"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRawEncoderOmitsHeaderInAppendMode(t *testing.T) {
	enc := New(FormatRaw, true, false)
	got := enc.Header(asciicast.Header{Cols: 80, Rows: 24})
	if len(got) != 0 {
		t.Fatalf("expected no header bytes in append mode, got %q", got)
	}
}

func TestTextEncoderRendersVisibleLinesOnFlush(t *testing.T) {
	enc := New(FormatTxt, false, false)

	header := enc.Header(asciicast.Header{Cols: 80, Rows: 24})
	if len(header) != 0 {
		t.Fatalf("expected no header bytes, got %q", header)
	}

	if got := enc.Event(asciicast.OutputEvent(0, "he\x1b[1mllo\r\n")); len(got) != 0 {
		t.Fatalf("expected no bytes per-event, got %q", got)
	}
	if got := enc.Event(asciicast.OutputEvent(time.Microsecond, "world\r\n")); len(got) != 0 {
		t.Fatalf("expected no bytes per-event, got %q", got)
	}

	want := "hello\nworld\n"
	if got := string(enc.Flush()); got != want {
		t.Fatalf("Flush() = %q, want %q", got, want)
	}
}

func TestTextEncoderTimestampModePrefixesRelativeSeconds(t *testing.T) {
	enc := New(FormatTxt, false, true)
	enc.Header(asciicast.Header{Cols: 80, Rows: 24})

	got := enc.Event(asciicast.OutputEvent(1500*time.Millisecond, "hello\n"))
	want := "1.500s hello\n"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestTextEncoderTimestampModeFlushesPartialLine(t *testing.T) {
	enc := New(FormatTxt, false, true)
	enc.Header(asciicast.Header{Cols: 80, Rows: 24})
	enc.Event(asciicast.OutputEvent(0, "partial"))

	got := string(enc.Flush())
	want := "0.000s partial\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestV3EncoderAppendModeEmitsResizeInsteadOfHeader(t *testing.T) {
	enc := New(FormatV3, true, false)
	got := string(enc.Header(asciicast.Header{Cols: 80, Rows: 24}))
	want := "[0.0, \"r\", \"80x24\"]\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestV2EncoderAppendModeEmitsResizeInsteadOfHeader(t *testing.T) {
	enc := New(FormatV2, true, false)
	got := string(enc.Header(asciicast.Header{Cols: 80, Rows: 24}))
	want := "[0.0, \"r\", \"80x24\"]\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
