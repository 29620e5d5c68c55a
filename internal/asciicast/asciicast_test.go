package asciicast

import (
	"strings"
	"testing"
	"time"
)

func TestFormatTimeV3Vectors(t *testing.T) {
	cases := []struct {
		us   int64
		want string
	}{
		{0, "0.0"},
		{1_000_001, "1.000001"},
		{12_300_000, "12.3"},
		{12_000_003, "12.000003"},
	}

	for _, c := range cases {
		got := FormatTimeV3(time.Duration(c.us) * time.Microsecond)
		if got != c.want {
			t.Errorf("FormatTimeV3(%dus) = %q, want %q", c.us, got, c.want)
		}
	}
}

func TestColorParsing(t *testing.T) {
	want := RGB{0xaa, 0xbb, 0xcc}

	for _, s := range []string{"rgb:aa11/bb22/cc33", "rgb:aa1/bb2/cc3", "rgb:aa/bb/cc"} {
		got, ok := ParseOSCColor(s)
		if !ok || got != want {
			t.Errorf("ParseOSCColor(%q) = (%+v, %v), want (%+v, true)", s, got, ok, want)
		}
	}

	if _, ok := ParseOSCColor("rgb:xxxx/yyyy/zzzz"); ok {
		t.Errorf("ParseOSCColor should reject non-hex components")
	}
}

func TestHexColorRoundTrip(t *testing.T) {
	c := RGB{0x12, 0x34, 0x56}
	s := c.HexString()
	got, ok := ParseHexColor(s)
	if !ok || got != c {
		t.Fatalf("round trip failed: %q -> %+v", s, got)
	}
}

func TestParsePaletteDoublesEightEntries(t *testing.T) {
	eight := strings.Repeat("#000000:", 7) + "#ffffff"
	pal, ok := ParsePalette(eight)
	if !ok {
		t.Fatalf("expected 8-entry palette to parse")
	}
	if pal[7] != pal[15] {
		t.Fatalf("expected doubled palette, entry 7 != entry 15: %+v vs %+v", pal[7], pal[15])
	}
}

func TestV3RoundTrip(t *testing.T) {
	h := Header{Cols: 80, Rows: 24, Command: "bash"}
	events := []Event{
		OutputEvent(0, "hello\r\n"),
		OutputEvent(1_000_000*time.Microsecond, "world"),
		ResizeEvent(2_000_000*time.Microsecond, 100, 30),
	}

	enc := NewV3Encoder()
	var out strings.Builder
	out.Write(enc.Header(h))
	for _, ev := range events {
		out.Write(enc.Event(ev))
	}

	parsed, err := Parse(strings.NewReader(out.String()))
	if err != nil {
		t.Fatal(err)
	}

	if parsed.Header.Cols != h.Cols || parsed.Header.Rows != h.Rows || parsed.Header.Command != h.Command {
		t.Fatalf("header mismatch: %+v", parsed.Header)
	}
	if len(parsed.Events) != len(events) {
		t.Fatalf("got %d events, want %d", len(parsed.Events), len(events))
	}
	for i, ev := range events {
		if parsed.Events[i].Time != ev.Time || parsed.Events[i].Code != ev.Code {
			t.Errorf("event %d mismatch: got %+v, want %+v", i, parsed.Events[i], ev)
		}
	}
}

func TestV3DeltaSumsToLastAbsoluteTime(t *testing.T) {
	events := []Event{
		OutputEvent(0, "a"),
		OutputEvent(1_000_000, "b"),
		OutputEvent(3_500_000, "c"),
	}

	p := NewV3Parser()
	var sum time.Duration
	enc2 := NewV3Encoder()
	for _, ev := range events {
		line := string(enc2.Event(ev))
		parsedEv, ok, err := p.ParseLine(strings.TrimSuffix(line, "\n"))
		if err != nil || !ok {
			t.Fatalf("failed to parse encoded event %q: %v", line, err)
		}
		sum = parsedEv.Time
	}

	if sum != events[len(events)-1].Time {
		t.Fatalf("accumulated delta time %v != last absolute time %v", sum, events[len(events)-1].Time)
	}
}

func TestV2AbsoluteTimeUnchanged(t *testing.T) {
	enc := NewV2Encoder(0)
	ev := OutputEvent(2_500_000*time.Microsecond, "x")
	line := string(enc.Event(ev))

	var p V2Parser
	parsedEv, ok, err := p.ParseLine(strings.TrimSuffix(line, "\n"))
	if err != nil || !ok {
		t.Fatalf("parse failed: %v", err)
	}
	if parsedEv.Time != ev.Time {
		t.Fatalf("v2 time mismatch: got %v, want %v", parsedEv.Time, ev.Time)
	}
}

func TestV1ReadOnly(t *testing.T) {
	data := []byte(`{"version":1,"width":80,"height":24,"stdout":[[0,"hi"],[1.5,"there"]]}`)
	h, events, err := ParseV1(data)
	if err != nil {
		t.Fatal(err)
	}
	if h.Cols != 80 || h.Rows != 24 {
		t.Fatalf("header mismatch: %+v", h)
	}
	if len(events) != 2 || events[1].Time != 1500*time.Millisecond {
		t.Fatalf("events mismatch: %+v", events)
	}
}

func TestIntegralTimeAccepted(t *testing.T) {
	d, err := parseTimeValue([]byte("5"))
	if err != nil {
		t.Fatal(err)
	}
	if d != 5*time.Second {
		t.Fatalf("expected 5s, got %v", d)
	}
}

func TestScenarioRecordHello(t *testing.T) {
	// S1 from the end-to-end scenarios: header 80x24, two output events.
	h := Header{Cols: 80, Rows: 24}
	enc := NewV3Encoder()

	headerLine := string(enc.Header(h))
	if !strings.Contains(headerLine, `"cols":80`) || !strings.Contains(headerLine, `"rows":24`) {
		t.Fatalf("unexpected header line: %s", headerLine)
	}

	line1 := string(enc.Event(OutputEvent(0, "hello\r\n")))
	line2 := string(enc.Event(OutputEvent(1_000_000*time.Microsecond, "world")))

	if !strings.HasPrefix(line1, `[0.0, "o", "hello\r\n"]`) {
		t.Fatalf("unexpected first event line: %s", line1)
	}
	if !strings.HasPrefix(line2, `[1.0, "o", "world"]`) {
		t.Fatalf("unexpected second event line: %s", line2)
	}
}
