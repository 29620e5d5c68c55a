// Package asciicast implements the recording file data model: event and
// header types, terminal theme color parsing, and the v1 (read-only),
// v2, and v3 JSON-lines encodings.
package asciicast

import "time"

// Theme is a terminal color theme: foreground, background, and a
// 16-entry ANSI palette. At rest the palette always has exactly 16
// entries (an 8-entry source palette is doubled on parse).
type Theme struct {
	FG      RGB
	BG      RGB
	Palette [16]RGB
}

// Header is session metadata captured once at session start and
// immutable thereafter. Zero values (empty string, nil pointer) mean
// the corresponding field was absent in the source format.
type Header struct {
	Cols          uint16
	Rows          uint16
	TermType      string
	TermVersion   string
	Theme         *Theme
	Timestamp     *uint64
	IdleTimeLimit *float64
	Command       string
	Title         string
	Env           map[string]string
}

// Event codes. Any other single character is passed through verbatim
// (mirrors the source format's "Other(char)" case).
const (
	CodeOutput byte = 'o'
	CodeInput  byte = 'i'
	CodeResize byte = 'r'
	CodeMarker byte = 'm'
	CodeExit   byte = 'x'
)

// Event is a single recorded timeline entry. Time is absolute (elapsed
// since session start) regardless of how the source encoding represents
// it on the wire.
type Event struct {
	Time time.Duration
	Code byte
	Data string // Output/Input/Marker/Other payload
	Cols uint16 // Resize only
	Rows uint16 // Resize only
}

func OutputEvent(t time.Duration, data string) Event { return Event{Time: t, Code: CodeOutput, Data: data} }
func InputEvent(t time.Duration, data string) Event  { return Event{Time: t, Code: CodeInput, Data: data} }
func MarkerEvent(t time.Duration, label string) Event {
	return Event{Time: t, Code: CodeMarker, Data: label}
}
func ResizeEvent(t time.Duration, cols, rows uint16) Event {
	return Event{Time: t, Code: CodeResize, Cols: cols, Rows: rows}
}
func OtherEvent(t time.Duration, code byte, data string) Event {
	return Event{Time: t, Code: code, Data: data}
}

// Cast is a fully parsed recording: header plus the complete event
// sequence.
type Cast struct {
	Header Header
	Events []Event
}
