// Package player replays a parsed recording to a terminal: it squashes
// idle gaps, applies a playback speed multiplier, and drives output
// timing while reading pause/step/marker/quit keystrokes from the
// controlling terminal.
package player

import (
	"time"

	"github.com/asciinema/asciinema-go/internal/asciicast"
)

// LimitIdleTime caps the gap between consecutive events at limit,
// shifting every later event back by the excess. A non-positive limit
// disables the cap.
func LimitIdleTime(events []asciicast.Event, limit time.Duration) []asciicast.Event {
	if limit <= 0 {
		return events
	}

	out := make([]asciicast.Event, len(events))
	var prevTime, offset time.Duration

	for i, ev := range events {
		delay := ev.Time - prevTime
		if delay > limit {
			offset += delay - limit
		}
		prevTime = ev.Time
		ev.Time -= offset
		out[i] = ev
	}
	return out
}

// Accelerate divides every event's time by speed. speed <= 0 is treated
// as 1 (no change).
func Accelerate(events []asciicast.Event, speed float64) []asciicast.Event {
	if speed <= 0 {
		speed = 1
	}
	out := make([]asciicast.Event, len(events))
	for i, ev := range events {
		ev.Time = time.Duration(float64(ev.Time) / speed)
		out[i] = ev
	}
	return out
}
