package asciicast

import (
	"encoding/json"
	"fmt"
)

type v1JSON struct {
	Version int                 `json:"version"`
	Width   uint16              `json:"width"`
	Height  uint16              `json:"height"`
	Command string              `json:"command,omitempty"`
	Title   string              `json:"title,omitempty"`
	Env     map[string]string   `json:"env,omitempty"`
	Stdout  [][2]json.RawMessage `json:"stdout"`
}

// ParseV1 parses a complete v1 recording: a single JSON object with a
// `stdout` array of `[time, data]` pairs. v1 is read-only — there is no
// v1 encoder, and v1 files cannot be appended to.
func ParseV1(data []byte) (Header, []Event, error) {
	var v1 v1JSON
	if err := json.Unmarshal(data, &v1); err != nil {
		return Header{}, nil, fmt.Errorf("asciicast v1: %w", err)
	}
	if v1.Version != 1 {
		return Header{}, nil, fmt.Errorf("asciicast v1: unsupported version %d", v1.Version)
	}

	header := Header{
		Cols:    v1.Width,
		Rows:    v1.Height,
		Command: v1.Command,
		Title:   v1.Title,
		Env:     v1.Env,
	}

	events := make([]Event, 0, len(v1.Stdout))
	for i, pair := range v1.Stdout {
		t, err := parseTimeValue(pair[0])
		if err != nil {
			return Header{}, nil, fmt.Errorf("asciicast v1: event %d: %w", i, err)
		}
		var text string
		if err := json.Unmarshal(pair[1], &text); err != nil {
			return Header{}, nil, fmt.Errorf("asciicast v1: event %d: %w", i, err)
		}
		events = append(events, OutputEvent(t, text))
	}

	return header, events, nil
}
