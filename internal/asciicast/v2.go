package asciicast

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type v2HeaderJSON struct {
	Version       int               `json:"version"`
	Width         uint16            `json:"width"`
	Height        uint16            `json:"height"`
	Timestamp     *uint64           `json:"timestamp,omitempty"`
	IdleTimeLimit *float64          `json:"idle_time_limit,omitempty"`
	Command       string            `json:"command,omitempty"`
	Title         string            `json:"title,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
	Theme         *v3ThemeJSON      `json:"theme,omitempty"`
}

// ParseV2Header parses a v2 header line.
func ParseV2Header(line string) (Header, error) {
	var h v2HeaderJSON
	if err := json.Unmarshal([]byte(line), &h); err != nil {
		return Header{}, fmt.Errorf("asciicast v2 header: %w", err)
	}
	if h.Version != 2 {
		return Header{}, fmt.Errorf("asciicast v2 header: unsupported version %d", h.Version)
	}

	header := Header{
		Cols:          h.Width,
		Rows:          h.Height,
		Timestamp:     h.Timestamp,
		IdleTimeLimit: h.IdleTimeLimit,
		Command:       h.Command,
		Title:         h.Title,
		Env:           h.Env,
	}

	if h.Theme != nil {
		theme, err := themeFromJSON(h.Theme)
		if err != nil {
			return Header{}, err
		}
		header.Theme = theme
	}

	return header, nil
}

// EncodeV2Header renders a v2 header line, including its trailing
// newline.
func EncodeV2Header(h Header) []byte {
	var j v2HeaderJSON
	j.Version = 2
	j.Width = h.Cols
	j.Height = h.Rows
	j.Timestamp = h.Timestamp
	j.IdleTimeLimit = h.IdleTimeLimit
	j.Command = h.Command
	j.Title = h.Title
	if len(h.Env) > 0 {
		j.Env = h.Env
	}
	j.Theme = themeToJSON(h.Theme)

	data, _ := json.Marshal(j)
	return append(data, '\n')
}

// V2Parser decodes v2 event lines. Unlike v3, v2 times are absolute, not
// delta-encoded.
type V2Parser struct{}

func (V2Parser) ParseLine(line string) (ev Event, ok bool, err error) {
	if line == "" {
		return Event{}, false, nil
	}

	var raw [3]json.RawMessage
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Event{}, false, fmt.Errorf("asciicast v2 event: %w", err)
	}

	t, err := parseTimeValue(raw[0])
	if err != nil {
		return Event{}, false, fmt.Errorf("asciicast v2 event: %w", err)
	}

	var code string
	if err := json.Unmarshal(raw[1], &code); err != nil || code == "" {
		return Event{}, false, fmt.Errorf("asciicast v2 event: missing event code")
	}

	var data string
	if err := json.Unmarshal(raw[2], &data); err != nil {
		return Event{}, false, fmt.Errorf("asciicast v2 event: %w", err)
	}

	if code[0] == CodeResize {
		cols, rows, err := parseSize(data)
		if err != nil {
			return Event{}, false, fmt.Errorf("asciicast v2 event: %w", err)
		}
		return ResizeEvent(t, cols, rows), true, nil
	}

	return Event{Time: t, Code: code[0], Data: data}, true, nil
}

// V2Encoder renders events as v2 JSON lines with absolute times, adding
// a constant time offset to every event (encoder.New always passes a
// zero offset).
type V2Encoder struct {
	timeOffset time.Duration
}

func NewV2Encoder(timeOffset time.Duration) *V2Encoder { return &V2Encoder{timeOffset: timeOffset} }

func (e *V2Encoder) Header(h Header) []byte { return EncodeV2Header(h) }

func (e *V2Encoder) Event(ev Event) []byte {
	t := ev.Time + e.timeOffset

	data := ev.Data
	if ev.Code == CodeResize {
		data = fmt.Sprintf("%dx%d", ev.Cols, ev.Rows)
	}

	codeJSON, _ := json.Marshal(string(ev.Code))
	dataJSON, _ := json.Marshal(data)

	formatted := strings.TrimRight(FormatTimeV2(t), "0")
	if strings.HasSuffix(formatted, ".") {
		formatted += "0"
	}
	line := fmt.Sprintf("[%s, %s, %s]\n", formatted, codeJSON, dataJSON)
	return []byte(line)
}
