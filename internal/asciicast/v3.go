package asciicast

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type v3ThemeJSON struct {
	FG      string `json:"fg"`
	BG      string `json:"bg"`
	Palette string `json:"palette"`
}

type v3HeaderJSON struct {
	Version int `json:"version"`
	Term    struct {
		Cols    uint16       `json:"cols"`
		Rows    uint16       `json:"rows"`
		Type    string       `json:"type,omitempty"`
		Version string       `json:"version,omitempty"`
		Theme   *v3ThemeJSON `json:"theme,omitempty"`
	} `json:"term"`
	Timestamp     *uint64           `json:"timestamp,omitempty"`
	IdleTimeLimit *float64          `json:"idle_time_limit,omitempty"`
	Command       string            `json:"command,omitempty"`
	Title         string            `json:"title,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
}

// ParseV3Header parses a v3 header line (the first line of a v3 file).
func ParseV3Header(line string) (Header, error) {
	var h v3HeaderJSON
	if err := json.Unmarshal([]byte(line), &h); err != nil {
		return Header{}, fmt.Errorf("asciicast v3 header: %w", err)
	}
	if h.Version != 3 {
		return Header{}, fmt.Errorf("asciicast v3 header: not a v3 file (version=%d)", h.Version)
	}

	header := Header{
		Cols:          h.Term.Cols,
		Rows:          h.Term.Rows,
		TermType:      h.Term.Type,
		TermVersion:   h.Term.Version,
		Timestamp:     h.Timestamp,
		IdleTimeLimit: h.IdleTimeLimit,
		Command:       h.Command,
		Title:         h.Title,
		Env:           h.Env,
	}

	if h.Term.Theme != nil {
		theme, err := themeFromJSON(h.Term.Theme)
		if err != nil {
			return Header{}, err
		}
		header.Theme = theme
	}

	return header, nil
}

// EncodeV3Header renders a v3 header line, including its trailing
// newline.
func EncodeV3Header(h Header) []byte {
	var j v3HeaderJSON
	j.Version = 3
	j.Term.Cols = h.Cols
	j.Term.Rows = h.Rows
	j.Term.Type = h.TermType
	j.Term.Version = h.TermVersion
	j.Term.Theme = themeToJSON(h.Theme)
	j.Timestamp = h.Timestamp
	j.IdleTimeLimit = h.IdleTimeLimit
	j.Command = h.Command
	j.Title = h.Title
	if len(h.Env) > 0 {
		j.Env = h.Env
	}

	data, _ := json.Marshal(j)
	return append(data, '\n')
}

func themeFromJSON(j *v3ThemeJSON) (*Theme, error) {
	fg, ok := ParseHexColor(j.FG)
	if !ok {
		return nil, fmt.Errorf("asciicast: invalid theme fg color %q", j.FG)
	}
	bg, ok := ParseHexColor(j.BG)
	if !ok {
		return nil, fmt.Errorf("asciicast: invalid theme bg color %q", j.BG)
	}
	pal, ok := ParsePalette(j.Palette)
	if !ok {
		return nil, fmt.Errorf("asciicast: invalid theme palette %q", j.Palette)
	}
	return &Theme{FG: fg, BG: bg, Palette: pal}, nil
}

func themeToJSON(t *Theme) *v3ThemeJSON {
	if t == nil {
		return nil
	}
	return &v3ThemeJSON{FG: t.FG.HexString(), BG: t.BG.HexString(), Palette: FormatPalette(t.Palette)}
}

// V3Parser decodes v3 event lines. Event times on the wire are deltas
// since the previous event; the parser accumulates them into absolute
// Event.Time values.
type V3Parser struct {
	prevTime time.Duration
}

func NewV3Parser() *V3Parser { return &V3Parser{} }

// ParseLine parses a single event line. ok is false for blank or
// comment ("#...") lines, which carry no event.
func (p *V3Parser) ParseLine(line string) (ev Event, ok bool, err error) {
	if line == "" || strings.HasPrefix(line, "#") {
		return Event{}, false, nil
	}

	var raw [3]json.RawMessage
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Event{}, false, fmt.Errorf("asciicast v3 event: %w", err)
	}

	delta, err := parseTimeValue(raw[0])
	if err != nil {
		return Event{}, false, fmt.Errorf("asciicast v3 event: %w", err)
	}

	var code string
	if err := json.Unmarshal(raw[1], &code); err != nil || code == "" {
		return Event{}, false, fmt.Errorf("asciicast v3 event: missing event code")
	}

	var data string
	if err := json.Unmarshal(raw[2], &data); err != nil {
		return Event{}, false, fmt.Errorf("asciicast v3 event: %w", err)
	}

	p.prevTime += delta

	if code[0] == CodeResize {
		cols, rows, err := parseSize(data)
		if err != nil {
			return Event{}, false, fmt.Errorf("asciicast v3 event: %w", err)
		}
		return ResizeEvent(p.prevTime, cols, rows), true, nil
	}

	return Event{Time: p.prevTime, Code: code[0], Data: data}, true, nil
}

func parseSize(s string) (cols, rows uint16, err error) {
	left, right, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size value %q in resize event", s)
	}
	c, err := strconv.ParseUint(left, 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cols value in resize event: %w", err)
	}
	r, err := strconv.ParseUint(right, 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid rows value in resize event: %w", err)
	}
	return uint16(c), uint16(r), nil
}

// V3Encoder renders events as v3 JSON lines, delta-encoding time against
// the previously encoded event.
type V3Encoder struct {
	prevTime time.Duration
}

func NewV3Encoder() *V3Encoder { return &V3Encoder{} }

// Header renders the v3 header line.
func (e *V3Encoder) Header(h Header) []byte { return EncodeV3Header(h) }

// Event renders a single v3 event line, including its trailing newline.
func (e *V3Encoder) Event(ev Event) []byte {
	delta := ev.Time - e.prevTime
	e.prevTime = ev.Time

	data := ev.Data
	if ev.Code == CodeResize {
		data = fmt.Sprintf("%dx%d", ev.Cols, ev.Rows)
	}

	codeJSON, _ := json.Marshal(string(ev.Code))
	dataJSON, _ := json.Marshal(data)

	line := fmt.Sprintf("[%s, %s, %s]\n", FormatTimeV3(delta), codeJSON, dataJSON)
	return []byte(line)
}
