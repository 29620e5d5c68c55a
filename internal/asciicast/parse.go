package asciicast

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// DetectVersion peeks a header line's "version" field without
// validating the rest of the document.
func DetectVersion(headerLine string) (int, error) {
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal([]byte(headerLine), &probe); err != nil {
		return 0, fmt.Errorf("asciicast: invalid header: %w", err)
	}
	return probe.Version, nil
}

// Parse auto-detects the recording version (1, 2, or 3) and parses the
// full stream into a Cast.
func Parse(r io.Reader) (Cast, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return Cast{}, err
		}
		return Cast{}, fmt.Errorf("asciicast: empty file")
	}
	headerLine := scanner.Text()

	version, err := DetectVersion(headerLine)
	if err != nil {
		return Cast{}, err
	}

	switch version {
	case 1:
		rest, err := io.ReadAll(r)
		if err != nil {
			return Cast{}, err
		}
		full := append([]byte(headerLine), rest...)
		h, events, err := ParseV1(full)
		if err != nil {
			return Cast{}, err
		}
		return Cast{Header: h, Events: events}, nil

	case 2:
		h, err := ParseV2Header(headerLine)
		if err != nil {
			return Cast{}, err
		}
		var p V2Parser
		events, err := parseEventLines(scanner, p.ParseLine)
		if err != nil {
			return Cast{}, err
		}
		return Cast{Header: h, Events: events}, nil

	case 3:
		h, err := ParseV3Header(headerLine)
		if err != nil {
			return Cast{}, err
		}
		p := NewV3Parser()
		events, err := parseEventLines(scanner, p.ParseLine)
		if err != nil {
			return Cast{}, err
		}
		return Cast{Header: h, Events: events}, nil

	default:
		return Cast{}, fmt.Errorf("asciicast: unsupported version %d", version)
	}
}

func parseEventLines(scanner *bufio.Scanner, parseLine func(string) (Event, bool, error)) ([]Event, error) {
	var events []Event
	for scanner.Scan() {
		ev, ok, err := parseLine(scanner.Text())
		if err != nil {
			return nil, err
		}
		if ok {
			events = append(events, ev)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
