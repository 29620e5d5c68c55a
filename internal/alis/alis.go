package alis

import "fmt"

// Magic is the 5-byte preamble that must open every ALiS stream.
const Magic = "ALiS\x01"

// Tag identifies the kind of event encoded in a single ALiS message.
type Tag byte

const (
	TagInit   Tag = 0x01
	TagOutput Tag = 'o'
	TagInput  Tag = 'i'
	TagResize Tag = 'r'
	TagMarker Tag = 'm'
	TagExit   Tag = 'x'
)

// RGB is a single 24-bit color.
type RGB struct {
	R, G, B byte
}

// Theme is the terminal's color theme: foreground, background, and a
// 16-entry palette. At rest the palette always has exactly 16 entries.
type Theme struct {
	FG      RGB
	BG      RGB
	Palette [16]RGB
}

// Init describes the snapshot sent to a new subscriber: the event id and
// elapsed time it was taken at, the current terminal size, the theme (if
// known), and an opaque VT dump that reconstructs the visible screen.
type Init struct {
	LastID uint64
	TimeUS uint64
	Cols   uint64
	Rows   uint64
	Theme  *Theme
	Dump   []byte
}

// EncodeInit appends an Init message to dst.
func EncodeInit(dst []byte, in Init) []byte {
	dst = append(dst, byte(TagInit))
	dst = AppendUvarint(dst, in.LastID)
	dst = AppendUvarint(dst, in.TimeUS)
	dst = AppendUvarint(dst, in.Cols)
	dst = AppendUvarint(dst, in.Rows)

	if in.Theme == nil {
		dst = append(dst, 0x00)
	} else {
		dst = append(dst, 0x10)
		dst = appendRGB(dst, in.Theme.FG)
		dst = appendRGB(dst, in.Theme.BG)
		for _, c := range in.Theme.Palette {
			dst = appendRGB(dst, c)
		}
	}

	dst = AppendUvarint(dst, uint64(len(in.Dump)))
	dst = append(dst, in.Dump...)
	return dst
}

func appendRGB(dst []byte, c RGB) []byte {
	return append(dst, c.R, c.G, c.B)
}

// EncodeOutput appends an Output message: LEB128 id; LEB128 delta_us;
// LEB128 len; len UTF-8 bytes.
func EncodeOutput(dst []byte, id, deltaUS uint64, data []byte) []byte {
	return encodeTextEvent(dst, TagOutput, id, deltaUS, data)
}

// EncodeInput appends an Input message; same layout as Output.
func EncodeInput(dst []byte, id, deltaUS uint64, data []byte) []byte {
	return encodeTextEvent(dst, TagInput, id, deltaUS, data)
}

// EncodeMarker appends a Marker message; same layout as Output, data is
// the marker label.
func EncodeMarker(dst []byte, id, deltaUS uint64, label []byte) []byte {
	return encodeTextEvent(dst, TagMarker, id, deltaUS, label)
}

func encodeTextEvent(dst []byte, tag Tag, id, deltaUS uint64, data []byte) []byte {
	dst = append(dst, byte(tag))
	dst = AppendUvarint(dst, id)
	dst = AppendUvarint(dst, deltaUS)
	dst = AppendUvarint(dst, uint64(len(data)))
	return append(dst, data...)
}

// EncodeResize appends a Resize message: LEB128 id; LEB128 delta_us;
// LEB128 cols; LEB128 rows.
func EncodeResize(dst []byte, id, deltaUS uint64, cols, rows uint64) []byte {
	dst = append(dst, byte(TagResize))
	dst = AppendUvarint(dst, id)
	dst = AppendUvarint(dst, deltaUS)
	dst = AppendUvarint(dst, cols)
	dst = AppendUvarint(dst, rows)
	return dst
}

// EncodeExit appends an Exit message: LEB128 id; LEB128 delta_us; LEB128
// status. Negative statuses are clamped to 0.
func EncodeExit(dst []byte, id, deltaUS uint64, status int) []byte {
	dst = append(dst, byte(TagExit))
	dst = AppendUvarint(dst, id)
	dst = AppendUvarint(dst, deltaUS)
	if status < 0 {
		status = 0
	}
	dst = AppendUvarint(dst, uint64(status))
	return dst
}

// Event is a decoded ALiS message, discriminated by Tag. Fields not
// relevant to Tag are left zero.
type Event struct {
	Tag     Tag
	ID      uint64
	TimeUS  uint64 // Init's absolute time, or delta_us for later events
	Cols    uint64
	Rows    uint64
	Theme   *Theme
	Data    []byte // Output/Input/Marker payload, or Init's dump
	Status  int
}

// Decode parses a single message, including its leading tag byte, from
// buf and returns the event plus the number of bytes consumed, or n == 0
// if buf does not hold a complete message.
func Decode(buf []byte) (ev Event, n int, err error) {
	if len(buf) == 0 {
		return Event{}, 0, nil
	}

	tag := Tag(buf[0])
	rest := buf[1:]
	consumed := 1

	switch tag {
	case TagInit:
		lastID, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		rest, consumed = rest[k:], consumed+k

		timeUS, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		rest, consumed = rest[k:], consumed+k

		cols, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		rest, consumed = rest[k:], consumed+k

		rows, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		rest, consumed = rest[k:], consumed+k

		if len(rest) < 1 {
			return Event{}, 0, nil
		}
		themePresent := rest[0]
		rest, consumed = rest[1:], consumed+1

		var theme *Theme
		if themePresent == 0x10 {
			if len(rest) < 6+48 {
				return Event{}, 0, nil
			}
			theme = &Theme{
				FG: RGB{rest[0], rest[1], rest[2]},
				BG: RGB{rest[3], rest[4], rest[5]},
			}
			off := 6
			for i := range theme.Palette {
				theme.Palette[i] = RGB{rest[off], rest[off+1], rest[off+2]}
				off += 3
			}
			rest, consumed = rest[6+48:], consumed+6+48
		} else if themePresent != 0x00 {
			return Event{}, 0, fmt.Errorf("alis: invalid theme-present byte 0x%02x", themePresent)
		}

		dumpLen, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		rest, consumed = rest[k:], consumed+k

		if uint64(len(rest)) < dumpLen {
			return Event{}, 0, nil
		}

		return Event{
			Tag:    TagInit,
			ID:     lastID,
			TimeUS: timeUS,
			Cols:   cols,
			Rows:   rows,
			Theme:  theme,
			Data:   append([]byte(nil), rest[:dumpLen]...),
		}, consumed + int(dumpLen), nil

	case TagOutput, TagInput, TagMarker:
		id, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		rest, consumed = rest[k:], consumed+k

		deltaUS, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		rest, consumed = rest[k:], consumed+k

		length, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		rest, consumed = rest[k:], consumed+k

		if uint64(len(rest)) < length {
			return Event{}, 0, nil
		}

		return Event{
			Tag:    tag,
			ID:     id,
			TimeUS: deltaUS,
			Data:   append([]byte(nil), rest[:length]...),
		}, consumed + int(length), nil

	case TagResize:
		id, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		rest, consumed = rest[k:], consumed+k

		deltaUS, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		rest, consumed = rest[k:], consumed+k

		cols, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		rest, consumed = rest[k:], consumed+k

		rows, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		_, consumed = rest[k:], consumed+k

		return Event{Tag: TagResize, ID: id, TimeUS: deltaUS, Cols: cols, Rows: rows}, consumed, nil

	case TagExit:
		id, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		rest, consumed = rest[k:], consumed+k

		deltaUS, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		rest, consumed = rest[k:], consumed+k

		status, k := Uvarint(rest)
		if k == 0 {
			return Event{}, 0, nil
		}
		_, consumed = rest[k:], consumed+k

		return Event{Tag: TagExit, ID: id, TimeUS: deltaUS, Status: int(status)}, consumed, nil

	default:
		return Event{}, 0, fmt.Errorf("alis: unknown tag 0x%02x", byte(tag))
	}
}
