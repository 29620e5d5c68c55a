package asciicast

import (
	"strconv"
	"strings"
)

// RGB is a single 24-bit color.
type RGB struct {
	R, G, B byte
}

// HexString renders c as a lowercase "#rrggbb" string, the form used in
// v2/v3 recording files.
func (c RGB) HexString() string {
	const digits = "0123456789abcdef"
	b := [7]byte{'#'}
	b[1] = digits[c.R>>4]
	b[2] = digits[c.R&0xf]
	b[3] = digits[c.G>>4]
	b[4] = digits[c.G&0xf]
	b[5] = digits[c.B>>4]
	b[6] = digits[c.B&0xf]
	return string(b[:])
}

// ParseHexColor parses a "#rrggbb" string as used in v2/v3 recording
// files.
func ParseHexColor(s string) (RGB, bool) {
	if len(s) != 7 || s[0] != '#' {
		return RGB{}, false
	}
	r, err1 := strconv.ParseUint(s[1:3], 16, 8)
	g, err2 := strconv.ParseUint(s[3:5], 16, 8)
	b, err3 := strconv.ParseUint(s[5:7], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return RGB{}, false
	}
	return RGB{byte(r), byte(g), byte(b)}, true
}

// ParseOSCColor parses an OSC 10/11/4 color reply body in X11 "rgb:"
// notation, e.g. "rgb:aa11/bb22/cc33", "rgb:aa1/bb2/cc3", or
// "rgb:aa/bb/cc" — all three equivalent to RGB(0xaa, 0xbb, 0xcc). Each
// component may carry 1 to 4 hex digits; only the most significant byte
// is kept.
func ParseOSCColor(s string) (RGB, bool) {
	rest, ok := strings.CutPrefix(s, "rgb:")
	if !ok {
		return RGB{}, false
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return RGB{}, false
	}

	var out [3]byte
	for i, p := range parts {
		if len(p) == 0 || len(p) > 4 {
			return RGB{}, false
		}
		comp := p
		if len(comp) == 1 {
			comp += comp
		}
		v, err := strconv.ParseUint(comp[:2], 16, 8)
		if err != nil {
			return RGB{}, false
		}
		out[i] = byte(v)
	}

	return RGB{out[0], out[1], out[2]}, true
}

// ParsePalette parses a colon-joined list of "#rrggbb" entries. An
// 8-entry palette is doubled to 16; any other length is rejected.
func ParsePalette(s string) ([16]RGB, bool) {
	var pal [16]RGB

	parts := strings.Split(s, ":")
	colors := make([]RGB, 0, len(parts))
	for _, p := range parts {
		c, ok := ParseHexColor(p)
		if !ok {
			return pal, false
		}
		colors = append(colors, c)
	}

	switch len(colors) {
	case 8:
		colors = append(colors, colors...)
	case 16:
	default:
		return pal, false
	}

	copy(pal[:], colors)
	return pal, true
}

// FormatPalette renders a 16-entry palette as a colon-joined list of
// "#rrggbb" entries.
func FormatPalette(pal [16]RGB) string {
	parts := make([]string, len(pal))
	for i, c := range pal {
		parts[i] = c.HexString()
	}
	return strings.Join(parts, ":")
}
