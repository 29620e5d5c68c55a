package ttydriver

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/asciinema/asciinema-go/internal/asciicast"
)

var daFenceRE = regexp.MustCompile(`\x1b\[[0-9;?]*c`)
var dcsReplyRE = regexp.MustCompile(`\x1bP>\|([^\x1b]*)\x1b\\`)

// queryTimeout bounds both inspection queries; a partial reply at
// timeout yields a nil result rather than an error — a terminal that
// doesn't support a query is not a failure.
const queryTimeout = 1 * time.Second

const (
	esc = 0x1b
	bel = 0x07
)

// QueryTheme writes a batch of OSC 10/11/4 requests plus a primary
// device attributes request used as a reply fence, then parses
// whatever replies arrive within one second. The theme is returned only
// if foreground, background, and all 16 palette entries were received.
func (d *Driver) QueryTheme(ctx context.Context) (*asciicast.Theme, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var req strings.Builder
	req.WriteString("\x1b]10;?\x1b\\")
	req.WriteString("\x1b]11;?\x1b\\")
	for i := 0; i < 16; i++ {
		req.WriteString("\x1b]4;" + strconv.Itoa(i) + ";?\x1b\\")
	}
	req.WriteString("\x1b[c")

	if _, err := d.Write([]byte(req.String())); err != nil {
		return nil, err
	}

	replies, err := d.collectReplies(ctx)
	if err != nil {
		return nil, err
	}

	var theme asciicast.Theme
	var haveFG, haveBG bool
	var paletteSeen [16]bool

	for _, r := range replies {
		switch {
		case strings.HasPrefix(r, "10;"):
			if c, ok := asciicast.ParseOSCColor(strings.TrimPrefix(r, "10;")); ok {
				theme.FG = c
				haveFG = true
			}
		case strings.HasPrefix(r, "11;"):
			if c, ok := asciicast.ParseOSCColor(strings.TrimPrefix(r, "11;")); ok {
				theme.BG = c
				haveBG = true
			}
		case strings.HasPrefix(r, "4;"):
			parsePackedPaletteReply(strings.TrimPrefix(r, "4;"), &theme.Palette, &paletteSeen)
		}
	}

	if !haveFG || !haveBG {
		return nil, nil
	}
	for _, seen := range paletteSeen {
		if !seen {
			return nil, nil
		}
	}

	return &theme, nil
}

// parsePackedPaletteReply parses a (possibly packed) OSC 4 body of the
// form "0;rgb:...;1;rgb:...;..." into index/color pairs.
func parsePackedPaletteReply(body string, palette *[16]RGB16, seen *[16]bool) {
	parts := strings.Split(body, ";")
	for i := 0; i+1 < len(parts); i += 2 {
		idx, err := strconv.Atoi(parts[i])
		if err != nil || idx < 0 || idx >= 16 {
			continue
		}
		c, ok := asciicast.ParseOSCColor(parts[i+1])
		if !ok {
			continue
		}
		palette[idx] = c
		seen[idx] = true
	}
}

// RGB16 aliases the asciicast color type to keep this file's signatures
// readable.
type RGB16 = asciicast.RGB

// QueryVersion writes an XTVERSION request and returns the terminal's
// verbatim DCS reply body, or "" if no reply arrives within one second.
func (d *Driver) QueryVersion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := d.Write([]byte("\x1b[>0q")); err != nil {
		return "", err
	}

	buf, err := d.readUntilTimeoutOrFence(ctx, func(b string) bool { return dcsReplyRE.MatchString(b) })
	if err != nil {
		return "", err
	}

	m := dcsReplyRE.FindStringSubmatch(buf)
	if m == nil {
		return "", nil
	}
	return m[1], nil
}

// collectReplies reads from the driver until the DA reply fence
// (CSI ... 'c') arrives or the context deadline expires, and splits the
// accumulated buffer into OSC reply bodies.
func (d *Driver) collectReplies(ctx context.Context) ([]string, error) {
	buf, err := d.readUntilTimeoutOrFence(ctx, func(b string) bool { return daFenceRE.MatchString(b) })
	if err != nil {
		return nil, err
	}
	return splitOSCReplies(buf), nil
}

// readUntilTimeoutOrFence reads from the driver into an accumulating
// buffer until done reports true or ctx's deadline passes, using a read
// deadline on the fd so no goroutine is left blocked past the timeout.
func (d *Driver) readUntilTimeoutOrFence(ctx context.Context, done func(string) bool) (string, error) {
	deadline, _ := ctx.Deadline()
	defer d.readFile.SetReadDeadline(time.Time{})

	var buf strings.Builder
	tmp := make([]byte, 4096)
	for {
		if time.Until(deadline) <= 0 {
			return buf.String(), nil
		}
		d.readFile.SetReadDeadline(deadline)

		n, err := d.readFile.Read(tmp)
		if n > 0 {
			buf.Write(tmp[:n])
			if done(buf.String()) {
				return buf.String(), nil
			}
		}
		if err != nil {
			return buf.String(), nil
		}
	}
}

// splitOSCReplies extracts OSC reply bodies (between ESC ] and either
// BEL or ST) from an accumulated read buffer, tolerant of either
// terminator and of the replies arriving in any order.
func splitOSCReplies(buf string) []string {
	var out []string
	i := 0
	for {
		start := strings.Index(buf[i:], "\x1b]")
		if start < 0 {
			break
		}
		start += i + 2

		stIdx := strings.Index(buf[start:], "\x1b\\")
		belIdx := strings.IndexByte(buf[start:], bel)

		end := -1
		switch {
		case stIdx < 0 && belIdx < 0:
			i = len(buf)
			continue
		case stIdx < 0:
			end = start + belIdx
			i = end + 1
		case belIdx < 0:
			end = start + stIdx
			i = end + 2
		case stIdx < belIdx:
			end = start + stIdx
			i = end + 2
		default:
			end = start + belIdx
			i = end + 1
		}

		out = append(out, buf[start:end])
	}
	return out
}
