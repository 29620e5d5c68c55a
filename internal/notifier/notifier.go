// Package notifier detects OSC 9/777 notification escape sequences in
// captured output and dispatches the session engine's own user-visible
// notifications (pause/resume/marker) to a pluggable sink.
package notifier

import (
	"log/slog"
	"strings"
)

// Type identifies the kind of notification detected in a byte stream.
type Type string

const (
	TypeOSC9   Type = "osc9"
	TypeOSC777 Type = "osc777"
)

// Notification is a single detected OSC notification.
type Notification struct {
	Type    Type
	Message string // OSC 9
	Title   string // OSC 777
	Body    string // OSC 777
}

// Detect scans raw output for OSC 9 and OSC 777 notification sequences,
// tolerating either BEL or ST terminators.
func Detect(data []byte) []Notification {
	var out []Notification

	i := 0
	for i < len(data) {
		if i+1 < len(data) && data[i] == 0x1b && data[i+1] == ']' {
			start := i + 2
			end := -1

			for j := start; j < len(data); j++ {
				if data[j] == 0x07 {
					end = j
					break
				}
				if j+1 < len(data) && data[j] == 0x1b && data[j+1] == '\\' {
					end = j
					break
				}
			}

			if end != -1 {
				body := data[start:end]

				switch {
				case len(body) > 2 && body[0] == '9' && body[1] == ';':
					msg := string(body[2:])
					if msg != "" && !looksLikeEscapeSequence(msg) {
						out = append(out, Notification{Type: TypeOSC9, Message: msg})
					}
				case len(body) > 11 && string(body[:11]) == "777;notify;":
					content := string(body[11:])
					parts := strings.SplitN(content, ";", 2)
					var title, msgBody string
					if len(parts) > 0 {
						title = parts[0]
					}
					if len(parts) > 1 {
						msgBody = parts[1]
					}
					if title != "" || msgBody != "" {
						out = append(out, Notification{Type: TypeOSC777, Title: title, Body: msgBody})
					}
				}

				i = end + 1
				continue
			}
		}
		i++
	}

	return out
}

func looksLikeEscapeSequence(s string) bool {
	for _, c := range s {
		if !(c >= '0' && c <= '9') && c != ';' {
			return false
		}
	}
	return true
}

// Sink receives the session engine's own user-facing notifications
// (e.g. "Paused recording", "Marker added").
type Sink interface {
	Notify(message string) error
}

// LogSink routes notifications through structured logging; used when no
// desktop/terminal notification mechanism is configured or available.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a Sink that logs every notification at info level.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(message string) error {
	s.logger.Info("notification", "message", message)
	return nil
}

// NullSink discards every notification; used with --quiet-style options.
type NullSink struct{}

func (NullSink) Notify(string) error { return nil }
