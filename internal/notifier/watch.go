package notifier

import (
	"github.com/asciinema/asciinema-go/internal/alis"
	"github.com/asciinema/asciinema-go/internal/broadcast"
)

// WatchSink scans every Output event for OSC 9/777 notification
// sequences the recorded child emitted and forwards matches to Target.
// It never drops the event: Emit always reports success so a
// notification failure never removes the sink from a session.
type WatchSink struct {
	Target Sink
}

// NewWatchSink wraps target so it also receives notifications detected
// in the recorded child's own output.
func NewWatchSink(target Sink) *WatchSink {
	return &WatchSink{Target: target}
}

func (s *WatchSink) Emit(ev broadcast.Event) error {
	if ev.Tag != alis.TagOutput {
		return nil
	}
	for _, n := range Detect(ev.Data) {
		switch n.Type {
		case TypeOSC9:
			s.Target.Notify(n.Message)
		case TypeOSC777:
			if n.Title != "" {
				s.Target.Notify(n.Title + ": " + n.Body)
			} else {
				s.Target.Notify(n.Body)
			}
		}
	}
	return nil
}

func (s *WatchSink) Flush() error { return nil }
