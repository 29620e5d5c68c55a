package notifier

import (
	"testing"

	"github.com/asciinema/asciinema-go/internal/alis"
	"github.com/asciinema/asciinema-go/internal/broadcast"
)

type collectingSink struct{ messages []string }

func (c *collectingSink) Notify(message string) error {
	c.messages = append(c.messages, message)
	return nil
}

func TestWatchSinkForwardsDetectedOSC9(t *testing.T) {
	target := &collectingSink{}
	s := NewWatchSink(target)

	err := s.Emit(broadcast.Event{Tag: alis.TagOutput, Data: []byte("\x1b]9;build finished\x07")})
	if err != nil {
		t.Fatal(err)
	}
	if len(target.messages) != 1 || target.messages[0] != "build finished" {
		t.Fatalf("got %v", target.messages)
	}
}

func TestWatchSinkIgnoresNonOutputEvents(t *testing.T) {
	target := &collectingSink{}
	s := NewWatchSink(target)

	if err := s.Emit(broadcast.Event{Tag: alis.TagInput, Data: []byte("\x1b]9;ignored\x07")}); err != nil {
		t.Fatal(err)
	}
	if len(target.messages) != 0 {
		t.Fatalf("expected no notifications, got %v", target.messages)
	}
}
