package notifier

import "testing"

func TestStandaloneBellIgnored(t *testing.T) {
	data := []byte("some output\x07more output")
	if got := Detect(data); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestDetectOSC9WithBELTerminator(t *testing.T) {
	data := []byte("\x1b]9;Test notification\x07")
	got := Detect(data)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Type != TypeOSC9 || got[0].Message != "Test notification" {
		t.Errorf("got %+v", got[0])
	}
}

func TestDetectOSC9WithSTTerminator(t *testing.T) {
	data := []byte("\x1b]9;Agent notification\x1b\\")
	got := Detect(data)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Type != TypeOSC9 || got[0].Message != "Agent notification" {
		t.Errorf("got %+v", got[0])
	}
}

func TestDetectOSC777Notification(t *testing.T) {
	data := []byte("\x1b]777;notify;Build Complete;All tests passed\x07")
	got := Detect(data)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Type != TypeOSC777 || got[0].Title != "Build Complete" || got[0].Body != "All tests passed" {
		t.Errorf("got %+v", got[0])
	}
}

func TestDetectIgnoresNumericOnlyOSC9(t *testing.T) {
	data := []byte("\x1b]9;123;456\x07")
	if got := Detect(data); len(got) != 0 {
		t.Errorf("len = %d, want 0 (numeric-only message should be filtered)", len(got))
	}
}

func TestNullSinkDiscards(t *testing.T) {
	if err := (NullSink{}).Notify("anything"); err != nil {
		t.Fatalf("NullSink.Notify returned error: %v", err)
	}
}

func TestLogSinkAcceptsNilLogger(t *testing.T) {
	s := NewLogSink(nil)
	if err := s.Notify("hello"); err != nil {
		t.Fatalf("LogSink.Notify: %v", err)
	}
}

func TestNewFallsBackToNullSinkWhenNothingAvailable(t *testing.T) {
	t.Setenv("PATH", "")
	t.Setenv("TMUX", "")
	s := New("")
	if _, ok := s.(NullSink); !ok {
		t.Fatalf("expected NullSink fallback, got %T", s)
	}
}

func TestNewPrefersCustomCommand(t *testing.T) {
	s := New("true")
	cs, ok := s.(*customSink)
	if !ok {
		t.Fatalf("expected *customSink, got %T", s)
	}
	if cs.command != "true" {
		t.Errorf("command = %q", cs.command)
	}
}
