package vt

import "testing"

func TestSizeMatchesConstruction(t *testing.T) {
	g := New(80, 24, 100)
	cols, rows := g.Size()
	if cols != 80 || rows != 24 {
		t.Fatalf("got (%d, %d), want (80, 24)", cols, rows)
	}
}

func TestFeedAndText(t *testing.T) {
	g := New(10, 2, 0)
	g.Feed([]byte("hi"))
	lines := g.Text()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0][:2] != "hi" {
		t.Fatalf("expected first line to start with 'hi', got %q", lines[0])
	}
}

func TestResizeUpdatesSize(t *testing.T) {
	g := New(80, 24, 0)
	g.Resize(100, 30)
	cols, rows := g.Size()
	if cols != 100 || rows != 30 {
		t.Fatalf("got (%d, %d), want (100, 30)", cols, rows)
	}
}

func TestDumpIsDeterministic(t *testing.T) {
	g1 := New(20, 5, 0)
	g1.Feed([]byte("hello\r\nworld"))

	g2 := New(20, 5, 0)
	g2.Feed([]byte("hello\r\nworld"))

	if string(g1.Dump()) != string(g2.Dump()) {
		t.Fatalf("identical input histories produced different dumps")
	}
}
