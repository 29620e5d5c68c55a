package utf8dec

import "testing"

func TestFeedWholeString(t *testing.T) {
	d := New()
	got := d.Feed([]byte("hello 世界"))
	if got != "hello 世界" {
		t.Fatalf("got %q", got)
	}
}

func TestFeedSplitMultibyteSequence(t *testing.T) {
	full := "hello 世界"
	fullBytes := []byte(full)

	for split := 0; split <= len(fullBytes); split++ {
		d := New()
		got := d.Feed(fullBytes[:split]) + d.Feed(fullBytes[split:])
		if got != full {
			t.Errorf("split at %d: got %q, want %q", split, got, full)
		}
	}
}

func TestFeedInvalidByteProducesOneReplacement(t *testing.T) {
	d := New()
	got := d.Feed([]byte{0xff, 'a'})
	if got != "�a" {
		t.Fatalf("got %q", got)
	}
}

func TestFeedIdempotentAcrossCallBoundary(t *testing.T) {
	d1 := New()
	one := d1.Feed([]byte("abc\xe4\xb8"))
	one += d1.Feed([]byte("\x96def"))

	d2 := New()
	two := d2.Feed([]byte("abc\xe4\xb8\x96def"))

	if one != two {
		t.Fatalf("mismatch: %q != %q", one, two)
	}
}
