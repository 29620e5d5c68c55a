package ttydriver

import "testing"

func TestSplitOSCRepliesMixedTerminators(t *testing.T) {
	buf := "\x1b]10;rgb:aaaa/bbbb/cccc\x07\x1b]11;rgb:1111/2222/3333\x1b\\"
	got := splitOSCReplies(buf)
	want := []string{"10;rgb:aaaa/bbbb/cccc", "11;rgb:1111/2222/3333"}
	if len(got) != len(want) {
		t.Fatalf("got %d replies, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("reply %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParsePackedPaletteReply(t *testing.T) {
	var palette [16]RGB16
	var seen [16]bool
	parsePackedPaletteReply("0;rgb:aaaa/bbbb/cccc;1;rgb:1111/2222/3333", &palette, &seen)

	if !seen[0] || !seen[1] {
		t.Fatalf("expected entries 0 and 1 to be marked seen")
	}
	if palette[0] != (RGB16{R: 0xaa, G: 0xbb, B: 0xcc}) {
		t.Errorf("palette[0] = %+v", palette[0])
	}
	if palette[1] != (RGB16{R: 0x11, G: 0x22, B: 0x33}) {
		t.Errorf("palette[1] = %+v", palette[1])
	}
	for i := 2; i < 16; i++ {
		if seen[i] {
			t.Errorf("entry %d unexpectedly marked seen", i)
		}
	}
}

func TestDAFenceMatchesPrimaryDeviceAttributesReply(t *testing.T) {
	if !daFenceRE.MatchString("garbage\x1b[?1;2c") {
		t.Fatalf("expected DA fence to match")
	}
	if daFenceRE.MatchString("no fence here") {
		t.Fatalf("expected no match on plain text")
	}
}

func TestDCSReplyExtractsVersionVerbatim(t *testing.T) {
	buf := "\x1bP>|iTerm2 3.4.0\x1b\\"
	m := dcsReplyRE.FindStringSubmatch(buf)
	if m == nil {
		t.Fatalf("expected a match")
	}
	if m[1] != "iTerm2 3.4.0" {
		t.Errorf("got %q", m[1])
	}
}
