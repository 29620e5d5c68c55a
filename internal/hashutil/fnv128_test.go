package hashutil

import (
	"encoding/hex"
	"testing"
)

func TestFNV1a128(t *testing.T) {
	cases := []struct {
		in      string
		wantHex string
	}{
		{"Hello World!", "d2d42892ede872031d2593366229c2d2"},
	}

	for _, c := range cases {
		got := hex.EncodeToString(Sum128([]byte(c.in)))
		if got != c.wantHex {
			t.Errorf("FNV1a128(%q) = %s, want %s", c.in, got, c.wantHex)
		}
	}
}

func TestSum128Length(t *testing.T) {
	if len(Sum128([]byte("x"))) != 16 {
		t.Fatalf("Sum128 must return 16 bytes")
	}
}
