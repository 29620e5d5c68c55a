// Package hashutil implements FNV-1a 128-bit hashing.
//
// The standard library's hash/fnv package stops at 64 bits, so the
// 128-bit variant is hand-rolled on top of math/bits. No other package
// in this module imports it.
package hashutil

import "math/bits"

const (
	// offset basis and prime for FNV-1a 128, split into hi/lo uint64 halves
	// (the algorithm's 128-bit constants don't fit a native Go integer type).
	offsetHi uint64 = 0x6c62272e07bb0142
	offsetLo uint64 = 0x62b821756295c58d
	primeHi  uint64 = 0x0000000001000000
	primeLo  uint64 = 0x000000000000013b
)

// FNV1a128 computes the FNV-1a 128-bit hash of data and returns it as
// (hi, lo) uint64 halves, hi being the most significant 64 bits.
func FNV1a128(data []byte) (hi, lo uint64) {
	hi, lo = offsetHi, offsetLo

	for _, b := range data {
		lo ^= uint64(b)
		hi, lo = mul128(hi, lo, primeHi, primeLo)
	}

	return hi, lo
}

// mul128 computes ((hi<<64|lo) * (bHi<<64|bLo)) mod 2^128, discarding
// overflow beyond the 128th bit as the FNV spec requires.
func mul128(aHi, aLo, bHi, bLo uint64) (hi, lo uint64) {
	hiPart, lo := bits.Mul64(aLo, bLo)
	hiPart += aLo*bHi + aHi*bLo
	return hiPart, lo
}

// Sum128 renders the 128-bit digest as a big-endian 16-byte slice.
func Sum128(data []byte) []byte {
	hi, lo := FNV1a128(data)
	out := make([]byte, 16)
	putUint64(out[0:8], hi)
	putUint64(out[8:16], lo)
	return out
}

func putUint64(b []byte, v uint64) {
	b[0] = byte(v >> 56)
	b[1] = byte(v >> 48)
	b[2] = byte(v >> 40)
	b[3] = byte(v >> 32)
	b[4] = byte(v >> 24)
	b[5] = byte(v >> 16)
	b[6] = byte(v >> 8)
	b[7] = byte(v)
}
