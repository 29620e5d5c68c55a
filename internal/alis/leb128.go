// Package alis implements the ALiS binary wire framing used by the local
// WebSocket server and the upstream forwarder (subprotocol "v1.alis").
package alis

// AppendUvarint appends the unsigned LEB128 encoding of v to dst and
// returns the extended slice. Encoding is always at least one byte; zero
// encodes as a single 0x00 byte.
func AppendUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// Uvarint decodes an unsigned LEB128 value from the front of buf,
// returning the value and the number of bytes consumed. It returns n == 0
// if buf does not contain a complete encoding.
func Uvarint(buf []byte) (v uint64, n int) {
	var shift uint
	for i, b := range buf {
		if shift >= 64 {
			return 0, 0
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, i + 1
		}
		shift += 7
	}
	return 0, 0
}
