package ws

import "encoding/binary"

// Frame header constants (RFC 6455 section 5.2).
const (
	// finText is FIN=1 with the text opcode (0x1).
	finText byte = 0x81

	// maxShortPayload is the largest length that fits in the 7-bit field.
	maxShortPayload = 125

	// maxMediumPayload is the largest length that fits in the 16-bit
	// extended field.
	maxMediumPayload = 65535

	lenMarker16 byte = 126
	lenMarker64 byte = 127
)

// EncodeText returns payload wrapped in a single unfragmented, unmasked text
// frame. The length field uses the narrowest of the three encodings and
// multi-byte lengths are big-endian.
func EncodeText(payload []byte) []byte {
	n := len(payload)

	var frame []byte
	switch {
	case n <= maxShortPayload:
		frame = make([]byte, 2, 2+n)
		frame[1] = byte(n)
	case n <= maxMediumPayload:
		frame = make([]byte, 4, 4+n)
		frame[1] = lenMarker16
		binary.BigEndian.PutUint16(frame[2:4], uint16(n))
	default:
		frame = make([]byte, 10, 10+n)
		frame[1] = lenMarker64
		binary.BigEndian.PutUint64(frame[2:10], uint64(n))
	}
	frame[0] = finText

	return append(frame, payload...)
}
