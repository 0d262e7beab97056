package ws

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// decodeHeader parses the header EncodeText produces and returns the payload
// length and the header size.
func decodeHeader(t *testing.T, frame []byte) (length uint64, hdr int) {
	t.Helper()
	if len(frame) < 2 {
		t.Fatalf("frame too short: %d bytes", len(frame))
	}
	if frame[1]&0x80 != 0 {
		t.Fatal("mask bit set on server frame")
	}
	switch l := frame[1] & 0x7F; l {
	case 126:
		return uint64(binary.BigEndian.Uint16(frame[2:4])), 4
	case 127:
		return binary.BigEndian.Uint64(frame[2:10]), 10
	default:
		return uint64(l), 2
	}
}

func TestEncodeText_LengthBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantHdr int
		marker  byte
	}{
		{"empty", 0, 2, 0},
		{"short max", 125, 2, 125},
		{"medium min", 126, 4, 126},
		{"medium max", 65535, 4, 126},
		{"long min", 65536, 10, 127},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := bytes.Repeat([]byte{'a'}, tc.size)
			frame := EncodeText(payload)

			if frame[0] != 0x81 {
				t.Errorf("first byte: got %#x, want 0x81", frame[0])
			}
			if frame[1] != tc.marker {
				t.Errorf("length byte: got %d, want %d", frame[1], tc.marker)
			}
			n, hdr := decodeHeader(t, frame)
			if hdr != tc.wantHdr {
				t.Errorf("header size: got %d, want %d", hdr, tc.wantHdr)
			}
			if n != uint64(tc.size) {
				t.Errorf("decoded length: got %d, want %d", n, tc.size)
			}
			if len(frame) != hdr+tc.size {
				t.Errorf("frame size: got %d, want %d", len(frame), hdr+tc.size)
			}
		})
	}
}

func TestEncodeText_PayloadUnmasked(t *testing.T) {
	payload := []byte(`{"frame":1,"fps":24}`)
	frame := EncodeText(payload)

	_, hdr := decodeHeader(t, frame)
	if !bytes.Equal(frame[hdr:], payload) {
		t.Errorf("payload: got %q, want %q", frame[hdr:], payload)
	}
}

func TestEncodeText_DoesNotAliasInput(t *testing.T) {
	payload := []byte("abc")
	frame := EncodeText(payload)
	payload[0] = 'z'
	if frame[2] != 'a' {
		t.Errorf("frame changed after mutating input: %q", frame[2:])
	}
}
