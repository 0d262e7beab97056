package ws

import (
	"crypto/sha1" //nolint:gosec // mandated by RFC 6455 for the accept key
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// acceptGUID is the fixed GUID appended to the client key (RFC 6455 §1.3).
const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// ErrMissingKey is returned by Accept when the request carries no
// Sec-WebSocket-Key header.
var ErrMissingKey = errors.New("ws: missing Sec-WebSocket-Key header")

// Request is the parsed opening handshake. Only the headers are kept; the
// request line is not interpreted.
type Request struct {
	Header http.Header
}

// ParseRequest splits raw on line boundaries, drops the request line and
// collects "Name: Value" lines into a header map. Lines without a colon are
// skipped. Header names are canonicalised, so lookups are case-insensitive.
func ParseRequest(raw []byte) Request {
	req := Request{Header: make(http.Header)}

	lines := strings.Split(string(raw), "\n")
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		req.Header.Set(name, strings.TrimSpace(value))
	}
	return req
}

// Accept validates req and returns the exact 101 response bytes to write
// back to the client. It returns ErrMissingKey when the key is absent or
// empty; no other header is checked.
func Accept(req Request) ([]byte, error) {
	key := req.Header.Get("Sec-WebSocket-Key")
	if key == "" {
		return nil, ErrMissingKey
	}

	var sb strings.Builder
	sb.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	sb.WriteString("Upgrade: websocket\r\n")
	sb.WriteString("Connection: Upgrade\r\n")
	sb.WriteString("Sec-WebSocket-Accept: ")
	sb.WriteString(AcceptKey(key))
	sb.WriteString("\r\n\r\n")
	return []byte(sb.String()), nil
}

// AcceptKey derives the Sec-WebSocket-Accept value for a client key.
func AcceptKey(key string) string {
	sum := sha1.Sum([]byte(key + acceptGUID)) //nolint:gosec
	return base64.StdEncoding.EncodeToString(sum[:])
}
