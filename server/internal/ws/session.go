package ws

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"time"
)

// drainBufSize is the scratch buffer for discarded inbound bytes.
const drainBufSize = 1024

var headerEnd = []byte("\r\n\r\n")

// serveConn runs one client session: handshake, register, drain until the
// peer goes away or ctx is cancelled, then deregister and close.
func (s *Server) serveConn(ctx context.Context, rt *runtime, conn net.Conn) {
	addr := conn.RemoteAddr().String()

	// Unblocks a handshake read that is still waiting when the server stops.
	stop := context.AfterFunc(ctx, func() { conn.Close() }) //nolint:errcheck
	defer stop()

	raw, err := s.readHandshake(conn)
	if err != nil {
		slog.Debug("ws: handshake read failed", "remote", addr, "err", err)
		conn.Close() //nolint:errcheck
		return
	}

	resp, err := Accept(ParseRequest(raw))
	if err != nil {
		slog.Debug("ws: handshake rejected", "remote", addr, "err", err)
		s.observer.HandshakeRejected(addr, err)
		conn.Close() //nolint:errcheck
		return
	}

	c := newClient(conn, s.cfg.WriteTimeout)
	defer func() {
		rt.reg.Remove(c)
		c.Close()
		s.observer.ClientDisconnected(addr)
		slog.Info("ws: client disconnected", "id", c.ID, "remote", addr)
	}()

	if err := c.write(resp); err != nil {
		slog.Debug("ws: handshake write failed", "remote", addr, "err", err)
		return
	}

	rt.reg.Add(c)
	s.observer.ClientConnected(addr)
	slog.Info("ws: client connected", "id", c.ID, "remote", addr)

	s.drain(ctx, c)
}

// readHandshake reads the opening request, stopping at the blank line that
// ends the headers, at HandshakeBufferSize bytes, or at HandshakeTimeout.
func (s *Server) readHandshake(conn net.Conn) ([]byte, error) {
	conn.SetReadDeadline(time.Now().Add(s.cfg.HandshakeTimeout)) //nolint:errcheck

	buf := make([]byte, s.cfg.HandshakeBufferSize)
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if bytes.Contains(buf[:n], headerEnd) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return buf[:n], nil
}

// drain reads and discards inbound bytes. Each read is bounded by
// PollInterval so cancellation is observed within one interval. A timeout
// re-polls; any other error (EOF, reset, closed by broadcast) ends the loop.
func (s *Server) drain(ctx context.Context, c *Client) {
	buf := make([]byte, drainBufSize)
	for {
		if ctx.Err() != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(s.cfg.PollInterval)) //nolint:errcheck
		if _, err := c.conn.Read(buf); err != nil {
			if isTimeout(err) {
				continue
			}
			slog.Debug("ws: client read ended", "id", c.ID, "err", err)
			return
		}
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
