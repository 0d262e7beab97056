package ws

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"
)

// deadliner is implemented by *net.TCPListener and *net.UnixListener.
type deadliner interface {
	SetDeadline(t time.Time) error
}

// acceptLoop accepts connections until ctx is cancelled or the listener is
// closed, starting one session goroutine per connection. Each Accept is
// bounded by PollInterval so shutdown is noticed without a hard interrupt.
func (s *Server) acceptLoop(ctx context.Context, rt *runtime) error {
	defer rt.ln.Close() //nolint:errcheck

	dl, _ := rt.ln.(deadliner)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if dl != nil {
			dl.SetDeadline(time.Now().Add(s.cfg.PollInterval)) //nolint:errcheck
		}

		conn, err := rt.ln.Accept()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Warn("ws: accept failed", "err", err)
			continue
		}

		rt.sessions.Add(1)
		go func() {
			defer rt.sessions.Done()
			s.serveConn(ctx, rt, conn)
		}()
	}
}
