package follower

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/scenestream/scenestream/pkg/types"
)

// Defaults for zero-valued Config fields.
const (
	DefaultURL              = "ws://localhost:8765/"
	DefaultMaxBackoff       = 30 * time.Second
	DefaultHandshakeTimeout = 5 * time.Second
)

// Config controls where and how a Follower connects.
type Config struct {
	URL              string
	MaxBackoff       time.Duration
	HandshakeTimeout time.Duration
}

// Handler receives each decoded snapshot. It runs on the read goroutine and
// should return quickly.
type Handler func(types.Snapshot)

// Follower maintains a connection to a broadcast endpoint.
type Follower struct {
	cfg    Config
	dialer *websocket.Dialer
	handle Handler
}

// New creates a Follower that calls h for every snapshot received.
func New(cfg Config, h Handler) *Follower {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	return &Follower{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		handle: h,
	}
}

// Run connects and reads until ctx is cancelled, reconnecting with backoff
// whenever the dial fails or the connection is lost.
func (f *Follower) Run(ctx context.Context) {
	bo := newBackoff(f.cfg.MaxBackoff)

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := f.dialer.DialContext(ctx, f.cfg.URL, nil)
		if err != nil {
			wait := bo.next()
			slog.Warn("follower: dial failed, will retry",
				"url", f.cfg.URL,
				"err", err,
				"retry_in", wait)
			if !sleep(ctx, wait) {
				return
			}
			continue
		}

		slog.Info("follower: connected", "url", f.cfg.URL)
		bo.reset()

		err = f.read(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}

		wait := bo.next()
		slog.Warn("follower: connection lost, will reconnect",
			"url", f.cfg.URL,
			"err", err,
			"retry_in", wait)
		if !sleep(ctx, wait) {
			return
		}
	}
}

// read decodes messages until the connection fails or ctx is cancelled.
func (f *Follower) read(ctx context.Context, conn *websocket.Conn) error {
	// Unblock ReadMessage on shutdown.
	stop := context.AfterFunc(ctx, func() { conn.Close() }) //nolint:errcheck
	defer stop()

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if mt != websocket.TextMessage {
			continue
		}

		snap, err := Decode(msg)
		if err != nil {
			slog.Warn("follower: dropping undecodable message", "err", err, "bytes", len(msg))
			continue
		}
		f.handle(snap)
	}
}

// Decode parses one broadcast payload.
func Decode(msg []byte) (types.Snapshot, error) {
	var snap types.Snapshot
	if err := json.Unmarshal(msg, &snap); err != nil {
		return types.Snapshot{}, fmt.Errorf("follower: decode snapshot: %w", err)
	}
	return snap, nil
}

// sleep waits for d or until ctx is done; it reports whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
