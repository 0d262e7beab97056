package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Producer supplies the broadcast payload and the rate at which it should be
// sampled. Snapshot must return a value encoding/json can marshal.
type Producer interface {
	Snapshot() (any, error)
	DesiredPeriod() time.Duration
}

// broadcastLoop ticks at the producer's desired period, re-reading it every
// tick and resetting the ticker only when it changed, so a new rate applies
// from the following cycle.
func (s *Server) broadcastLoop(ctx context.Context, rt *runtime) error {
	period := s.period()
	t := time.NewTicker(period)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if p := s.period(); p != period {
				slog.Debug("ws: broadcast period changed", "from", period, "to", p)
				period = p
				t.Reset(period)
			}
			s.tick(rt)
		}
	}
}

// tick broadcasts one snapshot. The producer is not queried when no client
// is registered.
func (s *Server) tick(rt *runtime) {
	if rt.reg.Count() == 0 {
		return
	}

	v, err := s.producer.Snapshot()
	if err != nil {
		slog.Warn("ws: producer snapshot failed", "err", err)
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Warn("ws: encode snapshot failed", "err", err)
		return
	}

	frame := EncodeText(payload)
	delivered, failed := rt.reg.Broadcast(frame)
	s.observer.Broadcast(delivered, failed, len(frame)*delivered)
	if failed > 0 {
		slog.Debug("ws: dropped clients after failed write", "failed", failed, "delivered", delivered)
	}
}

// period returns the producer's desired period, or the configured default
// when the producer reports a non-positive one.
func (s *Server) period() time.Duration {
	if p := s.producer.DesiredPeriod(); p > 0 {
		return p
	}
	return s.cfg.DefaultPeriod
}
