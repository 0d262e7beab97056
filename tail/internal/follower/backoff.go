package follower

import (
	"math/rand"
	"time"
)

const (
	retryBase   = 500 * time.Millisecond
	retryJitter = 0.25
)

// backoff spaces out reconnect attempts. The wait doubles with each
// consecutive failure until it reaches ceiling, and every wait is spread by up
// to retryJitter either way so tails restarted together do not reconnect in
// lockstep.
type backoff struct {
	attempt int
	ceiling time.Duration
}

func newBackoff(ceiling time.Duration) *backoff {
	return &backoff{ceiling: max(ceiling, retryBase)}
}

// next returns how long to wait before the next attempt.
func (b *backoff) next() time.Duration {
	wait := min(retryBase<<b.attempt, b.ceiling)
	if wait < b.ceiling {
		b.attempt++
	}
	spread := 1 + retryJitter*(2*rand.Float64()-1)
	return time.Duration(float64(wait) * spread)
}

// reset starts the next run of failures from retryBase again.
func (b *backoff) reset() { b.attempt = 0 }
