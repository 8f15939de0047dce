package crawler

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Pacer spaces out a sequence of requests. The first Wait returns at once;
// every later Wait sleeps delay plus a random jitter in [0, jitter].
type Pacer struct {
	delay   time.Duration
	jitter  time.Duration
	mu      sync.Mutex
	started bool
}

// NewPacer creates a pacer.
func NewPacer(delay, jitter time.Duration) *Pacer {
	return &Pacer{delay: delay, jitter: jitter}
}

// Wait blocks until the next request may be issued or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	first := !p.started
	p.started = true
	p.mu.Unlock()

	if first {
		return ctx.Err()
	}

	return sleepContext(ctx, p.next())
}

func (p *Pacer) next() time.Duration {
	d := p.delay
	if p.jitter > 0 {
		d += time.Duration(rand.Int64N(int64(p.jitter) + 1))
	}

	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
