package app

import (
	"context"
	"sync"
	"time"
)

// Countdown drives a tick callback from a clock until the callback returns
// false, the context is canceled, or Stop is called.
type Countdown struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartCountdown ticks fn every interval on a time.Ticker.
func StartCountdown(ctx context.Context, interval time.Duration, fn func() bool) *Countdown {
	ticker := time.NewTicker(interval)
	c := RunCountdown(ctx, ticker.C, fn)
	go func() {
		<-c.done
		ticker.Stop()
	}()
	return c
}

// RunCountdown ticks fn for every value received from ticks.
func RunCountdown(ctx context.Context, ticks <-chan time.Time, fn func() bool) *Countdown {
	c := &Countdown{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(c.done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-ticks:
				// Stop may race with a pending tick; stop wins.
				select {
				case <-c.stop:
					return
				default:
				}
				if !fn() {
					return
				}
			}
		}
	}()
	return c
}

// Stop signals the countdown to exit. It does not wait, so it is safe to
// call while holding a lock the tick callback needs.
func (c *Countdown) Stop() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.stop) })
}

// Done is closed once the countdown goroutine has exited.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}
