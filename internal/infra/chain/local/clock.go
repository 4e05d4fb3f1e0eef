// Package local provides a wall-clock-driven block clock for running the
// engine without a ledger node. Heights advance at a fixed interval from a
// genesis instant, so vesting schedules behave the same way they would
// against a real chain.
package local

import (
	"context"
	"time"

	"github.com/gabapcia/paystream/internal/streaming"
)

type clock struct {
	genesis  time.Time
	interval time.Duration
	now      func() time.Time // swapped out by tests
}

// NewClock returns a block clock whose height is the number of whole
// intervals elapsed since genesis. Heights before genesis read as zero.
func NewClock(genesis time.Time, interval time.Duration) *clock {
	if interval <= 0 {
		interval = time.Second
	}

	return &clock{
		genesis:  genesis,
		interval: interval,
		now:      time.Now,
	}
}

func (c *clock) CurrentHeight(ctx context.Context) (uint64, error) {
	elapsed := c.now().Sub(c.genesis)
	if elapsed < 0 {
		return 0, nil
	}

	return uint64(elapsed / c.interval), nil
}

// Compile-time assertion to ensure *clock satisfies the engine's clock port
var _ streaming.BlockClock = new(clock)
