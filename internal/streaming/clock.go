package streaming

import "context"

// BlockClock is the engine's read-only view of the environment's time
// counter. Heights are monotonically non-decreasing but may advance by more
// than one unit between observations; the engine never assumes consecutive
// reads differ by exactly one.
type BlockClock interface {
	// CurrentHeight returns the environment's current block height.
	CurrentHeight(ctx context.Context) (uint64, error)
}
