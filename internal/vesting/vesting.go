// Package vesting holds the pure arithmetic behind payment streams: how much
// schedule time has elapsed, how much value has vested, and what each party
// of a stream can claim at a given block height.
//
// Every function is total. Subtractions saturate at zero and multiplications
// saturate at the maximum uint64 so adversarial inputs (clock skew, rates
// amended mid-stream) can never underflow or overflow.
package vesting

import "math/bits"

// Timeframe bounds a vesting schedule between two block heights. Vesting
// begins after Start and stops accruing at Stop.
type Timeframe struct {
	Start uint64 // height at which vesting begins
	Stop  uint64 // height at which vesting saturates
}

// Valid reports whether the timeframe describes a positive duration.
func (tf Timeframe) Valid() bool {
	return tf.Stop > tf.Start
}

// Elapsed returns the number of vested blocks at the given height: zero
// before Start, now−Start while the stream is active, and Stop−Start once
// the stream has matured.
func (tf Timeframe) Elapsed(now uint64) uint64 {
	switch {
	case now <= tf.Start:
		return 0
	case now >= tf.Stop:
		return tf.Stop - tf.Start
	default:
		return now - tf.Start
	}
}

// Vested returns the total amount released to the recipient side of a stream
// at the given height: elapsed blocks times the per-block rate, saturating
// at the maximum uint64.
func Vested(tf Timeframe, rate, now uint64) uint64 {
	return saturatingMul(tf.Elapsed(now), rate)
}

// RecipientClaimable returns the vested-but-unclaimed portion of a stream:
// Vested minus what has already been withdrawn. The subtraction saturates at
// zero; withdrawn can never legitimately exceed vested, but the calculator
// must not trust its inputs.
func RecipientClaimable(tf Timeframe, rate, withdrawn, now uint64) uint64 {
	return saturatingSub(Vested(tf, rate, now), withdrawn)
}

// SenderExcess returns the portion of the custodied balance that will never
// vest: balance minus the vested-but-unclaimed remainder owed to the
// recipient. The balance argument is the amount still physically held for
// the stream, so funds already withdrawn are excluded on both sides.
//
// The result is only meaningful (and only refundable) once now exceeds the
// timeframe's Stop.
func SenderExcess(tf Timeframe, rate, balance, withdrawn, now uint64) uint64 {
	return saturatingSub(balance, RecipientClaimable(tf, rate, withdrawn, now))
}

// saturatingSub returns a−b, or zero when b exceeds a.
func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// saturatingMul returns a×b, clamped to the maximum uint64 on overflow.
func saturatingMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 1<<64 - 1
	}
	return lo
}
