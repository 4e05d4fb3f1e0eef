// Package streaming implements the value-streaming ledger engine: a sender
// locks native-asset units into a time-gated vesting schedule for a
// recipient, either party can add funds mid-stream, the recipient withdraws
// the vested-but-unclaimed portion at any time, the sender reclaims the
// unvested excess once the schedule ends, and both parties can jointly amend
// the schedule through one on-chain call carrying the other party's off-chain
// signature.
//
// The engine treats the surrounding ledger as an external collaborator,
// reached through three ports: StreamStorage (the record table and id
// counter), AssetVault (atomic debit/credit), and BlockClock (the monotonic
// time counter). Signature recovery comes from consent.SignerRecovery.
package streaming

import (
	"context"
	"sync"

	"github.com/gabapcia/paystream/internal/consent"
	"github.com/gabapcia/paystream/internal/vesting"
)

// defaultCustodyAccount is the vault account that holds locked stream funds
// when no custom custody account is configured.
const defaultCustodyAccount = "paystream:custody"

// Service exposes the streaming engine's public entry points: the five
// mutating operations plus the three read operations the registration
// subsystem and UI layers consume.
type Service interface {
	// CreateStream locks initialBalance units from sender into a new stream
	// vesting toward recipient at rate units per block between tf.Start and
	// tf.Stop. The deposit is debited atomically with the record write.
	//
	// Returns:
	//   - The identifier assigned to the new stream.
	//   - ErrInvalidTimeframe when tf.Stop does not exceed tf.Start.
	//   - ErrInvalidAmount when initialBalance is zero.
	CreateStream(ctx context.Context, sender, recipient string, initialBalance uint64, tf vesting.Timeframe, rate uint64) (uint64, error)

	// Refuel adds amount units to an existing stream without changing its
	// rate or timeframe. Only the stream's sender may refuel.
	//
	// Returns:
	//   - The amount added.
	//   - ErrStreamNotFound, ErrUnauthorized, or ErrInvalidAmount.
	Refuel(ctx context.Context, id uint64, amount uint64, caller string) (uint64, error)

	// Withdraw pays the vested-but-unclaimed portion of the stream out to
	// its recipient. A zero payout is a success, not an error: calling
	// Withdraw before the schedule starts, or twice at the same height, is
	// a valid no-op.
	//
	// Returns:
	//   - The amount paid out.
	//   - ErrStreamNotFound or ErrUnauthorized.
	Withdraw(ctx context.Context, id uint64, caller string) (uint64, error)

	// Refund returns the unvested excess to the stream's sender. It is only
	// available once the current height exceeds the schedule's stop.
	//
	// Returns:
	//   - The amount refunded.
	//   - ErrStreamNotFound, ErrUnauthorized, or ErrStreamStillActive.
	Refund(ctx context.Context, id uint64, caller string) (uint64, error)

	// UpdateDetails replaces a stream's rate and timeframe under dual
	// consent: caller must be one party of the stream and signature must
	// recover, over the consent digest of the stored record and the
	// proposal, to the other party. Balances are untouched.
	//
	// Returns ErrStreamNotFound, ErrInvalidTimeframe, ErrInvalidSignature,
	// or ErrUnauthorized.
	UpdateDetails(ctx context.Context, id uint64, rate uint64, tf vesting.Timeframe, signer string, signature []byte, caller string) error

	// ClaimableBalance reports what the given account could claim from the
	// stream right now: the vested-but-unclaimed portion for the recipient,
	// the unvested excess for the sender, and zero for anyone else. A
	// missing stream yields zero, not an error.
	ClaimableBalance(ctx context.Context, id uint64, account string) (uint64, error)

	// ConsentDigest returns the digest one party must sign off-chain to
	// consent to the proposed rate and timeframe for the stream. It fails
	// with ErrStreamNotFound rather than hashing a sentinel record.
	ConsentDigest(ctx context.Context, id uint64, rate uint64, tf vesting.Timeframe) ([32]byte, error)

	// VerifySignature reports whether signature over digest recovers to the
	// claimed signer. Malformed signatures yield false, never an error.
	VerifySignature(ctx context.Context, digest [32]byte, signature []byte, signer string) bool
}

// service is the concrete implementation of the Service interface.
//
// A single mutex serializes the mutating operations, mirroring the
// all-or-nothing, fully serialized transaction model of the execution
// environment the engine was designed for.
type service struct {
	mu sync.Mutex // serializes mutating operations

	streamStorage StreamStorage          // stream record table and id counter
	vault         AssetVault             // native-asset debit/credit
	clock         BlockClock             // monotonic block height source
	recovery      consent.SignerRecovery // signature-recovery primitive

	custodyAccount string // vault account holding locked stream funds
}

// Ensure compile-time compliance with the Service interface.
var _ Service = (*service)(nil)

// config holds the options applied by New.
type config struct {
	custodyAccount string
}

// Option customizes the streaming service.
type Option func(*config)

// WithCustodyAccount overrides the vault account used to hold locked stream
// funds. Default: "paystream:custody".
func WithCustodyAccount(account string) Option {
	return func(c *config) {
		c.custodyAccount = account
	}
}

// New creates a streaming service backed by the given storage, vault, clock,
// and signature-recovery implementations.
//
// This constructor is intended to be used by dependency injection during
// application wiring.
func New(ss StreamStorage, vault AssetVault, clock BlockClock, recovery consent.SignerRecovery, opts ...Option) *service {
	cfg := config{
		custodyAccount: defaultCustodyAccount,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		streamStorage:  ss,
		vault:          vault,
		clock:          clock,
		recovery:       recovery,
		custodyAccount: cfg.custodyAccount,
	}
}
