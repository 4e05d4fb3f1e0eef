package streaming

import (
	"errors"
	"strings"

	"github.com/gabapcia/paystream/internal/consent"
	"github.com/gabapcia/paystream/internal/pkg/validator"
	"github.com/gabapcia/paystream/internal/vesting"
)

var (
	// ErrInvalidAmount is returned when an operation is given a zero or
	// otherwise out-of-range amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidTimeframe is returned when a schedule's stop height does not
	// exceed its start height.
	ErrInvalidTimeframe = errors.New("invalid timeframe")

	// ErrUnauthorized is returned when the caller is not the party required
	// for the requested operation.
	ErrUnauthorized = errors.New("caller is not authorized for this operation")
)

// Stream is a unidirectional, time-vested value transfer from a sender to a
// recipient. Records are keyed by a sequential identifier assigned at
// creation, never reused, and never deleted.
//
// Balance is the amount still physically custodied for this stream: it grows
// on refuel and shrinks on every outgoing transfer, withdraw and refund
// alike. WithdrawnBalance is the cumulative amount ever paid to the
// recipient and is monotonically non-decreasing.
type Stream struct {
	ID               uint64            // sequential identifier assigned by the ledger
	Sender           string            `validate:"required"` // funder account; immutable after creation
	Recipient        string            `validate:"required"` // beneficiary account; immutable after creation
	Balance          uint64            // units currently custodied for this stream
	WithdrawnBalance uint64            // cumulative units already paid to the recipient
	PaymentPerBlock  uint64            // units vested per elapsed block; mutable only via dual consent
	Timeframe        vesting.Timeframe // schedule bounds; mutable only via dual consent
}

// buildStream constructs and validates a new stream record. It returns
// ErrInvalidTimeframe when the schedule has no positive duration and
// ErrInvalidAmount when the initial deposit is zero.
func buildStream(sender, recipient string, initialBalance uint64, tf vesting.Timeframe, rate uint64) (Stream, error) {
	stream := Stream{
		Sender:          sender,
		Recipient:       recipient,
		Balance:         initialBalance,
		PaymentPerBlock: rate,
		Timeframe:       tf,
	}

	if err := validator.Validate(stream); err != nil {
		return Stream{}, err
	}

	if !tf.Valid() {
		return Stream{}, ErrInvalidTimeframe
	}

	if initialBalance == 0 {
		return Stream{}, ErrInvalidAmount
	}

	return stream, nil
}

// isSender reports whether account is the stream's funder. Account
// identifiers are hex addresses and compared case-insensitively.
func (s Stream) isSender(account string) bool {
	return strings.EqualFold(s.Sender, account)
}

// isRecipient reports whether account is the stream's beneficiary.
func (s Stream) isRecipient(account string) bool {
	return strings.EqualFold(s.Recipient, account)
}

// consentState snapshots the record into the form the consent protocol
// hashes. Every mutation of the record invalidates previously issued
// digests, which is exactly the replay protection the update path relies on.
func (s Stream) consentState() consent.StreamState {
	return consent.StreamState{
		ID:        s.ID,
		Sender:    s.Sender,
		Recipient: s.Recipient,
		Balance:   s.Balance,
		Withdrawn: s.WithdrawnBalance,
		Rate:      s.PaymentPerBlock,
		Timeframe: s.Timeframe,
	}
}
