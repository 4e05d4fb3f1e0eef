package streaming

import (
	"context"
	"errors"

	"github.com/gabapcia/paystream/internal/consent"
	"github.com/gabapcia/paystream/internal/vesting"
)

// ClaimableBalance reports what account could claim from the stream at the
// current height. Unrelated parties and missing streams yield zero; the read
// surface never fails on a bad identifier.
func (s *service) ClaimableBalance(ctx context.Context, id uint64, account string) (uint64, error) {
	stream, err := s.streamStorage.GetStream(ctx, id)
	if errors.Is(err, ErrStreamNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	now, err := s.clock.CurrentHeight(ctx)
	if err != nil {
		return 0, err
	}

	switch {
	case stream.isRecipient(account):
		amount := vesting.RecipientClaimable(stream.Timeframe, stream.PaymentPerBlock, stream.WithdrawnBalance, now)
		if amount > stream.Balance {
			amount = stream.Balance
		}
		return amount, nil
	case stream.isSender(account):
		return vesting.SenderExcess(stream.Timeframe, stream.PaymentPerBlock, stream.Balance, stream.WithdrawnBalance, now), nil
	default:
		return 0, nil
	}
}

// ConsentDigest returns the digest a party signs to consent to the proposed
// rate and timeframe. It fails closed on a missing stream instead of hashing
// a sentinel record, so no signable digest exists for unallocated ids.
func (s *service) ConsentDigest(ctx context.Context, id uint64, rate uint64, tf vesting.Timeframe) ([32]byte, error) {
	stream, err := s.streamStorage.GetStream(ctx, id)
	if err != nil {
		return [32]byte{}, err
	}

	proposal := consent.Proposal{Rate: rate, Timeframe: tf}
	return consent.Digest(stream.consentState(), proposal), nil
}

// VerifySignature exposes the consent signature check to external callers.
func (s *service) VerifySignature(ctx context.Context, digest [32]byte, signature []byte, signer string) bool {
	return consent.Verify(ctx, s.recovery, digest, signature, signer)
}
