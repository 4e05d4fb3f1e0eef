package streaming

import (
	"context"
	"errors"
	"strings"

	"github.com/gabapcia/paystream/internal/consent"
	"github.com/gabapcia/paystream/internal/pkg/logger"
	"github.com/gabapcia/paystream/internal/vesting"

	"github.com/google/uuid"
)

// ErrInvalidSignature is returned when the submitted signature does not
// recover to the claimed signer over the consent digest of the stored record
// and the proposed parameters.
var ErrInvalidSignature = errors.New("invalid consent signature")

// UpdateDetails amends a stream's rate and timeframe under dual consent.
//
// The digest is recomputed here over the currently stored record, never
// taken from the caller: a signature produced for another stream, for other
// parameters, or before the record last changed recovers against a different
// digest and fails. The caller must be one party of the stream and the
// proven signer the other; self-signed updates are rejected outright.
func (s *service) UpdateDetails(ctx context.Context, id uint64, rate uint64, tf vesting.Timeframe, signer string, signature []byte, caller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, err := s.streamStorage.GetStream(ctx, id)
	if err != nil {
		return err
	}

	if !tf.Valid() {
		return ErrInvalidTimeframe
	}

	proposal := consent.Proposal{Rate: rate, Timeframe: tf}
	digest := consent.Digest(stream.consentState(), proposal)

	if !consent.Verify(ctx, s.recovery, digest, signature, signer) {
		return ErrInvalidSignature
	}

	if strings.EqualFold(caller, signer) {
		return ErrUnauthorized
	}

	bothParties := (stream.isSender(caller) && stream.isRecipient(signer)) ||
		(stream.isRecipient(caller) && stream.isSender(signer))
	if !bothParties {
		return ErrUnauthorized
	}

	stream.PaymentPerBlock = rate
	stream.Timeframe = tf
	if err := s.streamStorage.SaveStream(ctx, stream); err != nil {
		return err
	}

	logger.Info(ctx, "stream details updated",
		"operation.id", uuid.Must(uuid.NewV7()).String(),
		"stream.id", id,
		"stream.rate", rate,
		"stream.start", tf.Start,
		"stream.stop", tf.Stop,
	)
	return nil
}
