package streaming

import (
	"testing"

	"github.com/gabapcia/paystream/internal/vesting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_UpdateDetails(t *testing.T) {
	setup := func(t *testing.T) (*service, *ledgerFake, uint64) {
		svc, ledger, _, _ := newTestService(t)
		id, err := svc.CreateStream(t.Context(), sender, recipient, 5, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.NoError(t, err)
		return svc, ledger, id
	}

	t.Run("should amend rate and timeframe when the other party signed", func(t *testing.T) {
		svc, ledger, id := setup(t)
		ctx := t.Context()

		proposed := vesting.Timeframe{Start: 0, Stop: 4}
		digest, err := svc.ConsentDigest(ctx, id, 2, proposed)
		require.NoError(t, err)

		// The sender signs off-chain, the recipient submits.
		err = svc.UpdateDetails(ctx, id, 2, proposed, sender, signDigest(digest, 's'), recipient)
		require.NoError(t, err)

		stream := ledger.streams[id]
		assert.Equal(t, uint64(2), stream.PaymentPerBlock)
		assert.Equal(t, proposed, stream.Timeframe)
		assert.Equal(t, uint64(5), stream.Balance)
		assert.Zero(t, stream.WithdrawnBalance)
	})

	t.Run("should accept the symmetric pairing", func(t *testing.T) {
		svc, _, id := setup(t)
		ctx := t.Context()

		proposed := vesting.Timeframe{Start: 1, Stop: 9}
		digest, err := svc.ConsentDigest(ctx, id, 3, proposed)
		require.NoError(t, err)

		// The recipient signs off-chain, the sender submits.
		err = svc.UpdateDetails(ctx, id, 3, proposed, recipient, signDigest(digest, 'r'), sender)
		require.NoError(t, err)
	})

	t.Run("should reject a self-signed update even with a valid signature", func(t *testing.T) {
		svc, ledger, id := setup(t)
		ctx := t.Context()

		proposed := vesting.Timeframe{Start: 0, Stop: 4}
		digest, err := svc.ConsentDigest(ctx, id, 2, proposed)
		require.NoError(t, err)

		err = svc.UpdateDetails(ctx, id, 2, proposed, sender, signDigest(digest, 's'), sender)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, uint64(1), ledger.streams[id].PaymentPerBlock)
	})

	t.Run("should reject a signer who is not a party of the stream", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		ctx := t.Context()

		id, err := svc.CreateStream(ctx, sender, recipient, 5, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.NoError(t, err)

		// The stranger's signature is structurally valid and recovers
		// correctly, but the stranger is not a party of the stream.
		proposed := vesting.Timeframe{Start: 0, Stop: 4}
		digest, err := svc.ConsentDigest(ctx, id, 2, proposed)
		require.NoError(t, err)

		err = svc.UpdateDetails(ctx, id, 2, proposed, stranger, signDigest(digest, 'x'), sender)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("should reject a signature produced for another stream", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		ctx := t.Context()

		first, err := svc.CreateStream(ctx, sender, recipient, 5, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.NoError(t, err)
		second, err := svc.CreateStream(ctx, sender, recipient, 5, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.NoError(t, err)

		proposed := vesting.Timeframe{Start: 0, Stop: 4}
		digest, err := svc.ConsentDigest(ctx, first, 2, proposed)
		require.NoError(t, err)

		err = svc.UpdateDetails(ctx, second, 2, proposed, sender, signDigest(digest, 's'), recipient)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("should reject a signature for different proposed parameters", func(t *testing.T) {
		svc, _, id := setup(t)
		ctx := t.Context()

		digest, err := svc.ConsentDigest(ctx, id, 2, vesting.Timeframe{Start: 0, Stop: 4})
		require.NoError(t, err)

		err = svc.UpdateDetails(ctx, id, 3, vesting.Timeframe{Start: 0, Stop: 4}, sender, signDigest(digest, 's'), recipient)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("should reject a signature issued before the record changed", func(t *testing.T) {
		svc, _, id := setup(t)
		ctx := t.Context()

		proposed := vesting.Timeframe{Start: 0, Stop: 4}
		digest, err := svc.ConsentDigest(ctx, id, 2, proposed)
		require.NoError(t, err)
		stale := signDigest(digest, 's')

		// A refuel mutates the stored record, invalidating the digest.
		_, err = svc.Refuel(ctx, id, 5, sender)
		require.NoError(t, err)

		err = svc.UpdateDetails(ctx, id, 2, proposed, sender, stale, recipient)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("should reject a malformed signature", func(t *testing.T) {
		svc, _, id := setup(t)

		err := svc.UpdateDetails(t.Context(), id, 2, vesting.Timeframe{Start: 0, Stop: 4}, sender, []byte("garbage"), recipient)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("should re-validate the proposed timeframe", func(t *testing.T) {
		svc, _, id := setup(t)
		ctx := t.Context()

		proposed := vesting.Timeframe{Start: 4, Stop: 4}
		err := svc.UpdateDetails(ctx, id, 2, proposed, sender, []byte("unchecked"), recipient)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidTimeframe)
	})

	t.Run("should report a missing stream", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		err := svc.UpdateDetails(t.Context(), 42, 2, vesting.Timeframe{Start: 0, Stop: 4}, sender, []byte("x"), recipient)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStreamNotFound)
	})
}
