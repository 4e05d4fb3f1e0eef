package streaming

import (
	"errors"
	"testing"

	"github.com/gabapcia/paystream/internal/vesting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sender    = "0xSender"
	recipient = "0xRecipient"
	stranger  = "0xStranger"
)

// newTestService wires a service against fresh fakes. The sender starts with
// 100 units so deposits are coverable unless a test drains them.
func newTestService(t *testing.T) (*service, *ledgerFake, *vaultFake, *clockFake) {
	t.Helper()

	ledger := newLedgerFake()
	vault := newVaultFake(map[string]uint64{sender: 100})
	clock := &clockFake{}
	recovery := &recoveryFake{identities: map[byte]string{
		's': sender,
		'r': recipient,
		'x': stranger,
	}}

	return New(ledger, vault, clock, recovery), ledger, vault, clock
}

func TestService_CreateStream(t *testing.T) {
	t.Run("should create a stream and assign sequential identifiers", func(t *testing.T) {
		svc, ledger, vault, _ := newTestService(t)
		ctx := t.Context()

		id, err := svc.CreateStream(ctx, sender, recipient, 5, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), id)

		stream := ledger.streams[id]
		assert.Equal(t, sender, stream.Sender)
		assert.Equal(t, recipient, stream.Recipient)
		assert.Equal(t, uint64(5), stream.Balance)
		assert.Zero(t, stream.WithdrawnBalance)

		assert.Equal(t, uint64(5), vault.balances[defaultCustodyAccount])
		assert.Equal(t, uint64(95), vault.balances[sender])

		next, err := svc.CreateStream(ctx, sender, recipient, 5, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), next)
	})

	t.Run("should reject a timeframe with no positive duration", func(t *testing.T) {
		svc, ledger, _, _ := newTestService(t)

		_, err := svc.CreateStream(t.Context(), sender, recipient, 5, vesting.Timeframe{Start: 5, Stop: 5}, 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidTimeframe)
		assert.Empty(t, ledger.streams)
	})

	t.Run("should reject a zero initial deposit", func(t *testing.T) {
		svc, ledger, _, _ := newTestService(t)

		_, err := svc.CreateStream(t.Context(), sender, recipient, 0, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Empty(t, ledger.streams)
	})

	t.Run("should create no record when the deposit cannot be covered", func(t *testing.T) {
		svc, ledger, vault, _ := newTestService(t)

		_, err := svc.CreateStream(t.Context(), sender, recipient, 1000, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.Error(t, err)
		assert.Empty(t, ledger.streams)
		assert.Equal(t, uint64(100), vault.balances[sender])
	})

	t.Run("should return the deposit when the record write fails", func(t *testing.T) {
		svc, ledger, vault, _ := newTestService(t)
		ledger.failCreate = errors.New("storage down")

		_, err := svc.CreateStream(t.Context(), sender, recipient, 5, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.Error(t, err)
		assert.Equal(t, uint64(100), vault.balances[sender])
		assert.Zero(t, vault.balances[defaultCustodyAccount])
	})
}

func TestService_Refuel(t *testing.T) {
	setup := func(t *testing.T) (*service, *ledgerFake, *vaultFake, uint64) {
		svc, ledger, vault, _ := newTestService(t)
		id, err := svc.CreateStream(t.Context(), sender, recipient, 5, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.NoError(t, err)
		return svc, ledger, vault, id
	}

	t.Run("should add funds to the stream balance", func(t *testing.T) {
		svc, ledger, vault, id := setup(t)

		added, err := svc.Refuel(t.Context(), id, 5, sender)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), added)
		assert.Equal(t, uint64(10), ledger.streams[id].Balance)
		assert.Equal(t, uint64(10), vault.balances[defaultCustodyAccount])
	})

	t.Run("should fail closed when called by a third party", func(t *testing.T) {
		svc, ledger, vault, id := setup(t)
		vault.balances[stranger] = 50

		_, err := svc.Refuel(t.Context(), id, 5, stranger)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, uint64(5), ledger.streams[id].Balance)
		assert.Equal(t, uint64(50), vault.balances[stranger])
	})

	t.Run("should fail closed when called by the recipient", func(t *testing.T) {
		svc, _, vault, id := setup(t)
		vault.balances[recipient] = 50

		_, err := svc.Refuel(t.Context(), id, 5, recipient)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("should reject a zero amount", func(t *testing.T) {
		svc, _, _, id := setup(t)

		_, err := svc.Refuel(t.Context(), id, 0, sender)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("should report a missing stream", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		_, err := svc.Refuel(t.Context(), 42, 5, sender)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStreamNotFound)
	})

	t.Run("should return the deposit when the record write fails", func(t *testing.T) {
		svc, ledger, vault, id := setup(t)
		ledger.failSave = errors.New("storage down")

		_, err := svc.Refuel(t.Context(), id, 5, sender)
		require.Error(t, err)
		assert.Equal(t, uint64(5), ledger.streams[id].Balance)
		assert.Equal(t, uint64(5), vault.balances[defaultCustodyAccount])
		assert.Equal(t, uint64(95), vault.balances[sender])
	})
}

func TestService_Withdraw(t *testing.T) {
	setup := func(t *testing.T) (*service, *ledgerFake, *vaultFake, *clockFake, uint64) {
		svc, ledger, vault, clock := newTestService(t)
		id, err := svc.CreateStream(t.Context(), sender, recipient, 5, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.NoError(t, err)
		return svc, ledger, vault, clock, id
	}

	t.Run("should pay the vested portion to the recipient", func(t *testing.T) {
		svc, ledger, vault, clock, id := setup(t)
		clock.height = 4

		paid, err := svc.Withdraw(t.Context(), id, recipient)
		require.NoError(t, err)
		assert.Equal(t, uint64(4), paid)
		assert.Equal(t, uint64(4), ledger.streams[id].WithdrawnBalance)
		assert.Equal(t, uint64(1), ledger.streams[id].Balance)
		assert.Equal(t, uint64(4), vault.balances[recipient])
	})

	t.Run("should pay zero on an immediate second call", func(t *testing.T) {
		svc, ledger, _, clock, id := setup(t)
		clock.height = 4

		paid, err := svc.Withdraw(t.Context(), id, recipient)
		require.NoError(t, err)
		assert.Equal(t, uint64(4), paid)

		again, err := svc.Withdraw(t.Context(), id, recipient)
		require.NoError(t, err)
		assert.Zero(t, again)
		assert.Equal(t, uint64(4), ledger.streams[id].WithdrawnBalance)
	})

	t.Run("should pay zero before the schedule starts", func(t *testing.T) {
		svc, _, _, clock := newTestService(t)
		id, err := svc.CreateStream(t.Context(), sender, recipient, 5, vesting.Timeframe{Start: 10, Stop: 20}, 1)
		require.NoError(t, err)
		clock.height = 3

		paid, err := svc.Withdraw(t.Context(), id, recipient)
		require.NoError(t, err)
		assert.Zero(t, paid)
	})

	t.Run("should never decrease the withdrawn balance", func(t *testing.T) {
		svc, ledger, _, clock, id := setup(t)

		var last uint64
		for _, height := range []uint64{0, 2, 2, 3, 7, 7} {
			clock.height = height
			_, err := svc.Withdraw(t.Context(), id, recipient)
			require.NoError(t, err)

			withdrawn := ledger.streams[id].WithdrawnBalance
			assert.GreaterOrEqual(t, withdrawn, last)
			last = withdrawn
		}
		assert.Equal(t, uint64(5), last)
	})

	t.Run("should cap the payout at the custodied balance", func(t *testing.T) {
		svc, ledger, _, clock := newTestService(t)
		// Deposit of 5 against a schedule that vests 10 per block.
		id, err := svc.CreateStream(t.Context(), sender, recipient, 5, vesting.Timeframe{Start: 0, Stop: 5}, 10)
		require.NoError(t, err)
		clock.height = 3

		paid, err := svc.Withdraw(t.Context(), id, recipient)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), paid)
		assert.Zero(t, ledger.streams[id].Balance)
	})

	t.Run("should fail closed when called by anyone but the recipient", func(t *testing.T) {
		svc, ledger, _, clock, id := setup(t)
		clock.height = 4

		for _, caller := range []string{sender, stranger} {
			_, err := svc.Withdraw(t.Context(), id, caller)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnauthorized)
		}
		assert.Zero(t, ledger.streams[id].WithdrawnBalance)
	})

	t.Run("should report a missing stream", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		_, err := svc.Withdraw(t.Context(), 42, recipient)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStreamNotFound)
	})

	t.Run("should restore the record when the payout transfer fails", func(t *testing.T) {
		svc, ledger, vault, clock, id := setup(t)
		clock.height = 4
		vault.failNext = errors.New("vault down")

		_, err := svc.Withdraw(t.Context(), id, recipient)
		require.Error(t, err)
		assert.Zero(t, ledger.streams[id].WithdrawnBalance)
		assert.Equal(t, uint64(5), ledger.streams[id].Balance)
		assert.Zero(t, vault.balances[recipient])
	})
}

func TestService_Refund(t *testing.T) {
	t.Run("should reject a refund while the stream is active", func(t *testing.T) {
		svc, _, _, clock := newTestService(t)
		id, err := svc.CreateStream(t.Context(), sender, recipient, 5, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.NoError(t, err)

		for _, height := range []uint64{0, 4, 5} {
			clock.height = height
			_, err := svc.Refund(t.Context(), id, sender)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStreamStillActive)
		}
	})

	t.Run("should refund the unvested excess after maturity", func(t *testing.T) {
		svc, ledger, vault, clock := newTestService(t)
		ctx := t.Context()

		// Deposit 5 at rate 1 over {0,5}, refuel to 10, withdraw 4 at
		// height 4, refuel to a total of 15 deposited, then drain the
		// remaining vested unit after maturity.
		id, err := svc.CreateStream(ctx, sender, recipient, 5, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.NoError(t, err)

		_, err = svc.Refuel(ctx, id, 5, sender)
		require.NoError(t, err)

		clock.height = 4
		paid, err := svc.Withdraw(ctx, id, recipient)
		require.NoError(t, err)
		require.Equal(t, uint64(4), paid)

		_, err = svc.Refuel(ctx, id, 5, sender)
		require.NoError(t, err)

		clock.height = 6
		paid, err = svc.Withdraw(ctx, id, recipient)
		require.NoError(t, err)
		require.Equal(t, uint64(1), paid)

		refunded, err := svc.Refund(ctx, id, sender)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), refunded)
		assert.Zero(t, ledger.streams[id].Balance)
		assert.Equal(t, uint64(5), ledger.streams[id].WithdrawnBalance)
		assert.Zero(t, vault.balances[defaultCustodyAccount])
		assert.Equal(t, uint64(95), vault.balances[sender])
		assert.Equal(t, uint64(5), vault.balances[recipient])
	})

	t.Run("should reserve the recipient's unclaimed vested portion", func(t *testing.T) {
		svc, ledger, _, clock := newTestService(t)
		id, err := svc.CreateStream(t.Context(), sender, recipient, 8, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.NoError(t, err)

		// Nothing withdrawn yet: 5 of the 8 custodied units are owed.
		clock.height = 6
		refunded, err := svc.Refund(t.Context(), id, sender)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), refunded)
		assert.Equal(t, uint64(5), ledger.streams[id].Balance)

		paid, err := svc.Withdraw(t.Context(), id, recipient)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), paid)
	})

	t.Run("should pay zero when there is no excess", func(t *testing.T) {
		svc, _, _, clock := newTestService(t)
		id, err := svc.CreateStream(t.Context(), sender, recipient, 5, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.NoError(t, err)

		clock.height = 10
		_, err = svc.Withdraw(t.Context(), id, recipient)
		require.NoError(t, err)

		refunded, err := svc.Refund(t.Context(), id, sender)
		require.NoError(t, err)
		assert.Zero(t, refunded)
	})

	t.Run("should fail closed when called by anyone but the sender", func(t *testing.T) {
		svc, ledger, _, clock := newTestService(t)
		id, err := svc.CreateStream(t.Context(), sender, recipient, 5, vesting.Timeframe{Start: 0, Stop: 5}, 1)
		require.NoError(t, err)
		clock.height = 6

		for _, caller := range []string{recipient, stranger} {
			_, err := svc.Refund(t.Context(), id, caller)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnauthorized)
		}
		assert.Equal(t, uint64(5), ledger.streams[id].Balance)
	})

	t.Run("should report a missing stream", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		_, err := svc.Refund(t.Context(), 42, sender)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStreamNotFound)
	})
}
