package streaming

import (
	"context"
	"errors"

	"github.com/gabapcia/paystream/internal/pkg/logger"
	"github.com/gabapcia/paystream/internal/vesting"

	"github.com/google/uuid"
)

// ErrStreamStillActive is returned when a refund is attempted before the
// stream's stop height has passed.
var ErrStreamStillActive = errors.New("stream is still active")

// CreateStream implements the sole creation transition. The deposit is
// debited from the sender before the record is written; if the record write
// fails, the deposit is returned so no funds are stranded in custody.
func (s *service) CreateStream(ctx context.Context, sender, recipient string, initialBalance uint64, tf vesting.Timeframe, rate uint64) (uint64, error) {
	stream, err := buildStream(sender, recipient, initialBalance, tf, rate)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	opID := uuid.Must(uuid.NewV7()).String()

	if err := s.vault.Transfer(ctx, initialBalance, sender, s.custodyAccount); err != nil {
		return 0, err
	}

	id, err := s.streamStorage.CreateStream(ctx, stream)
	if err != nil {
		if rbErr := s.vault.Transfer(ctx, initialBalance, s.custodyAccount, sender); rbErr != nil {
			logger.Error(ctx, "failed to return deposit after create rollback",
				"operation.id", opID,
				"stream.sender", sender,
				"error", rbErr,
			)
		}
		return 0, err
	}

	logger.Info(ctx, "stream created",
		"operation.id", opID,
		"stream.id", id,
		"stream.sender", sender,
		"stream.recipient", recipient,
		"stream.balance", initialBalance,
	)
	return id, nil
}

// Refuel adds funds to an existing stream. Only the sender may refuel, and
// the incoming transfer runs before the record mutation so a failed transfer
// leaves no record change.
func (s *service) Refuel(ctx context.Context, id uint64, amount uint64, caller string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, err := s.streamStorage.GetStream(ctx, id)
	if err != nil {
		return 0, err
	}

	if !stream.isSender(caller) {
		return 0, ErrUnauthorized
	}

	if amount == 0 {
		return 0, ErrInvalidAmount
	}

	opID := uuid.Must(uuid.NewV7()).String()

	if err := s.vault.Transfer(ctx, amount, caller, s.custodyAccount); err != nil {
		return 0, err
	}

	stream.Balance += amount
	if err := s.streamStorage.SaveStream(ctx, stream); err != nil {
		if rbErr := s.vault.Transfer(ctx, amount, s.custodyAccount, caller); rbErr != nil {
			logger.Error(ctx, "failed to return deposit after refuel rollback",
				"operation.id", opID,
				"stream.id", id,
				"error", rbErr,
			)
		}
		return 0, err
	}

	logger.Info(ctx, "stream refueled",
		"operation.id", opID,
		"stream.id", id,
		"stream.balance", stream.Balance,
	)
	return amount, nil
}

// Withdraw pays the vested-but-unclaimed portion out to the recipient. The
// payout is capped at the stream's custodied balance so an underfunded
// stream can never drain value locked for other streams.
func (s *service) Withdraw(ctx context.Context, id uint64, caller string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, err := s.streamStorage.GetStream(ctx, id)
	if err != nil {
		return 0, err
	}

	if !stream.isRecipient(caller) {
		return 0, ErrUnauthorized
	}

	now, err := s.clock.CurrentHeight(ctx)
	if err != nil {
		return 0, err
	}

	amount := vesting.RecipientClaimable(stream.Timeframe, stream.PaymentPerBlock, stream.WithdrawnBalance, now)
	if amount > stream.Balance {
		amount = stream.Balance
	}

	if amount == 0 {
		return 0, nil
	}

	previous := stream
	stream.WithdrawnBalance += amount
	stream.Balance -= amount

	opID := uuid.Must(uuid.NewV7()).String()

	if err := s.streamStorage.SaveStream(ctx, stream); err != nil {
		return 0, err
	}

	if err := s.vault.Transfer(ctx, amount, s.custodyAccount, stream.Recipient); err != nil {
		if rbErr := s.streamStorage.SaveStream(ctx, previous); rbErr != nil {
			logger.Error(ctx, "failed to restore record after withdraw rollback",
				"operation.id", opID,
				"stream.id", id,
				"error", rbErr,
			)
		}
		return 0, err
	}

	logger.Info(ctx, "stream withdrawal paid",
		"operation.id", opID,
		"stream.id", id,
		"stream.paid", amount,
		"stream.withdrawn", stream.WithdrawnBalance,
	)
	return amount, nil
}

// Refund returns the unvested excess to the sender once the stream has
// matured. Like Withdraw, a zero excess is a successful no-op.
func (s *service) Refund(ctx context.Context, id uint64, caller string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, err := s.streamStorage.GetStream(ctx, id)
	if err != nil {
		return 0, err
	}

	if !stream.isSender(caller) {
		return 0, ErrUnauthorized
	}

	now, err := s.clock.CurrentHeight(ctx)
	if err != nil {
		return 0, err
	}

	if now <= stream.Timeframe.Stop {
		return 0, ErrStreamStillActive
	}

	amount := vesting.SenderExcess(stream.Timeframe, stream.PaymentPerBlock, stream.Balance, stream.WithdrawnBalance, now)
	if amount == 0 {
		return 0, nil
	}

	previous := stream
	stream.Balance -= amount

	opID := uuid.Must(uuid.NewV7()).String()

	if err := s.streamStorage.SaveStream(ctx, stream); err != nil {
		return 0, err
	}

	if err := s.vault.Transfer(ctx, amount, s.custodyAccount, stream.Sender); err != nil {
		if rbErr := s.streamStorage.SaveStream(ctx, previous); rbErr != nil {
			logger.Error(ctx, "failed to restore record after refund rollback",
				"operation.id", opID,
				"stream.id", id,
				"error", rbErr,
			)
		}
		return 0, err
	}

	logger.Info(ctx, "stream excess refunded",
		"operation.id", opID,
		"stream.id", id,
		"stream.refunded", amount,
		"stream.balance", stream.Balance,
	)
	return amount, nil
}
