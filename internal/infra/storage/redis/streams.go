package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gabapcia/paystream/internal/streaming"
	"github.com/gabapcia/paystream/internal/vesting"
)

const (
	// streamStoragePrefix is the base key namespace for stream records.
	streamStoragePrefix = "stream"

	// streamNextIDKey holds the identifier counter. INCR on this key is the
	// single source of new stream identifiers, so ids are sequential and
	// never reused even across concurrent writers.
	streamNextIDKey = streamStoragePrefix + ":next-id"
)

// streamRecordKey returns the Redis key under which the record for the given
// stream identifier is stored.
//
// Format: "stream:record:{id}"
func streamRecordKey(id uint64) string {
	return fmt.Sprintf("%s:record:%d", streamStoragePrefix, id)
}

// streamRecordFields flattens a stream record into the hash representation
// stored in Redis.
func streamRecordFields(stream streaming.Stream) map[string]any {
	return map[string]any{
		"sender":    stream.Sender,
		"recipient": stream.Recipient,
		"balance":   stream.Balance,
		"withdrawn": stream.WithdrawnBalance,
		"rate":      stream.PaymentPerBlock,
		"start":     stream.Timeframe.Start,
		"stop":      stream.Timeframe.Stop,
	}
}

// parseStreamRecord rebuilds a stream record from its hash representation.
func parseStreamRecord(id uint64, fields map[string]string) (streaming.Stream, error) {
	numbers := make(map[string]uint64, 5)
	for _, field := range []string{"balance", "withdrawn", "rate", "start", "stop"} {
		value, err := strconv.ParseUint(fields[field], 10, 64)
		if err != nil {
			return streaming.Stream{}, fmt.Errorf("corrupt stream record %d: field %q: %w", id, field, err)
		}
		numbers[field] = value
	}

	return streaming.Stream{
		ID:               id,
		Sender:           fields["sender"],
		Recipient:        fields["recipient"],
		Balance:          numbers["balance"],
		WithdrawnBalance: numbers["withdrawn"],
		PaymentPerBlock:  numbers["rate"],
		Timeframe: vesting.Timeframe{
			Start: numbers["start"],
			Stop:  numbers["stop"],
		},
	}, nil
}

// CreateStream allocates the next sequential identifier through an atomic
// INCR and stores the record hash under it. The counter starts at 1, so the
// first allocated identifier is 0.
func (c *client) CreateStream(ctx context.Context, stream streaming.Stream) (uint64, error) {
	next, err := c.conn.Incr(ctx, streamNextIDKey).Result()
	if err != nil {
		return 0, err
	}

	stream.ID = uint64(next - 1)
	if err := c.conn.HSet(ctx, streamRecordKey(stream.ID), streamRecordFields(stream)).Err(); err != nil {
		return 0, err
	}

	return stream.ID, nil
}

// GetStream loads the record hash stored under the given identifier.
func (c *client) GetStream(ctx context.Context, id uint64) (streaming.Stream, error) {
	fields, err := c.conn.HGetAll(ctx, streamRecordKey(id)).Result()
	if err != nil {
		return streaming.Stream{}, err
	}

	if len(fields) == 0 {
		return streaming.Stream{}, streaming.ErrStreamNotFound
	}

	return parseStreamRecord(id, fields)
}

// SaveStream overwrites the record hash for an existing identifier.
func (c *client) SaveStream(ctx context.Context, stream streaming.Stream) error {
	key := streamRecordKey(stream.ID)

	exists, err := c.conn.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return streaming.ErrStreamNotFound
	}

	return c.conn.HSet(ctx, key, streamRecordFields(stream)).Err()
}

// Compile-time assertion to ensure *client satisfies the streaming.StreamStorage interface
var _ streaming.StreamStorage = new(client)
