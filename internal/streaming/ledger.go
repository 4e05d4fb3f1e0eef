package streaming

import (
	"context"
	"errors"
)

// ErrStreamNotFound is returned whenever an operation references a stream
// identifier that was never allocated.
var ErrStreamNotFound = errors.New("stream not found")

// StreamStorage is the persistence port for stream records. It owns the
// identifier counter: identifiers are allocated sequentially starting at 0
// and are never reused, and records are never deleted.
type StreamStorage interface {
	// CreateStream persists a new stream record, allocating the next
	// sequential identifier for it.
	//
	// Returns:
	//   - The identifier assigned to the record.
	//   - An error if the record could not be persisted.
	CreateStream(ctx context.Context, stream Stream) (uint64, error)

	// GetStream loads the stream record with the given identifier.
	//
	// Returns ErrStreamNotFound when the identifier was never allocated.
	GetStream(ctx context.Context, id uint64) (Stream, error)

	// SaveStream overwrites an existing stream record in full, keyed by
	// stream.ID. It is used after every mutation.
	//
	// Returns ErrStreamNotFound when no record exists for stream.ID.
	SaveStream(ctx context.Context, stream Stream) error
}
