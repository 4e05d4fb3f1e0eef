package memory

import (
	"context"

	"github.com/gabapcia/paystream/internal/streaming"
)

// CreateStream allocates the next sequential identifier and stores the
// record under it. Identifiers start at 0 and are never reused.
func (c *client) CreateStream(ctx context.Context, stream streaming.Stream) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stream.ID = c.nextStreamID
	c.streams[stream.ID] = stream
	c.nextStreamID++

	return stream.ID, nil
}

// GetStream loads the record stored under the given identifier.
func (c *client) GetStream(ctx context.Context, id uint64) (streaming.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stream, ok := c.streams[id]
	if !ok {
		return streaming.Stream{}, streaming.ErrStreamNotFound
	}
	return stream, nil
}

// SaveStream overwrites an existing record in full.
func (c *client) SaveStream(ctx context.Context, stream streaming.Stream) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.streams[stream.ID]; !ok {
		return streaming.ErrStreamNotFound
	}
	c.streams[stream.ID] = stream
	return nil
}

// Compile-time assertion to ensure *client satisfies the streaming.StreamStorage interface
var _ streaming.StreamStorage = new(client)
