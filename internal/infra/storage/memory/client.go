// Package memory provides in-process implementations of the storage ports,
// used by tests and by the local single-process mode. All state lives behind
// a single mutex, which trivially satisfies the engine's serialized,
// all-or-nothing execution model.
package memory

import (
	"sync"

	"github.com/gabapcia/paystream/internal/streaming"
)

type client struct {
	mu sync.Mutex

	nextStreamID uint64
	streams      map[uint64]streaming.Stream
	names        map[string]string
}

// NewClient returns an empty in-memory storage backend.
func NewClient() *client {
	return &client{
		streams: make(map[uint64]streaming.Stream),
		names:   make(map[string]string),
	}
}
