// Package jsonrpc implements the engine's external-ledger ports against a
// remote ledger node speaking JSON-RPC 2.0: the block clock reads the node's
// height counter and the asset vault submits native-asset transfers for the
// node to execute atomically.
package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gabapcia/paystream/internal/pkg/resilience/retry"
	transporthttp "github.com/gabapcia/paystream/internal/pkg/transport/http"
	"github.com/gabapcia/paystream/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/paystream/internal/streaming"
)

const (
	// blockHeightMethod returns the node's current block height as a
	// hex-encoded quantity (e.g. "0x1a").
	blockHeightMethod = "ledger_blockHeight"

	// transferMethod executes an atomic native-asset transfer. Params:
	// amount, from, to. The node answers with an error when the debit
	// cannot be covered.
	transferMethod = "ledger_transfer"
)

type client struct {
	rpc   jsonrpc.Client // transport to the ledger node
	retry retry.Retry    // applied to read-only calls; nil disables retrying
}

// config holds the options applied by NewClient.
type config struct {
	retry retry.Retry
}

// Option customizes the ledger-node client.
type Option func(*config)

// WithRetry retries read-only node calls (the height query) with the given
// policy. Transfers are never retried here: the node cannot tell a retry
// from a second transfer.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// NewClient returns a ledger-node client for the given JSON-RPC endpoint.
// HTTP-level retries and timeouts come from the shared transport defaults.
func NewClient(endpoint string, opts ...Option) *client {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	httpClient := transporthttp.NewClient()

	return &client{
		rpc:   jsonrpc.NewClient(httpClient.StandardClient(), endpoint),
		retry: cfg.retry,
	}
}

// parseHexQuantity decodes a JSON string result carrying a 0x-prefixed
// hex quantity.
func parseHexQuantity(raw json.RawMessage) (uint64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("malformed quantity result: %w", err)
	}

	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return 0, fmt.Errorf("quantity %q is not 0x-prefixed", s)
	}

	value, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("quantity %q is not a valid hex number: %w", s, err)
	}

	return value, nil
}

// CurrentHeight reads the node's block height counter.
func (c *client) CurrentHeight(ctx context.Context) (uint64, error) {
	fetch := func() (json.RawMessage, error) {
		return c.rpc.Fetch(ctx, blockHeightMethod)
	}

	var (
		raw json.RawMessage
		err error
	)
	if c.retry != nil {
		err = c.retry.Execute(ctx, func() error {
			raw, err = fetch()
			return err
		})
	} else {
		raw, err = fetch()
	}
	if err != nil {
		return 0, err
	}

	return parseHexQuantity(raw)
}

// Transfer submits an atomic native-asset transfer for the node to execute.
func (c *client) Transfer(ctx context.Context, amount uint64, from, to string) error {
	_, err := c.rpc.Fetch(ctx, transferMethod, amount, from, to)
	return err
}

// Compile-time assertions to ensure *client satisfies the engine's ledger ports
var (
	_ streaming.BlockClock = new(client)
	_ streaming.AssetVault = new(client)
)
