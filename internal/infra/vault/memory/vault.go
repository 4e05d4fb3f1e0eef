// Package memory provides an in-process implementation of the asset-vault
// port: a mutex-guarded table of account balances with atomic debit/credit
// semantics. It stands in for the surrounding ledger's native-asset
// accounting in tests and in the local single-process mode.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gabapcia/paystream/internal/streaming"
)

// ErrInsufficientFunds is returned when the debited account cannot cover the
// requested amount. No balance changes in that case.
var ErrInsufficientFunds = errors.New("insufficient funds")

type vault struct {
	mu       sync.Mutex
	balances map[string]uint64
}

// NewVault returns an empty in-memory vault. Fund accounts with Credit
// before transferring out of them.
func NewVault() *vault {
	return &vault{
		balances: make(map[string]uint64),
	}
}

// Credit mints amount units into the given account. It exists so tests and
// the local mode can seed balances; the surrounding ledger owns issuance in
// every other deployment.
func (v *vault) Credit(account string, amount uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.balances[account] += amount
}

// Balance returns the current balance of the given account.
func (v *vault) Balance(account string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.balances[account]
}

// Transfer atomically moves amount units between two accounts. Either both
// the debit and the credit apply, or neither does.
func (v *vault) Transfer(ctx context.Context, amount uint64, from, to string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.balances[from] < amount {
		return fmt.Errorf("%w: account %s holds %d, needs %d", ErrInsufficientFunds, from, v.balances[from], amount)
	}

	v.balances[from] -= amount
	v.balances[to] += amount
	return nil
}

// Compile-time assertion to ensure *vault satisfies the streaming.AssetVault interface
var _ streaming.AssetVault = new(vault)
