package streaming

import "context"

// AssetVault is the engine's view of the surrounding ledger's native-asset
// accounting: an atomic debit/credit of asset units between two accounts.
//
// A transfer either fully applies or fully fails; there is no partial
// application for the engine to compensate.
type AssetVault interface {
	// Transfer moves amount units from one account to another.
	//
	// Parameters:
	//   - ctx: controls cancellation and timeout.
	//   - amount: asset units to move.
	//   - from: account debited.
	//   - to: account credited.
	//
	// Returns an error when the debit cannot be covered or the underlying
	// ledger rejects the movement, in which case no balance changed.
	Transfer(ctx context.Context, amount uint64, from, to string) error
}
