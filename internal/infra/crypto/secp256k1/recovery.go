// Package secp256k1 implements the consent protocol's signature-recovery
// port on the secp256k1 curve, using go-ethereum's crypto primitives. A
// signature is the 65-byte [R || S || V] compact form and the recovered
// identity is the usual 20-byte hex address derived from the public key.
package secp256k1

import (
	"context"

	"github.com/gabapcia/paystream/internal/consent"

	"github.com/ethereum/go-ethereum/crypto"
)

type recovery struct{}

// New returns a SignerRecovery backed by secp256k1 public-key recovery.
func New() *recovery {
	return &recovery{}
}

// Recover derives the signing account's address from a 65-byte compact
// signature over the given digest. Malformed signatures surface as errors,
// which the consent protocol maps to a failed verification.
func (r *recovery) Recover(ctx context.Context, digest [32]byte, signature []byte) (string, error) {
	pub, err := crypto.SigToPub(digest[:], signature)
	if err != nil {
		return "", err
	}

	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

// Compile-time assertion to ensure *recovery satisfies the consent.SignerRecovery interface
var _ consent.SignerRecovery = new(recovery)
