// Package consent implements the dual-consent protocol used to amend a
// payment stream without an on-chain transaction from both parties: one party
// signs a canonical digest of the proposed amendment off-chain, and the other
// submits the proposal together with that signature.
//
// The digest binds the proposal to the exact stored state of one specific
// stream, so a signature cannot be replayed against another stream, against
// different proposed parameters, or after the stream's record has changed.
package consent

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"strings"

	"github.com/gabapcia/paystream/internal/vesting"
)

// encodingVersion is the first byte of every canonical encoding. Bump it if
// the field order or widths ever change, so digests from different encoding
// revisions can never collide.
const encodingVersion byte = 0x01

// StreamState is the snapshot of a stored stream record that a consent digest
// commits to. Every field participates in the encoding.
type StreamState struct {
	ID        uint64            // stream identifier
	Sender    string            // funder account identifier
	Recipient string            // beneficiary account identifier
	Balance   uint64            // units currently custodied for the stream
	Withdrawn uint64            // cumulative units already paid out
	Rate      uint64            // current payment per block
	Timeframe vesting.Timeframe // current schedule bounds
}

// Proposal is the amendment one party asks the other to consent to: a
// replacement rate and timeframe for an existing stream.
type Proposal struct {
	Rate      uint64            // proposed payment per block
	Timeframe vesting.Timeframe // proposed schedule bounds
}

// SignerRecovery recovers the identity that produced a signature over a
// 32-byte digest. It is the engine's only view of the surrounding
// environment's signature scheme.
type SignerRecovery interface {
	// Recover returns the account identifier derived from the public key
	// that signed digest. It returns an error when the signature is
	// malformed or does not decode to a valid key.
	Recover(ctx context.Context, digest [32]byte, signature []byte) (string, error)
}

// encodeProposal serializes a stream snapshot and a proposal into the
// canonical byte form that gets hashed. The encoding is deliberately dumb:
// a version byte, then every field in a fixed order, integers as big-endian
// uint64 and strings length-prefixed with a big-endian uint32. Two distinct
// (state, proposal) pairs can therefore never encode to the same bytes.
func encodeProposal(state StreamState, proposal Proposal) []byte {
	buf := make([]byte, 0, 1+8*8+4*2+len(state.Sender)+len(state.Recipient))

	buf = append(buf, encodingVersion)
	buf = binary.BigEndian.AppendUint64(buf, state.ID)
	buf = appendString(buf, state.Sender)
	buf = appendString(buf, state.Recipient)
	buf = binary.BigEndian.AppendUint64(buf, state.Balance)
	buf = binary.BigEndian.AppendUint64(buf, state.Withdrawn)
	buf = binary.BigEndian.AppendUint64(buf, state.Rate)
	buf = binary.BigEndian.AppendUint64(buf, state.Timeframe.Start)
	buf = binary.BigEndian.AppendUint64(buf, state.Timeframe.Stop)
	buf = binary.BigEndian.AppendUint64(buf, proposal.Rate)
	buf = binary.BigEndian.AppendUint64(buf, proposal.Timeframe.Start)
	buf = binary.BigEndian.AppendUint64(buf, proposal.Timeframe.Stop)

	return buf
}

// appendString appends a big-endian uint32 length prefix followed by the
// string bytes, keeping variable-width fields unambiguous.
func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// Digest returns the SHA-256 digest of the canonical encoding of the given
// stream snapshot and proposal. This is the exact message a consenting party
// signs off-chain.
func Digest(state StreamState, proposal Proposal) [32]byte {
	return sha256.Sum256(encodeProposal(state, proposal))
}

// Verify reports whether signature over digest recovers to claimedSigner.
// Identifier comparison is case-insensitive, since hex-encoded account
// addresses circulate in mixed case. Any recovery failure yields false,
// never an error.
func Verify(ctx context.Context, recovery SignerRecovery, digest [32]byte, signature []byte, claimedSigner string) bool {
	recovered, err := recovery.Recover(ctx, digest, signature)
	if err != nil {
		return false
	}

	return strings.EqualFold(recovered, claimedSigner)
}
