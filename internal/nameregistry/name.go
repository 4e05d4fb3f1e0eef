package nameregistry

import (
	"context"
	"errors"

	"github.com/gabapcia/paystream/internal/pkg/validator"
)

var (
	// ErrNameAlreadyTaken is returned when the requested display name is
	// already mapped to an account.
	ErrNameAlreadyTaken = errors.New("display name already taken")

	// ErrNameNotFound is returned when no account is registered under the
	// requested display name.
	ErrNameNotFound = errors.New("display name not found")
)

// NameClaim maps an account identifier to the unique display name it wants
// to register. Both fields are required and validated before persistence.
type NameClaim struct {
	Account string `validate:"required"` // account identifier claiming the name
	Name    string `validate:"required"` // display name being claimed
}

// NameStorage is the persistence port for the display-name table. Names are
// globally unique: a claim for a taken name must fail, and an existing claim
// is never silently overwritten.
type NameStorage interface {
	// SaveName persists the claim, failing with ErrNameAlreadyTaken when
	// the display name is already registered to any account.
	SaveName(ctx context.Context, claim NameClaim) error

	// ResolveName returns the account registered under the given display
	// name, or ErrNameNotFound when the name is unregistered.
	ResolveName(ctx context.Context, name string) (string, error)
}

// buildNameClaim constructs and validates a NameClaim from its raw parts.
func buildNameClaim(account, name string) (NameClaim, error) {
	claim := NameClaim{
		Account: account,
		Name:    name,
	}

	return claim, validator.Validate(claim)
}

// Register claims a unique display name for the given account.
//
// It validates the input, constructs a NameClaim, and persists it through
// NameStorage, surfacing ErrNameAlreadyTaken on conflicts.
func (s *service) Register(ctx context.Context, account, name string) error {
	claim, err := buildNameClaim(account, name)
	if err != nil {
		return err
	}

	return s.nameStorage.SaveName(ctx, claim)
}

// Resolve returns the account registered under the given display name.
func (s *service) Resolve(ctx context.Context, name string) (string, error) {
	return s.nameStorage.ResolveName(ctx, name)
}
