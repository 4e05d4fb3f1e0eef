// Package nameregistry implements the account-registration subsystem the
// streaming frontends rely on: a uniqueness-checked mapping from an account
// identifier to a human-readable display name.
package nameregistry

import "context"

// Service defines the interface for registering and resolving unique display
// names for accounts.
type Service interface {
	// Register claims the display name for the account.
	//
	// Returns:
	//   - An error if validation fails, the name is already taken, or the
	//     claim cannot be persisted.
	Register(ctx context.Context, account, name string) error

	// Resolve returns the account registered under the display name.
	//
	// Returns:
	//   - ErrNameNotFound when the name is unregistered.
	Resolve(ctx context.Context, name string) (string, error)
}

// service is the concrete implementation of the Service interface. It
// delegates persistence to the configured NameStorage.
type service struct {
	nameStorage NameStorage
}

// Ensure compile-time compliance with the Service interface.
var _ Service = (*service)(nil)

// New creates a new nameregistry service using the provided NameStorage
// implementation.
//
// This constructor is intended to be used by dependency injection during
// application wiring.
func New(ns NameStorage) *service {
	return &service{
		nameStorage: ns,
	}
}
