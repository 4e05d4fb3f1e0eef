package memory

import (
	"context"

	"github.com/gabapcia/paystream/internal/nameregistry"
)

// SaveName stores the claim unless the display name is already taken.
func (c *client) SaveName(ctx context.Context, claim nameregistry.NameClaim) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.names[claim.Name]; ok {
		return nameregistry.ErrNameAlreadyTaken
	}
	c.names[claim.Name] = claim.Account
	return nil
}

// ResolveName returns the account registered under the display name.
func (c *client) ResolveName(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	account, ok := c.names[name]
	if !ok {
		return "", nameregistry.ErrNameNotFound
	}
	return account, nil
}

// Compile-time assertion to ensure *client satisfies the nameregistry.NameStorage interface
var _ nameregistry.NameStorage = new(client)
