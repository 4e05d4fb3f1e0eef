package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/paystream/internal/nameregistry"

	"github.com/redis/go-redis/v9"
)

// nameStoragePrefix is the base key namespace for the display-name table.
const nameStoragePrefix = "name"

// nameRegistryKey returns the Redis key under which the account claiming the
// given display name is stored.
//
// Format: "name:registry:{name}"
func nameRegistryKey(name string) string {
	return fmt.Sprintf("%s:registry:%s", nameStoragePrefix, name)
}

// SaveName claims a display name through SETNX, which atomically enforces
// global uniqueness: the first claim wins and later claims fail.
func (c *client) SaveName(ctx context.Context, claim nameregistry.NameClaim) error {
	ok, err := c.conn.SetNX(ctx, nameRegistryKey(claim.Name), claim.Account, 0).Result()
	if err != nil {
		return err
	}

	if !ok {
		return nameregistry.ErrNameAlreadyTaken
	}

	return nil
}

// ResolveName returns the account stored under the display name.
func (c *client) ResolveName(ctx context.Context, name string) (string, error) {
	account, err := c.conn.Get(ctx, nameRegistryKey(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nameregistry.ErrNameNotFound
	}
	if err != nil {
		return "", err
	}

	return account, nil
}

// Compile-time assertion to ensure *client satisfies the nameregistry.NameStorage interface
var _ nameregistry.NameStorage = new(client)
