package cli

import (
	"context"
	"fmt"

	"github.com/gabapcia/paystream/internal/nameregistry"

	"github.com/urfave/cli/v3"
)

// registerNameCommand claims a unique display name for an account.
//
// Usage example:
//
//	paystream register-name --account 0xAAA --name alice
func registerNameCommand(nr nameregistry.Service) *cli.Command {
	return &cli.Command{
		Name:        "register-name",
		Description: "Register a unique display name for an account.",
		Usage:       "Claims the display name. Fails when the name is already taken.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "account",
				Usage:    "Account claiming the name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Display name to claim",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := nr.Register(ctx, c.String("account"), c.String("name")); err != nil {
				return err
			}

			fmt.Println("name registered")
			return nil
		},
	}
}

// resolveNameCommand looks up the account behind a display name.
//
// Usage example:
//
//	paystream resolve-name --name alice
func resolveNameCommand(nr nameregistry.Service) *cli.Command {
	return &cli.Command{
		Name:        "resolve-name",
		Description: "Resolve a display name to the account that registered it.",
		Usage:       "Prints the account registered under the display name.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Display name to resolve",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			account, err := nr.Resolve(ctx, c.String("name"))
			if err != nil {
				return err
			}

			fmt.Println(account)
			return nil
		},
	}
}
