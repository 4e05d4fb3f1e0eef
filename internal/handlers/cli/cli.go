package cli

import (
	"context"
	"os"

	"github.com/gabapcia/paystream/internal/nameregistry"
	"github.com/gabapcia/paystream/internal/streaming"

	"github.com/urfave/cli/v3"
)

// Run initializes and executes the paystream CLI application.
//
// It registers all available commands:
//
//   - `create`: Opens a new payment stream with an initial deposit.
//   - `refuel`: Adds funds to an existing stream.
//   - `withdraw`: Pays the vested portion out to the recipient.
//   - `refund`: Returns the unvested excess to the sender after maturity.
//   - `update`: Amends a stream's rate and timeframe under dual consent.
//   - `claimable`: Shows what an account could claim from a stream.
//   - `digest`: Prints the consent digest for a proposed amendment.
//   - `register-name` / `resolve-name`: Display-name registration.
//
// Parameters:
//   - ctx: Context used to control the lifecycle of the CLI application.
//   - ss: The streaming service implementation used by stream commands.
//   - nr: The nameregistry service implementation used by name commands.
func Run(ctx context.Context, ss streaming.Service, nr nameregistry.Service) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "paystream",
		Description:           "Command-line interface for the paystream value-streaming ledger.",
		Usage:                 "paystream [command] [flags]",
		Commands: []*cli.Command{
			createStreamCommand(ss),
			refuelStreamCommand(ss),
			withdrawStreamCommand(ss),
			refundStreamCommand(ss),
			updateStreamCommand(ss),
			claimableBalanceCommand(ss),
			consentDigestCommand(ss),
			registerNameCommand(nr),
			resolveNameCommand(nr),
		},
	}

	return app.Run(ctx, os.Args)
}
