package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gabapcia/paystream/internal/streaming"
	"github.com/gabapcia/paystream/internal/vesting"

	"github.com/urfave/cli/v3"
)

// timeframeFlags are shared by every command that takes a schedule.
func timeframeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.UintFlag{
			Name:     "start",
			Usage:    "Block height at which vesting begins",
			Required: true,
		},
		&cli.UintFlag{
			Name:     "stop",
			Usage:    "Block height at which vesting saturates",
			Required: true,
		},
	}
}

// decodeSignature parses a hex-encoded signature, with or without a 0x prefix.
func decodeSignature(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	signature, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("signature is not valid hex: %w", err)
	}
	return signature, nil
}

// createStreamCommand opens a new payment stream.
//
// Usage example:
//
//	paystream create --sender 0xAAA --recipient 0xBBB --amount 100 --start 0 --stop 500 --rate 2
func createStreamCommand(ss streaming.Service) *cli.Command {
	return &cli.Command{
		Name:        "create",
		Description: "Lock an initial deposit into a new stream vesting toward the recipient.",
		Usage:       "Creates a payment stream and prints its identifier.",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "sender",
				Usage:    "Account funding the stream",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "recipient",
				Usage:    "Account the stream vests toward",
				Required: true,
			},
			&cli.UintFlag{
				Name:     "amount",
				Usage:    "Initial deposit in asset units",
				Required: true,
			},
			&cli.UintFlag{
				Name:     "rate",
				Usage:    "Asset units vested per block",
				Required: true,
			},
		}, timeframeFlags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			tf := vesting.Timeframe{Start: c.Uint("start"), Stop: c.Uint("stop")}

			id, err := ss.CreateStream(ctx, c.String("sender"), c.String("recipient"), c.Uint("amount"), tf, c.Uint("rate"))
			if err != nil {
				return err
			}

			fmt.Printf("stream %d created\n", id)
			return nil
		},
	}
}

// refuelStreamCommand adds funds to an existing stream.
//
// Usage example:
//
//	paystream refuel --stream 0 --amount 50 --caller 0xAAA
func refuelStreamCommand(ss streaming.Service) *cli.Command {
	return &cli.Command{
		Name:        "refuel",
		Description: "Add funds to an existing stream. Only the stream's sender may refuel.",
		Usage:       "Adds the given amount to a stream's locked balance.",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:     "stream",
				Usage:    "Stream identifier",
				Required: true,
			},
			&cli.UintFlag{
				Name:     "amount",
				Usage:    "Asset units to add",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "caller",
				Usage:    "Account submitting the call",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			added, err := ss.Refuel(ctx, c.Uint("stream"), c.Uint("amount"), c.String("caller"))
			if err != nil {
				return err
			}

			fmt.Printf("added %d units\n", added)
			return nil
		},
	}
}

// withdrawStreamCommand pays the vested portion out to the recipient.
//
// Usage example:
//
//	paystream withdraw --stream 0 --caller 0xBBB
func withdrawStreamCommand(ss streaming.Service) *cli.Command {
	return &cli.Command{
		Name:        "withdraw",
		Description: "Pay the vested-but-unclaimed portion of a stream out to its recipient.",
		Usage:       "Withdraws everything currently claimable. Paying zero is a valid no-op.",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:     "stream",
				Usage:    "Stream identifier",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "caller",
				Usage:    "Account submitting the call",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			paid, err := ss.Withdraw(ctx, c.Uint("stream"), c.String("caller"))
			if err != nil {
				return err
			}

			fmt.Printf("paid out %d units\n", paid)
			return nil
		},
	}
}

// refundStreamCommand returns the unvested excess to the sender.
//
// Usage example:
//
//	paystream refund --stream 0 --caller 0xAAA
func refundStreamCommand(ss streaming.Service) *cli.Command {
	return &cli.Command{
		Name:        "refund",
		Description: "Return the unvested excess to the sender once the stream has matured.",
		Usage:       "Refunds the sender's excess. Fails while the stream is still active.",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:     "stream",
				Usage:    "Stream identifier",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "caller",
				Usage:    "Account submitting the call",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			refunded, err := ss.Refund(ctx, c.Uint("stream"), c.String("caller"))
			if err != nil {
				return err
			}

			fmt.Printf("refunded %d units\n", refunded)
			return nil
		},
	}
}

// updateStreamCommand amends a stream's rate and timeframe under dual consent.
//
// Usage example:
//
//	paystream update --stream 0 --rate 3 --start 0 --stop 400 \
//	    --signer 0xBBB --signature 0xdeadbeef... --caller 0xAAA
func updateStreamCommand(ss streaming.Service) *cli.Command {
	return &cli.Command{
		Name:        "update",
		Description: "Replace a stream's rate and timeframe, carrying the other party's off-chain signature.",
		Usage:       "Amends a stream under dual consent.",
		Flags: append([]cli.Flag{
			&cli.UintFlag{
				Name:     "stream",
				Usage:    "Stream identifier",
				Required: true,
			},
			&cli.UintFlag{
				Name:     "rate",
				Usage:    "Proposed asset units vested per block",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "signer",
				Usage:    "Party that signed the consent digest off-chain",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "signature",
				Usage:    "Hex-encoded signature over the consent digest",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "caller",
				Usage:    "Account submitting the call (the other party)",
				Required: true,
			},
		}, timeframeFlags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			signature, err := decodeSignature(c.String("signature"))
			if err != nil {
				return err
			}

			tf := vesting.Timeframe{Start: c.Uint("start"), Stop: c.Uint("stop")}
			if err := ss.UpdateDetails(ctx, c.Uint("stream"), c.Uint("rate"), tf, c.String("signer"), signature, c.String("caller")); err != nil {
				return err
			}

			fmt.Println("stream updated")
			return nil
		},
	}
}

// claimableBalanceCommand shows what an account could claim right now.
//
// Usage example:
//
//	paystream claimable --stream 0 --account 0xBBB
func claimableBalanceCommand(ss streaming.Service) *cli.Command {
	return &cli.Command{
		Name:        "claimable",
		Description: "Show the amount the given account could currently claim from a stream.",
		Usage:       "Prints the claimable balance. Unknown streams and unrelated parties yield zero.",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:     "stream",
				Usage:    "Stream identifier",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "account",
				Usage:    "Account to query",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			amount, err := ss.ClaimableBalance(ctx, c.Uint("stream"), c.String("account"))
			if err != nil {
				return err
			}

			fmt.Printf("%d units claimable\n", amount)
			return nil
		},
	}
}

// consentDigestCommand prints the digest a party must sign to consent to a
// proposed amendment.
//
// Usage example:
//
//	paystream digest --stream 0 --rate 3 --start 0 --stop 400
func consentDigestCommand(ss streaming.Service) *cli.Command {
	return &cli.Command{
		Name:        "digest",
		Description: "Print the consent digest for a proposed rate and timeframe.",
		Usage:       "Computes the digest to sign off-chain for a stream amendment.",
		Flags: append([]cli.Flag{
			&cli.UintFlag{
				Name:     "stream",
				Usage:    "Stream identifier",
				Required: true,
			},
			&cli.UintFlag{
				Name:     "rate",
				Usage:    "Proposed asset units vested per block",
				Required: true,
			},
		}, timeframeFlags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			tf := vesting.Timeframe{Start: c.Uint("start"), Stop: c.Uint("stop")}

			digest, err := ss.ConsentDigest(ctx, c.Uint("stream"), c.Uint("rate"), tf)
			if err != nil {
				return err
			}

			fmt.Printf("0x%s\n", hex.EncodeToString(digest[:]))
			return nil
		},
	}
}
