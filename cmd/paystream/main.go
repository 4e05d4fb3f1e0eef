package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gabapcia/paystream/internal/handlers/cli"
	chainjsonrpc "github.com/gabapcia/paystream/internal/infra/chain/jsonrpc"
	chainlocal "github.com/gabapcia/paystream/internal/infra/chain/local"
	"github.com/gabapcia/paystream/internal/infra/crypto/secp256k1"
	memorystorage "github.com/gabapcia/paystream/internal/infra/storage/memory"
	redisstorage "github.com/gabapcia/paystream/internal/infra/storage/redis"
	memoryvault "github.com/gabapcia/paystream/internal/infra/vault/memory"
	"github.com/gabapcia/paystream/internal/nameregistry"
	"github.com/gabapcia/paystream/internal/pkg/logger"
	"github.com/gabapcia/paystream/internal/pkg/resilience/retry"
	"github.com/gabapcia/paystream/internal/pkg/telemetry"
	"github.com/gabapcia/paystream/internal/pkg/validator"
	"github.com/gabapcia/paystream/internal/streaming"

	"github.com/kelseyhightower/envconfig"
)

type config struct {
	ServiceName      string `envconfig:"SERVICE_NAME" default:"paystream"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`

	// Vault account holding locked stream balances. Empty keeps the
	// engine's default.
	CustodyAccount string `envconfig:"CUSTODY_ACCOUNT"`

	// Stream and name records live in Redis when an address is set,
	// in process memory otherwise.
	RedisAddress  string `envconfig:"REDIS_ADDRESS"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Transfers and the block clock go through a ledger node when an
	// endpoint is set. Otherwise the process runs self-contained: an
	// in-memory vault seeded from LOCAL_FAUCET and a wall-clock block
	// counter starting at LOCAL_GENESIS_UNIX.
	LedgerNodeEndpoint string        `envconfig:"LEDGER_NODE_ENDPOINT"`
	LocalGenesisUnix   int64         `envconfig:"LOCAL_GENESIS_UNIX"`
	LocalBlockInterval time.Duration `envconfig:"LOCAL_BLOCK_INTERVAL" default:"1s"`
	LocalFaucet        string        `envconfig:"LOCAL_FAUCET"`
}

// storage is the union of the record ports both services need. The Redis and
// in-memory adapters each implement all of it.
type storage interface {
	streaming.StreamStorage
	nameregistry.NameStorage
}

func newStorage(ctx context.Context, cfg config) (storage, func() error, error) {
	if cfg.RedisAddress == "" {
		return memorystorage.NewClient(), nil, nil
	}

	client, err := redisstorage.NewClient(ctx, cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}

	return client, client.Close, nil
}

// seedFaucet credits the comma-separated "account=amount" entries into the
// local vault.
func seedFaucet(vault interface{ Credit(string, uint64) }, faucet string) error {
	if faucet == "" {
		return nil
	}

	for _, entry := range strings.Split(faucet, ",") {
		account, rawAmount, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok {
			return fmt.Errorf("faucet entry %q is not account=amount", entry)
		}

		amount, err := strconv.ParseUint(rawAmount, 10, 64)
		if err != nil {
			return fmt.Errorf("faucet entry %q has an invalid amount: %w", entry, err)
		}

		vault.Credit(account, amount)
	}

	return nil
}

func newLedger(cfg config) (streaming.AssetVault, streaming.BlockClock, error) {
	if cfg.LedgerNodeEndpoint != "" {
		node := chainjsonrpc.NewClient(cfg.LedgerNodeEndpoint, chainjsonrpc.WithRetry(retry.New()))
		return node, node, nil
	}

	vault := memoryvault.NewVault()
	if err := seedFaucet(vault, cfg.LocalFaucet); err != nil {
		return nil, nil, err
	}

	clock := chainlocal.NewClock(time.Unix(cfg.LocalGenesisUnix, 0), cfg.LocalBlockInterval)
	return vault, clock, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config
	envconfig.MustProcess("", &cfg)

	// Telemetry first so the logger can pick up its log provider.
	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, cfg.ServiceName)
		if err != nil {
			log.Fatalf("starting telemetry: %v", err)
		}
		defer shutdown(context.Background())
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		log.Fatalf("starting logger: %v", err)
	}
	defer logger.Sync()

	validator.Init()

	records, closeStorage, err := newStorage(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "connecting to storage", "error", err)
	}
	if closeStorage != nil {
		defer closeStorage()
	}

	vault, clock, err := newLedger(cfg)
	if err != nil {
		logger.Fatal(ctx, "setting up the ledger", "error", err)
	}

	var streamingOpts []streaming.Option
	if cfg.CustodyAccount != "" {
		streamingOpts = append(streamingOpts, streaming.WithCustodyAccount(cfg.CustodyAccount))
	}

	streams := streaming.New(records, vault, clock, secp256k1.New(), streamingOpts...)
	names := nameregistry.New(records)

	if err := cli.Run(ctx, streams, names); err != nil {
		logger.Fatal(ctx, "command failed", "error", err)
	}
}
