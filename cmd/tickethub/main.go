package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ticketHub/internal/catalog"
	"ticketHub/internal/chain"
	"ticketHub/internal/config"
	"ticketHub/internal/storage"
	"ticketHub/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "tickethub",
		Short:        "On-chain event catalog and ticketing",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Merge the static catalog with live contract events",
		RunE:  runCatalog,
	}
	addCommonFlags(catalogCmd.Flags(), "./data/catalog.jsonl")
	catalogCmd.Flags().String("category", catalog.AllCategories, "only list events in this category")
	catalogCmd.Flags().Bool("featured", false, "only list featured events")

	root.AddCommand(catalogCmd)

	buyCmd := &cobra.Command{
		Use:   "buy",
		Short: "Buy tickets for an on-chain event",
		RunE:  runBuy,
	}
	addCommonFlags(buyCmd.Flags(), "./data/outcomes.jsonl")
	buyCmd.Flags().String("event", "", "catalog id of the event (e.g. chain-3)")
	buyCmd.Flags().Uint64("quantity", 1, "number of tickets")

	root.AddCommand(buyCmd)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event on-chain",
		RunE:  runCreate,
	}
	addCommonFlags(createCmd.Flags(), "./data/outcomes.jsonl")
	createCmd.Flags().String("name", "", "event name")
	createCmd.Flags().String("description", "", "event description")
	createCmd.Flags().String("image", "", "image URI")
	createCmd.Flags().String("date", "", "event date (YYYY-MM-DD)")
	createCmd.Flags().String("time", "", "start time (HH:MM)")
	createCmd.Flags().String("price", "", "ticket price in native units (e.g. 0.05)")
	createCmd.Flags().String("capacity", "", "number of tickets")

	root.AddCommand(createCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(flags *pflag.FlagSet, out string) {
	flags.String("rpc", "", "ledger RPC URL used for reads")
	flags.String("wallet", "", "wallet provider endpoint (http, ws or ipc)")
	flags.String("contract", "", "ticket contract address")
	flags.Uint64("chain-id", 11155111, "target chain id")
	flags.String("chain-name", "Sepolia", "target chain name")
	flags.StringSlice("rpc-urls", nil, "RPC URLs advertised when registering the chain (comma-separated)")
	flags.StringSlice("explorer-urls", nil, "block explorer URLs (comma-separated)")
	flags.String("currency-name", "Sepolia Ether", "native currency name")
	flags.String("currency-symbol", "ETH", "native currency symbol")
	flags.Uint("currency-decimals", 18, "native currency decimals")
	flags.Duration("read-timeout", 15*time.Second, "deadline for fetching chain events")
	flags.Int("concurrency", 8, "parallel chain event fetches")
	flags.Int("max-events", 1000, "newest chain event ids fetched per catalog build")
	flags.Duration("confirm-timeout", 5*time.Minute, "deadline for transaction confirmation")
	flags.Duration("poll-interval", 2*time.Second, "receipt poll interval")
	flags.Int("drop-after", 30, "polls a transaction may be unknown before it counts as dropped (0 disables)")
	flags.Int("max-retries", 2, "extra attempts for failed contract reads")
	flags.Duration("retry-delay", 250*time.Millisecond, "initial backoff between contract read attempts")
	flags.Duration("metadata-timeout", 10*time.Second, "ticket metadata fetch timeout")
	flags.String("ipfs-gateway", "https://ipfs.io/ipfs/", "gateway for ipfs:// URIs")
	flags.String("timezone", "UTC", "time zone for event dates")
	flags.String("chain-category", "Blockchain", "category assigned to chain events")
	flags.String("static", "", "static catalog YAML file")
	flags.String("out", out, "output JSONL path")
	flags.String("pg-dsn", "", "optional Postgres DSN")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

// openContract dials the read RPC and binds the ticket contract.
func openContract(ctx context.Context, cfg config.Config, logger *zap.Logger) (*chain.Client, *chain.Contract, error) {
	if cfg.RPCURL == "" {
		return nil, nil, fmt.Errorf("rpc url is required")
	}
	address, err := cfg.ContractAddress()
	if err != nil {
		return nil, nil, err
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	metadata := chain.NewMetadataResolver(chain.MetadataConfig{
		IPFSGateway: cfg.IPFSGateway,
		Timeout:     cfg.MetadataTimeout,
	}, &http.Client{Timeout: cfg.MetadataTimeout}, logger)

	contract, err := chain.NewContract(chain.ContractConfig{
		Address:        address,
		PollInterval:   cfg.PollInterval,
		ConfirmTimeout: cfg.ConfirmTimeout,
		DropAfter:      cfg.DropAfter,
		MaxRetries:     cfg.MaxRetries,
		RetryDelay:     cfg.RetryDelay,
	}, client, metadata, logger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return client, contract, nil
}

// buildCatalog merges the static file with live contract events.
func buildCatalog(ctx context.Context, cfg config.Config, contract *chain.Contract, logger *zap.Logger) (catalog.Catalog, error) {
	static, err := catalog.LoadStatic(cfg.Static)
	if err != nil {
		return catalog.Catalog{}, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return catalog.Catalog{}, err
	}
	agg := catalog.NewAggregator(catalog.Config{
		Concurrency:   cfg.Concurrency,
		MaxEvents:     cfg.MaxEvents,
		FetchTimeout:  cfg.ReadTimeout,
		Location:      loc,
		ChainCategory: cfg.ChainCategory,
	}, contract, logger)
	return agg.Build(ctx, static.Events())
}

// openRecorder returns the JSONL outcome sink, plus Postgres when configured.
func openRecorder(ctx context.Context, cfg config.Config, contract *chain.Contract) (storage.Storage, func(), error) {
	sinks := storage.Multi{storage.NewJsonlStorage(cfg.Out)}
	if cfg.PGDSN == "" {
		return sinks, func() {}, nil
	}
	store, err := postgres.NewStore(ctx, cfg.PGDSN, cfg.ChainID, contract.Address().Hex())
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return append(sinks, store), store.Close, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
