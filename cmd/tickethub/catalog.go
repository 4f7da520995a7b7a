package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ticketHub/internal/catalog"
	"ticketHub/internal/config"
	"ticketHub/internal/model"
	"ticketHub/internal/storage"
	"ticketHub/internal/storage/postgres"
)

func runCatalog(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	category, _ := cmd.Flags().GetString("category")
	featuredOnly, _ := cmd.Flags().GetBool("featured")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, contract, err := openContract(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Info("catalog start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("contract", contract.Address().Hex()),
		zap.String("static", cfg.Static),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Duration("read_timeout", cfg.ReadTimeout),
	)

	merged, err := buildCatalog(ctx, cfg, contract, logger)
	if err != nil {
		return err
	}

	events := catalog.FilterByCategory(merged.Events, category)
	if featuredOnly {
		events = catalog.Featured(events)
	}

	sinks := []storage.CatalogSink{storage.NewJsonlStorage(cfg.Out)}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN, cfg.ChainID, contract.Address().Hex())
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store)
	}
	for _, sink := range sinks {
		if err := sink.PutCatalogEvents(ctx, events); err != nil {
			return err
		}
	}

	printEvents(cmd, events)
	logger.Info("catalog done",
		zap.Int("listed", len(events)),
		zap.Strings("categories", catalog.Categories(merged.Events)),
		zap.String("out", cfg.Out),
	)
	return nil
}

func printEvents(cmd *cobra.Command, events []model.CatalogEvent) {
	w := cmd.OutOrStdout()
	for _, e := range events {
		when := e.DisplayDate
		if e.DisplayTime != "" {
			when += " " + e.DisplayTime
		}
		fmt.Fprintf(w, "%-10s %-6s %-32s %-28s %12s  %d left\n",
			e.ID, e.Provenance, e.Title, when, e.DisplayPrice, e.AvailableCount)
	}
}

// findEvent resolves a catalog id against the merged catalog.
func findEvent(ctx context.Context, merged catalog.Catalog, id string) (model.CatalogEvent, error) {
	if id == "" {
		return model.CatalogEvent{}, fmt.Errorf("event id is required")
	}
	event, ok := catalog.Find(merged.Events, id)
	if !ok {
		if err := ctx.Err(); err != nil {
			return model.CatalogEvent{}, err
		}
		return model.CatalogEvent{}, fmt.Errorf("event %s not found", id)
	}
	return event, nil
}
