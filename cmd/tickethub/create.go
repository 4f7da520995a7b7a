package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ticketHub/internal/config"
	"ticketHub/internal/flow"
	"ticketHub/internal/wallet"
)

func runCreate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadCreate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	network, err := cfg.Network()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, contract, err := openContract(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer client.Close()
	warnChainMismatch(ctx, client, network.ChainID, logger)

	recorder, closeRecorder, err := openRecorder(ctx, cfg.Config, contract)
	if err != nil {
		return err
	}
	defer closeRecorder()

	session := wallet.NewSession(network, wallet.EndpointDetector(cfg.Wallet), logger)
	defer session.Close()

	submission := flow.NewSubmission(session, contract, flow.NewLogNotifier(logger), recorder, loc, logger)
	stopAbandon := context.AfterFunc(ctx, submission.Abandon)
	defer stopAbandon()

	logger.Info("create start",
		zap.String("name", cfg.Name),
		zap.String("date", cfg.Date),
		zap.String("time", cfg.Time),
		zap.String("price", cfg.Price),
		zap.String("capacity", cfg.Capacity),
	)

	out, err := submission.Run(context.WithoutCancel(ctx), flow.EventForm{
		Name:        cfg.Name,
		Description: cfg.Description,
		Image:       cfg.Image,
		Date:        cfg.Date,
		Time:        cfg.Time,
		Price:       cfg.Price,
		Capacity:    cfg.Capacity,
	})
	printOutcome(cmd, out)
	return err
}
