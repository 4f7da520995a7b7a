package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ticketHub/internal/config"
	"ticketHub/internal/flow"
	"ticketHub/internal/wallet"
)

func runBuy(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPurchase(cfgFile, cmd.Flags())
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, contract, err := openContract(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer client.Close()
	warnChainMismatch(ctx, client, network.ChainID, logger)

	merged, err := buildCatalog(ctx, cfg.Config, contract, logger)
	if err != nil {
		return err
	}
	event, err := findEvent(ctx, merged, cfg.EventID)
	if err != nil {
		return err
	}

	recorder, closeRecorder, err := openRecorder(ctx, cfg.Config, contract)
	if err != nil {
		return err
	}
	defer closeRecorder()

	session := wallet.NewSession(network, wallet.EndpointDetector(cfg.Wallet), logger)
	defer session.Close()

	purchase := flow.NewPurchase(session, contract, flow.NewLogNotifier(logger), recorder, logger)
	// Interrupting abandons the attempt; a broadcast transaction stays broadcast.
	stopAbandon := context.AfterFunc(ctx, purchase.Abandon)
	defer stopAbandon()

	logger.Info("purchase start",
		zap.String("event", event.ID),
		zap.Uint64("quantity", cfg.Quantity),
		zap.String("price", event.DisplayPrice),
	)

	out, err := purchase.Run(context.WithoutCancel(ctx), event, cfg.Quantity)
	printOutcome(cmd, out)
	return err
}

func printOutcome(cmd *cobra.Command, out flow.Outcome) {
	w := cmd.OutOrStdout()
	if out.Notification.Title != "" {
		fmt.Fprintf(w, "%s\n%s\n", out.Notification.Title, out.Notification.Description)
	}
	if out.TxHash != (common.Hash{}) {
		fmt.Fprintf(w, "tx: %s\n", out.TxHash.Hex())
	}
	if out.HasResultID {
		fmt.Fprintf(w, "id: %d\n", out.ResultID)
	}
	if out.Metadata != nil && out.Metadata.Image != "" {
		fmt.Fprintf(w, "image: %s\n", out.Metadata.Image)
	}
}

type chainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// warnChainMismatch flags a read RPC that serves a different chain than the
// wallet will be asked to use.
func warnChainMismatch(ctx context.Context, client chainIDReader, want uint64, logger *zap.Logger) {
	got, err := client.ChainID(ctx)
	if err != nil {
		logger.Warn("read rpc chain id", zap.Error(err))
		return
	}
	if !got.IsUint64() || got.Uint64() != want {
		logger.Warn("read rpc serves a different chain",
			zap.String("rpc_chain_id", got.String()),
			zap.Uint64("chain_id", want),
		)
	}
}
