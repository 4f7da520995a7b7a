package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const defaultPollInterval = 2 * time.Second

// AwaitConfirmation polls until the transaction is mined. A mined receipt
// with failed status is returned together with ErrTransactionReverted.
func (c *Contract) AwaitConfirmation(ctx context.Context, pending PendingTx) (*types.Receipt, error) {
	parent := ctx
	if c.cfg.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ConfirmTimeout)
		defer cancel()
	}

	interval := c.cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	missing := 0
	for {
		receipt, err := c.backend.TransactionReceipt(ctx, pending.Hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w: %s", ErrTransactionReverted, pending.Hash.Hex())
			}
			c.logger.Info("transaction confirmed",
				zap.String("tx_hash", pending.Hash.Hex()),
				zap.Uint64("block_number", receipt.BlockNumber.Uint64()),
			)
			return receipt, nil
		case err == nil || errors.Is(err, ethereum.NotFound):
			known, lookupErr := c.isKnown(ctx, pending)
			if lookupErr != nil {
				c.logger.Debug("transaction lookup failed", zap.String("tx_hash", pending.Hash.Hex()), zap.Error(lookupErr))
			} else if known {
				missing = 0
			} else {
				missing++
			}
			if c.cfg.DropAfter > 0 && missing >= c.cfg.DropAfter {
				return nil, fmt.Errorf("%w: %s", ErrTransactionDropped, pending.Hash.Hex())
			}
		case ctx.Err() == nil:
			c.logger.Warn("receipt fetch failed", zap.String("tx_hash", pending.Hash.Hex()), zap.Error(err))
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			if parent.Err() != nil {
				return nil, parent.Err()
			}
			return nil, fmt.Errorf("%w: %s after %s", ErrConfirmationTimeout, pending.Hash.Hex(), c.cfg.ConfirmTimeout)
		case <-timer.C:
		}
	}
}

func (c *Contract) isKnown(ctx context.Context, pending PendingTx) (bool, error) {
	tx, _, err := c.backend.TransactionByHash(ctx, pending.Hash)
	if errors.Is(err, ethereum.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return tx != nil, nil
}
