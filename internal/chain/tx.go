package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// TxRequest is an unsigned contract call handed to a wallet for signing.
type TxRequest struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

// Sender signs and broadcasts transactions on behalf of one account.
type Sender interface {
	Account() common.Address
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
}

// PendingTx identifies a submitted transaction awaiting confirmation.
type PendingTx struct {
	Hash        common.Hash
	From        common.Address
	SubmittedAt time.Time
}

// CreateArgs are the ledger-native arguments of createEvent.
type CreateArgs struct {
	Name        string
	Description string
	ImageURI    string
	Date        uint64
	PriceWei    *big.Int
	Capacity    uint64
}

// SubmitPurchase sends buyTickets(id, quantity) carrying value wei.
func (c *Contract) SubmitPurchase(ctx context.Context, id, quantity uint64, value *big.Int, sender Sender) (PendingTx, error) {
	if value == nil || value.Sign() < 0 {
		return PendingTx{}, fmt.Errorf("invalid purchase value")
	}
	data, err := c.abi.Pack("buyTickets", new(big.Int).SetUint64(id), new(big.Int).SetUint64(quantity))
	if err != nil {
		return PendingTx{}, fmt.Errorf("pack buyTickets: %w", err)
	}
	return c.submit(ctx, sender, "buyTickets", TxRequest{To: c.cfg.Address, Value: new(big.Int).Set(value), Data: data})
}

// SubmitCreation sends createEvent with already converted arguments.
func (c *Contract) SubmitCreation(ctx context.Context, args CreateArgs, sender Sender) (PendingTx, error) {
	if args.PriceWei == nil {
		return PendingTx{}, fmt.Errorf("price is required")
	}
	data, err := c.abi.Pack("createEvent",
		args.Name,
		args.Description,
		args.ImageURI,
		new(big.Int).SetUint64(args.Date),
		args.PriceWei,
		new(big.Int).SetUint64(args.Capacity),
	)
	if err != nil {
		return PendingTx{}, fmt.Errorf("pack createEvent: %w", err)
	}
	return c.submit(ctx, sender, "createEvent", TxRequest{To: c.cfg.Address, Value: big.NewInt(0), Data: data})
}

func (c *Contract) submit(ctx context.Context, sender Sender, method string, req TxRequest) (PendingTx, error) {
	if sender == nil {
		return PendingTx{}, fmt.Errorf("sender is nil")
	}
	hash, err := sender.SendTransaction(ctx, req)
	if err != nil {
		return PendingTx{}, fmt.Errorf("send %s: %w", method, err)
	}
	c.logger.Info("transaction submitted",
		zap.String("method", method),
		zap.String("tx_hash", hash.Hex()),
		zap.String("from", sender.Account().Hex()),
		zap.String("value", req.Value.String()),
	)
	return PendingTx{Hash: hash, From: sender.Account(), SubmittedAt: time.Now().UTC()}, nil
}
