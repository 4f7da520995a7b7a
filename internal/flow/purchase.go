package flow

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"ticketHub/internal/chain"
	"ticketHub/internal/model"
)

const (
	purchaseSuccessTitle = "Purchase Successful!"
	purchaseFailureTitle = "Purchase Failed"
)

// PurchaseLedger is the contract surface a purchase needs.
type PurchaseLedger interface {
	Confirmer
	SubmitPurchase(ctx context.Context, id, quantity uint64, value *big.Int, sender chain.Sender) (chain.PendingTx, error)
	MintedTicketID(receipt *types.Receipt) (uint64, bool)
	MetadataAt(ctx context.Context, tokenID uint64) (model.TicketMetadata, error)
}

// Purchase drives a single ticket purchase attempt.
type Purchase struct {
	lifecycle
	ledger PurchaseLedger
}

func NewPurchase(wallet Wallet, ledger PurchaseLedger, notifier Notifier, recorder Recorder, logger *zap.Logger) *Purchase {
	return &Purchase{
		lifecycle: newLifecycle(model.OutcomePurchase, wallet, ledger, notifier, recorder, logger),
		ledger:    ledger,
	}
}

// Run buys quantity tickets for event. Validation happens before the wallet
// is touched. The returned error is nil only for a confirmed purchase.
func (p *Purchase) Run(ctx context.Context, event model.CatalogEvent, quantity uint64) (Outcome, error) {
	runCtx, cancel, err := p.machine.Start(ctx)
	if err != nil {
		return Outcome{State: p.machine.State()}, err
	}
	defer cancel()

	out := Outcome{State: StateIdle}
	p.record.EventID = event.RecordID
	p.record.Quantity = quantity

	total, err := validatePurchase(event, quantity)
	if err != nil {
		return p.fail(runCtx, out, purchaseFailureTitle, err)
	}
	out.TotalValue = total

	sender, err := p.connect(runCtx, &out)
	if err != nil {
		return p.fail(runCtx, out, purchaseFailureTitle, err)
	}

	pending, err := p.ledger.SubmitPurchase(runCtx, event.RecordID, quantity, total, sender)
	if err != nil {
		return p.fail(runCtx, out, purchaseFailureTitle, err)
	}

	receipt, err := p.await(runCtx, pending, &out)
	if err != nil {
		return p.fail(runCtx, out, purchaseFailureTitle, err)
	}

	if id, ok := p.ledger.MintedTicketID(receipt); ok {
		out.ResultID, out.HasResultID = id, true
		meta, err := p.ledger.MetadataAt(runCtx, id)
		switch {
		case err == nil:
			out.Metadata = &meta
		case errors.Is(err, chain.ErrMetadataUnavailable):
			p.logger.Debug("ticket metadata unavailable", zap.Uint64("token_id", id), zap.Error(err))
		default:
			p.logger.Warn("ticket metadata", zap.Uint64("token_id", id), zap.Error(err))
		}
	}

	return p.succeed(runCtx, out, Notification{
		Title:       purchaseSuccessTitle,
		Description: purchaseDescription(quantity, event.Title),
		Success:     true,
	})
}

// Abandon stops the attempt without notifying.
func (p *Purchase) Abandon() {
	p.machine.Abandon()
}

func (p *Purchase) State() State {
	return p.machine.State()
}

func validatePurchase(event model.CatalogEvent, quantity uint64) (*big.Int, error) {
	if !event.OnChain() {
		return nil, fmt.Errorf("%w: %s", ErrNotOnChain, event.ID)
	}
	if quantity < 1 || quantity > event.AvailableCount {
		return nil, fmt.Errorf("%w: %d of %d available", ErrInvalidQuantity, quantity, event.AvailableCount)
	}
	return TotalValue(event.RawPrice, quantity)
}

func purchaseDescription(quantity uint64, title string) string {
	plural := ""
	if quantity > 1 {
		plural = "s"
	}
	return fmt.Sprintf("You've purchased %d ticket%s to %s", quantity, plural, title)
}
