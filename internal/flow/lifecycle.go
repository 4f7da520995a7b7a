package flow

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"ticketHub/internal/chain"
	"ticketHub/internal/model"
)

// Wallet authorizes an account on the right network and returns its signer.
type Wallet interface {
	Connect(ctx context.Context) (chain.Sender, error)
}

// Confirmer waits for a submitted transaction.
type Confirmer interface {
	Address() common.Address
	AwaitConfirmation(ctx context.Context, pending chain.PendingTx) (*types.Receipt, error)
}

// Outcome is the result of one attempt.
type Outcome struct {
	State        State
	Account      common.Address
	TxHash       common.Hash
	TotalValue   *big.Int
	ResultID     uint64
	HasResultID  bool
	Metadata     *model.TicketMetadata
	Reason       string
	Notification Notification
}

type chainIDer interface {
	ChainID() uint64
}

// lifecycle holds the collaborators both flows drive through the same states.
type lifecycle struct {
	kind     string
	machine  *Machine
	wallet   Wallet
	ledger   Confirmer
	notifier Notifier
	recorder Recorder
	logger   *zap.Logger

	record model.OutcomeRecord
}

func newLifecycle(kind string, wallet Wallet, ledger Confirmer, notifier Notifier, recorder Recorder, logger *zap.Logger) lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	logger = logger.With(zap.String("flow", kind))
	return lifecycle{
		kind:     kind,
		machine:  NewMachine(kind, logger),
		wallet:   wallet,
		ledger:   ledger,
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
		record:   model.OutcomeRecord{Kind: kind},
	}
}

// connect moves to confirming-wallet and obtains a signer.
func (l *lifecycle) connect(ctx context.Context, out *Outcome) (chain.Sender, error) {
	if err := l.machine.Transition(StateConfirmingWallet); err != nil {
		return nil, err
	}
	out.State = StateConfirmingWallet
	sender, err := l.wallet.Connect(ctx)
	if err != nil {
		return nil, err
	}
	out.Account = sender.Account()
	l.record.Account = sender.Account().Hex()
	if c, ok := sender.(chainIDer); ok {
		l.record.ChainID = c.ChainID()
	}
	return sender, nil
}

// await moves to awaiting-confirmation and waits for the receipt.
func (l *lifecycle) await(ctx context.Context, pending chain.PendingTx, out *Outcome) (*types.Receipt, error) {
	out.TxHash = pending.Hash
	l.record.TxHash = pending.Hash.Hex()
	if err := l.machine.Transition(StateAwaitingConfirmation); err != nil {
		return nil, err
	}
	out.State = StateAwaitingConfirmation
	return l.ledger.AwaitConfirmation(ctx, pending)
}

// succeed finishes a confirmed attempt.
func (l *lifecycle) succeed(ctx context.Context, out Outcome, note Notification) (Outcome, error) {
	if err := l.machine.Transition(StateConfirmed); err != nil {
		return l.abandoned(out)
	}
	out.State = StateConfirmed
	out.Notification = note
	l.finish(ctx, out)
	return out, nil
}

// fail finishes a failed attempt. Errors that arrive after Abandon are dropped.
func (l *lifecycle) fail(ctx context.Context, out Outcome, title string, cause error) (Outcome, error) {
	if l.machine.Abandoned() || errors.Is(cause, ErrAbandoned) {
		return l.abandoned(out)
	}
	if err := l.machine.Transition(StateFailed); err != nil {
		return l.abandoned(out)
	}
	out.State = StateFailed
	out.Reason = failureReason(cause)
	out.Notification = Notification{Title: title, Description: out.Reason}
	l.logger.Warn("flow failed", zap.String("reason", out.Reason), zap.Error(cause))
	l.finish(ctx, out)
	return out, cause
}

func (l *lifecycle) abandoned(out Outcome) (Outcome, error) {
	out.State = l.machine.State()
	return out, ErrAbandoned
}

func (l *lifecycle) finish(ctx context.Context, out Outcome) {
	l.notifier.Notify(out.Notification)

	rec := l.record
	rec.State = string(out.State)
	rec.Reason = out.Reason
	rec.Title = out.Notification.Title
	rec.Description = out.Notification.Description
	if out.TotalValue != nil {
		rec.TotalValue = out.TotalValue.String()
	}
	if out.HasResultID {
		rec.ResultID = out.ResultID
	}
	if out.Metadata != nil {
		rec.Image = out.Metadata.Image
	}
	if l.ledger != nil {
		rec.Contract = l.ledger.Address().Hex()
	}
	rec.FinishedAt = time.Now().UTC().Format(time.RFC3339)

	if l.recorder == nil {
		return
	}
	// The run context may already be cancelled; the record must still land.
	if err := l.recorder.PutOutcomeBatch(context.WithoutCancel(ctx), []model.OutcomeRecord{rec}); err != nil {
		l.logger.Warn("record outcome", zap.Error(err))
	}
}
