package flow

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"ticketHub/internal/chain"
	"ticketHub/internal/model"
)

const (
	createSuccessTitle       = "Event Created!"
	createSuccessDescription = "Your event has been created successfully."
	createFailureTitle       = "Event Creation Failed"
)

// SubmissionLedger is the contract surface an event submission needs.
type SubmissionLedger interface {
	Confirmer
	SubmitCreation(ctx context.Context, args chain.CreateArgs, sender chain.Sender) (chain.PendingTx, error)
	CreatedEventID(receipt *types.Receipt) (uint64, bool)
}

// Submission drives a single event creation attempt.
type Submission struct {
	lifecycle
	ledger   SubmissionLedger
	location *time.Location
}

func NewSubmission(wallet Wallet, ledger SubmissionLedger, notifier Notifier, recorder Recorder, loc *time.Location, logger *zap.Logger) *Submission {
	if loc == nil {
		loc = time.UTC
	}
	return &Submission{
		lifecycle: newLifecycle(model.OutcomeCreate, wallet, ledger, notifier, recorder, logger),
		ledger:    ledger,
		location:  loc,
	}
}

// Run validates form, then creates the event on-chain. The created id is
// reported when the receipt carries an EventCreated log.
func (s *Submission) Run(ctx context.Context, form EventForm) (Outcome, error) {
	runCtx, cancel, err := s.machine.Start(ctx)
	if err != nil {
		return Outcome{State: s.machine.State()}, err
	}
	defer cancel()

	out := Outcome{State: StateIdle}

	args, err := ParseForm(form, s.location)
	if err != nil {
		return s.fail(runCtx, out, createFailureTitle, err)
	}
	s.logger.Info("event form accepted",
		zap.String("name", args.Name),
		zap.Uint64("date", args.Date),
		zap.String("price_wei", args.PriceWei.String()),
		zap.Uint64("capacity", args.Capacity),
	)

	sender, err := s.connect(runCtx, &out)
	if err != nil {
		return s.fail(runCtx, out, createFailureTitle, err)
	}

	pending, err := s.ledger.SubmitCreation(runCtx, args, sender)
	if err != nil {
		return s.fail(runCtx, out, createFailureTitle, err)
	}

	receipt, err := s.await(runCtx, pending, &out)
	if err != nil {
		return s.fail(runCtx, out, createFailureTitle, err)
	}

	if id, ok := s.ledger.CreatedEventID(receipt); ok {
		out.ResultID, out.HasResultID = id, true
		s.record.EventID = id
	}

	return s.succeed(runCtx, out, Notification{
		Title:       createSuccessTitle,
		Description: createSuccessDescription,
		Success:     true,
	})
}

func (s *Submission) Abandon() {
	s.machine.Abandon()
}

func (s *Submission) State() State {
	return s.machine.State()
}
