package flow

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ticketHub/internal/chain"
	"ticketHub/internal/model"
	"ticketHub/internal/wallet"
)

func chainEvent(price *big.Int, available uint64) model.CatalogEvent {
	return model.CatalogEvent{
		ID:             model.ChainEventID(7),
		RecordID:       7,
		Title:          "Devcon Afterparty",
		RawPrice:       price,
		AvailableCount: available,
		Provenance:     model.ProvenanceChain,
	}
}

type purchaseHarness struct {
	wallet   *fakeWallet
	ledger   *mockLedger
	notifier *recordingNotifier
	recorder *memRecorder
	purchase *Purchase
}

func newPurchaseHarness() *purchaseHarness {
	h := &purchaseHarness{
		wallet:   &fakeWallet{},
		ledger:   new(mockLedger),
		notifier: &recordingNotifier{},
		recorder: &memRecorder{},
	}
	h.purchase = NewPurchase(h.wallet, h.ledger, h.notifier, h.recorder, zap.NewNop())
	return h
}

func TestPurchaseConfirmed(t *testing.T) {
	h := newPurchaseHarness()
	price := big.NewInt(10_000_000_000_000_000)
	want := big.NewInt(50_000_000_000_000_000)
	pending := chain.PendingTx{Hash: testTxHash, From: testAccount}
	receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful}

	h.ledger.On("SubmitPurchase", mock.Anything, uint64(7), uint64(5), weiEq(want), mock.Anything).Return(pending, nil).Once()
	h.ledger.On("AwaitConfirmation", mock.Anything, pending).Return(receipt, nil).Once()
	h.ledger.On("MintedTicketID", receipt).Return(uint64(42), true)
	h.ledger.On("MetadataAt", mock.Anything, uint64(42)).
		Return(model.TicketMetadata{TokenID: 42, Image: "https://img.example/42.png"}, nil)

	// Buying every remaining ticket is allowed.
	out, err := h.purchase.Run(context.Background(), chainEvent(price, 5), 5)
	require.NoError(t, err)
	h.ledger.AssertExpectations(t)

	assert.Equal(t, StateConfirmed, out.State)
	assert.Equal(t, StateConfirmed, h.purchase.State())
	assert.Equal(t, 0, want.Cmp(out.TotalValue))
	assert.Equal(t, testTxHash, out.TxHash)
	assert.Equal(t, testAccount, out.Account)
	assert.True(t, out.HasResultID)
	assert.Equal(t, uint64(42), out.ResultID)
	require.NotNil(t, out.Metadata)
	assert.Equal(t, "https://img.example/42.png", out.Metadata.Image)

	assert.Equal(t, []Notification{{
		Title:       "Purchase Successful!",
		Description: "You've purchased 5 tickets to Devcon Afterparty",
		Success:     true,
	}}, h.notifier.all())

	records := h.recorder.all()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, model.OutcomePurchase, rec.Kind)
	assert.Equal(t, "confirmed", rec.State)
	assert.Equal(t, uint64(11155111), rec.ChainID)
	assert.Equal(t, testContract.Hex(), rec.Contract)
	assert.Equal(t, testAccount.Hex(), rec.Account)
	assert.Equal(t, testTxHash.Hex(), rec.TxHash)
	assert.Equal(t, uint64(7), rec.EventID)
	assert.Equal(t, uint64(5), rec.Quantity)
	assert.Equal(t, "50000000000000000", rec.TotalValue)
	assert.Equal(t, uint64(42), rec.ResultID)
	assert.Equal(t, "https://img.example/42.png", rec.Image)
	assert.NotEmpty(t, rec.FinishedAt)
}

func TestPurchaseSingleTicketCopy(t *testing.T) {
	assert.Equal(t, "You've purchased 1 ticket to Gala", purchaseDescription(1, "Gala"))
}

func TestPurchaseWithoutMintedID(t *testing.T) {
	h := newPurchaseHarness()
	pending := chain.PendingTx{Hash: testTxHash}
	receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful}
	h.ledger.On("SubmitPurchase", mock.Anything, uint64(7), uint64(1), mock.Anything, mock.Anything).Return(pending, nil)
	h.ledger.On("AwaitConfirmation", mock.Anything, pending).Return(receipt, nil)
	h.ledger.On("MintedTicketID", receipt).Return(uint64(0), false)

	out, err := h.purchase.Run(context.Background(), chainEvent(big.NewInt(1), 1), 1)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, out.State)
	assert.False(t, out.HasResultID)
	assert.Nil(t, out.Metadata)
	h.ledger.AssertNotCalled(t, "MetadataAt", mock.Anything, mock.Anything)
}

func TestPurchaseMetadataDegrades(t *testing.T) {
	h := newPurchaseHarness()
	pending := chain.PendingTx{Hash: testTxHash}
	receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful}
	h.ledger.On("SubmitPurchase", mock.Anything, uint64(7), uint64(2), mock.Anything, mock.Anything).Return(pending, nil)
	h.ledger.On("AwaitConfirmation", mock.Anything, pending).Return(receipt, nil)
	h.ledger.On("MintedTicketID", receipt).Return(uint64(3), true)
	h.ledger.On("MetadataAt", mock.Anything, uint64(3)).
		Return(model.TicketMetadata{}, fmt.Errorf("%w: execution reverted", chain.ErrMetadataUnavailable))

	out, err := h.purchase.Run(context.Background(), chainEvent(big.NewInt(1), 2), 2)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, out.State)
	assert.Equal(t, uint64(3), out.ResultID)
	assert.Nil(t, out.Metadata)
}

func TestPurchaseRejectedBeforeWallet(t *testing.T) {
	maxPrice := new(big.Int).Lsh(big.NewInt(1), 255)

	cases := []struct {
		name     string
		event    model.CatalogEvent
		quantity uint64
		want     error
	}{
		{"zero quantity", chainEvent(big.NewInt(1), 5), 0, ErrInvalidQuantity},
		{"more than available", chainEvent(big.NewInt(1), 5), 6, ErrInvalidQuantity},
		{"total overflows uint256", chainEvent(maxPrice, 10), 2, ErrInvalidQuantity},
		{"static event", model.CatalogEvent{ID: "1", AvailableCount: 10, Provenance: model.ProvenanceLocal}, 1, ErrNotOnChain},
		{"chain event without price", model.CatalogEvent{ID: "chain-2", RecordID: 2, AvailableCount: 3, Provenance: model.ProvenanceChain}, 1, ErrNotOnChain},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newPurchaseHarness()
			out, err := h.purchase.Run(context.Background(), tc.event, tc.quantity)
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, StateFailed, out.State)
			assert.Equal(t, 0, h.wallet.connectCalls())
			h.ledger.AssertNotCalled(t, "SubmitPurchase", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

			notes := h.notifier.all()
			require.Len(t, notes, 1)
			assert.Equal(t, "Purchase Failed", notes[0].Title)
			assert.False(t, notes[0].Success)
		})
	}
}

func TestPurchaseLargestTotal(t *testing.T) {
	h := newPurchaseHarness()
	price := new(big.Int).Lsh(big.NewInt(1), 254)
	want := new(big.Int).Lsh(big.NewInt(3), 254)
	pending := chain.PendingTx{Hash: testTxHash}
	receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful}
	h.ledger.On("SubmitPurchase", mock.Anything, uint64(7), uint64(3), weiEq(want), mock.Anything).Return(pending, nil).Once()
	h.ledger.On("AwaitConfirmation", mock.Anything, pending).Return(receipt, nil)
	h.ledger.On("MintedTicketID", receipt).Return(uint64(0), false)

	out, err := h.purchase.Run(context.Background(), chainEvent(price, 3), 3)
	require.NoError(t, err)
	assert.Equal(t, want.String(), out.TotalValue.String())
	h.ledger.AssertExpectations(t)
}

func TestPurchaseUserRejectedConnect(t *testing.T) {
	h := newPurchaseHarness()
	h.wallet.err = fmt.Errorf("%w: code 4001", wallet.ErrUserRejected)

	out, err := h.purchase.Run(context.Background(), chainEvent(big.NewInt(1), 5), 1)
	require.ErrorIs(t, err, wallet.ErrUserRejected)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, "The request was rejected in the wallet.", out.Reason)
	h.ledger.AssertNotCalled(t, "SubmitPurchase", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	records := h.recorder.all()
	require.Len(t, records, 1)
	assert.Equal(t, "failed", records[0].State)
	assert.Empty(t, records[0].TxHash)
}

func TestPurchaseFailureReasons(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		reason string
	}{
		{"reverted", chain.ErrTransactionReverted, "The transaction was reverted by the contract."},
		{"dropped", chain.ErrTransactionDropped, "The transaction was dropped before it was mined."},
		{"timeout", chain.ErrConfirmationTimeout, "Timed out waiting for the transaction to confirm."},
		{"unmapped", errors.New("nonce too low"), "nonce too low"},
		{"empty message", errors.New(""), "transaction failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newPurchaseHarness()
			pending := chain.PendingTx{Hash: testTxHash}
			h.ledger.On("SubmitPurchase", mock.Anything, uint64(7), uint64(1), mock.Anything, mock.Anything).Return(pending, nil)
			h.ledger.On("AwaitConfirmation", mock.Anything, pending).Return(nil, fmt.Errorf("wait: %w", tc.err))

			out, err := h.purchase.Run(context.Background(), chainEvent(big.NewInt(1), 1), 1)
			require.ErrorIs(t, err, tc.err)
			assert.Equal(t, StateFailed, out.State)
			assert.Equal(t, tc.reason, out.Reason)
			assert.Equal(t, testTxHash, out.TxHash)
			assert.Equal(t, Notification{Title: "Purchase Failed", Description: tc.reason}, h.notifier.all()[0])
		})
	}
}

func TestPurchaseSubmitErrorKeepsNodeMessage(t *testing.T) {
	h := newPurchaseHarness()
	cause := errors.New("insufficient funds for gas * price + value")
	h.ledger.On("SubmitPurchase", mock.Anything, uint64(7), uint64(1), mock.Anything, mock.Anything).
		Return(chain.PendingTx{}, fmt.Errorf("send buyTickets: %w", cause))

	out, err := h.purchase.Run(context.Background(), chainEvent(big.NewInt(1), 1), 1)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, "insufficient funds for gas * price + value", out.Reason)
	h.ledger.AssertNotCalled(t, "AwaitConfirmation", mock.Anything, mock.Anything)

	require.Len(t, h.notifier.all(), 1)
	assert.Equal(t, Notification{Title: "Purchase Failed", Description: out.Reason}, h.notifier.all()[0])
	records := h.recorder.all()
	require.Len(t, records, 1)
	assert.Equal(t, out.Reason, records[0].Reason)
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "transaction failed", failureReason(nil))
	assert.Equal(t, "The request was rejected in the wallet.",
		failureReason(fmt.Errorf("connect: %w", wallet.ErrUserRejected)))
	assert.Equal(t, "connection refused",
		failureReason(fmt.Errorf("send: %w", fmt.Errorf("post: %w", errors.New("connection refused")))))
	assert.Equal(t, "eth_sendTransaction: insufficient funds for gas * price + value",
		failureReason(errors.New("eth_sendTransaction: insufficient funds for gas * price + value")))
	assert.Equal(t, "transaction failed", failureReason(fmt.Errorf("wrap: %w", errors.New("  "))))
}

func TestPurchaseAbandonDuringConfirmation(t *testing.T) {
	h := newPurchaseHarness()
	pending := chain.PendingTx{Hash: testTxHash}
	h.ledger.On("SubmitPurchase", mock.Anything, uint64(7), uint64(1), mock.Anything, mock.Anything).Return(pending, nil)
	h.ledger.On("AwaitConfirmation", mock.Anything, pending).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.Canceled)

	type result struct {
		out Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := h.purchase.Run(context.Background(), chainEvent(big.NewInt(1), 1), 1)
		done <- result{out, err}
	}()

	require.Eventually(t, func() bool {
		return h.purchase.State() == StateAwaitingConfirmation
	}, time.Second, time.Millisecond)
	h.purchase.Abandon()

	select {
	case res := <-done:
		assert.ErrorIs(t, res.err, ErrAbandoned)
		assert.Equal(t, StateAwaitingConfirmation, res.out.State)
	case <-time.After(time.Second):
		t.Fatal("run did not return after abandon")
	}
	assert.Empty(t, h.notifier.all())
	assert.Empty(t, h.recorder.all())
}

func TestPurchaseNotResumable(t *testing.T) {
	h := newPurchaseHarness()
	_, err := h.purchase.Run(context.Background(), chainEvent(big.NewInt(1), 1), 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = h.purchase.Run(context.Background(), chainEvent(big.NewInt(1), 1), 1)
	assert.ErrorIs(t, err, ErrAlreadyStarted)

	abandoned := newPurchaseHarness()
	abandoned.purchase.Abandon()
	_, err = abandoned.purchase.Run(context.Background(), chainEvent(big.NewInt(1), 1), 1)
	assert.ErrorIs(t, err, ErrAbandoned)
	assert.Equal(t, 0, abandoned.wallet.connectCalls())
}
