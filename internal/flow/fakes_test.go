package flow

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"

	"ticketHub/internal/chain"
	"ticketHub/internal/model"
)

var (
	testContract = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	testAccount  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testTxHash   = common.HexToHash("0xfeed")
)

type fakeSender struct{}

func (fakeSender) Account() common.Address { return testAccount }
func (fakeSender) ChainID() uint64         { return 11155111 }
func (fakeSender) SendTransaction(context.Context, chain.TxRequest) (common.Hash, error) {
	return testTxHash, nil
}

type fakeWallet struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (w *fakeWallet) Connect(context.Context) (chain.Sender, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return nil, w.err
	}
	return fakeSender{}, nil
}

func (w *fakeWallet) connectCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

// mockLedger stands in for chain.Contract in both flows.
type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Address() common.Address { return testContract }

func (m *mockLedger) AwaitConfirmation(ctx context.Context, pending chain.PendingTx) (*types.Receipt, error) {
	args := m.Called(ctx, pending)
	receipt, _ := args.Get(0).(*types.Receipt)
	return receipt, args.Error(1)
}

func (m *mockLedger) SubmitPurchase(ctx context.Context, id, quantity uint64, value *big.Int, sender chain.Sender) (chain.PendingTx, error) {
	args := m.Called(ctx, id, quantity, value, sender)
	return args.Get(0).(chain.PendingTx), args.Error(1)
}

func (m *mockLedger) MintedTicketID(receipt *types.Receipt) (uint64, bool) {
	args := m.Called(receipt)
	return args.Get(0).(uint64), args.Bool(1)
}

func (m *mockLedger) MetadataAt(ctx context.Context, tokenID uint64) (model.TicketMetadata, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(model.TicketMetadata), args.Error(1)
}

func (m *mockLedger) SubmitCreation(ctx context.Context, createArgs chain.CreateArgs, sender chain.Sender) (chain.PendingTx, error) {
	args := m.Called(ctx, createArgs, sender)
	return args.Get(0).(chain.PendingTx), args.Error(1)
}

func (m *mockLedger) CreatedEventID(receipt *types.Receipt) (uint64, bool) {
	args := m.Called(receipt)
	return args.Get(0).(uint64), args.Bool(1)
}

func weiEq(want *big.Int) interface{} {
	return mock.MatchedBy(func(v *big.Int) bool { return v != nil && v.Cmp(want) == 0 })
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (n *recordingNotifier) Notify(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.notes...)
}

type memRecorder struct {
	mu      sync.Mutex
	records []model.OutcomeRecord
}

func (r *memRecorder) PutOutcomeBatch(_ context.Context, records []model.OutcomeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, records...)
	return nil
}

func (r *memRecorder) all() []model.OutcomeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.OutcomeRecord(nil), r.records...)
}
