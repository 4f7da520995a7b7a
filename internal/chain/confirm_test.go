package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newConfirmContract(t *testing.T, backend *mockBackend, cfg ContractConfig) *Contract {
	t.Helper()
	cfg.Address = testContract
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Millisecond
	}
	contract, err := NewContract(cfg, backend, nil, zap.NewNop())
	require.NoError(t, err)
	return contract
}

func TestAwaitConfirmation(t *testing.T) {
	hash := common.HexToHash("0x01")
	pending := PendingTx{Hash: hash}
	pendingTx := types.NewTx(&types.LegacyTx{Nonce: 1})

	t.Run("returns receipt once mined", func(t *testing.T) {
		backend := new(mockBackend)
		backend.On("TransactionReceipt", mock.Anything, hash).Return(nil, ethereum.NotFound).Twice()
		backend.On("TransactionByHash", mock.Anything, hash).Return(pendingTx, true, nil)
		backend.On("TransactionReceipt", mock.Anything, hash).
			Return(&types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(12)}, nil)

		receipt, err := newConfirmContract(t, backend, ContractConfig{DropAfter: 3}).AwaitConfirmation(context.Background(), pending)
		require.NoError(t, err)
		assert.Equal(t, uint64(12), receipt.BlockNumber.Uint64())
	})

	t.Run("failed status is a revert", func(t *testing.T) {
		backend := new(mockBackend)
		backend.On("TransactionReceipt", mock.Anything, hash).
			Return(&types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(3)}, nil)

		receipt, err := newConfirmContract(t, backend, ContractConfig{}).AwaitConfirmation(context.Background(), pending)
		assert.ErrorIs(t, err, ErrTransactionReverted)
		assert.NotNil(t, receipt)
	})

	t.Run("unknown transaction is dropped", func(t *testing.T) {
		backend := new(mockBackend)
		backend.On("TransactionReceipt", mock.Anything, hash).Return(nil, ethereum.NotFound)
		backend.On("TransactionByHash", mock.Anything, hash).Return(nil, false, ethereum.NotFound)

		_, err := newConfirmContract(t, backend, ContractConfig{DropAfter: 2}).AwaitConfirmation(context.Background(), pending)
		assert.ErrorIs(t, err, ErrTransactionDropped)
		backend.AssertNumberOfCalls(t, "TransactionByHash", 2)
	})

	t.Run("deadline is a confirmation timeout", func(t *testing.T) {
		backend := new(mockBackend)
		backend.On("TransactionReceipt", mock.Anything, hash).Return(nil, ethereum.NotFound)
		backend.On("TransactionByHash", mock.Anything, hash).Return(pendingTx, true, nil)

		_, err := newConfirmContract(t, backend, ContractConfig{ConfirmTimeout: 20 * time.Millisecond}).
			AwaitConfirmation(context.Background(), pending)
		assert.ErrorIs(t, err, ErrConfirmationTimeout)
	})

	t.Run("caller cancellation is not a timeout", func(t *testing.T) {
		backend := new(mockBackend)
		backend.On("TransactionReceipt", mock.Anything, hash).Return(nil, errors.New("node busy"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newConfirmContract(t, backend, ContractConfig{ConfirmTimeout: time.Minute}).AwaitConfirmation(ctx, pending)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, errors.Is(err, ErrConfirmationTimeout))
	})
}
