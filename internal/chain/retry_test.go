package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWithRetry(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = withRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return errors.New("connection reset")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = withRetry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		return revertError{}
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "reverts are not retried")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls = 0
	err = withRetry(ctx, 5, time.Millisecond, func(ctx context.Context) error {
		calls++
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestContractCallRetriesTransport(t *testing.T) {
	parsed, err := TicketABI()
	require.NoError(t, err)
	resp, err := parsed.Methods["nextEventId"].Outputs.Pack(big.NewInt(7))
	require.NoError(t, err)

	backend := new(mockBackend)
	backend.On("CallContract", mock.Anything, callTo("nextEventId"), mock.Anything).
		Return(nil, errors.New("502 bad gateway")).Once()
	backend.On("CallContract", mock.Anything, callTo("nextEventId"), mock.Anything).
		Return(resp, nil).Once()

	contract, err := NewContract(ContractConfig{
		Address:    testContract,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, backend, nil, zap.NewNop())
	require.NoError(t, err)

	next, err := contract.NextID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), next)
	backend.AssertExpectations(t)
}
