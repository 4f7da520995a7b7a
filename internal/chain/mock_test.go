package chain

import (
	"bytes"
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
)

// mockBackend is a mock ledger backend for contract tests.
type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	args := m.Called(ctx, msg, blockNumber)
	if data := args.Get(0); data != nil {
		return data.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, hash)
	if receipt := args.Get(0); receipt != nil {
		return receipt.(*types.Receipt), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBackend) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	args := m.Called(ctx, hash)
	if tx := args.Get(0); tx != nil {
		return tx.(*types.Transaction), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

// callTo matches eth_call messages whose calldata starts with the selector of method.
func callTo(method string) interface{} {
	parsed, err := TicketABI()
	if err != nil {
		panic(err)
	}
	selector := parsed.Methods[method].ID
	return mock.MatchedBy(func(msg ethereum.CallMsg) bool {
		return bytes.HasPrefix(msg.Data, selector)
	})
}

type revertError struct{}

func (revertError) Error() string  { return "execution reverted" }
func (revertError) ErrorCode() int { return 3 }

type recordingSender struct {
	account common.Address
	hash    common.Hash
	err     error
	sent    []TxRequest
}

func (s *recordingSender) Account() common.Address { return s.account }

func (s *recordingSender) SendTransaction(_ context.Context, req TxRequest) (common.Hash, error) {
	s.sent = append(s.sent, req)
	return s.hash, s.err
}
