package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"ticketHub/internal/chain"
)

// Signer hands transactions to the wallet for signing and broadcast. It is
// only created by Session.Connect.
type Signer struct {
	provider Provider
	account  common.Address
	chainID  uint64
}

type sendTxArgs struct {
	From    common.Address  `json:"from"`
	To      *common.Address `json:"to"`
	Value   *hexutil.Big    `json:"value"`
	Data    hexutil.Bytes   `json:"data"`
	ChainID *hexutil.Big    `json:"chainId,omitempty"`
}

func (s *Signer) Account() common.Address {
	return s.account
}

func (s *Signer) ChainID() uint64 {
	return s.chainID
}

// SendTransaction submits req through eth_sendTransaction. The wallet picks
// gas and nonce.
func (s *Signer) SendTransaction(ctx context.Context, req chain.TxRequest) (common.Hash, error) {
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To
	args := sendTxArgs{
		From:  s.account,
		To:    &to,
		Value: (*hexutil.Big)(value),
		Data:  req.Data,
	}
	if s.chainID != 0 {
		args.ChainID = (*hexutil.Big)(new(big.Int).SetUint64(s.chainID))
	}

	var hash common.Hash
	if err := s.provider.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		if isUserRejected(err) {
			return common.Hash{}, fmt.Errorf("%w: %v", ErrUserRejected, err)
		}
		return common.Hash{}, fmt.Errorf("eth_sendTransaction: %w", err)
	}
	if hash == (common.Hash{}) {
		return common.Hash{}, fmt.Errorf("eth_sendTransaction: empty transaction hash")
	}
	return hash, nil
}
