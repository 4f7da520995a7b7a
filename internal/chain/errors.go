package chain

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrMetadataUnavailable = errors.New("metadata unavailable")
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrTransactionDropped  = errors.New("transaction dropped")
	ErrConfirmationTimeout = errors.New("confirmation timed out")
)

// revertCode is the JSON-RPC code geth-compatible nodes use for reverted calls.
const revertCode = 3

func isExecutionReverted(err error) bool {
	if err == nil {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertCode {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}
