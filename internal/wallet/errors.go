package wallet

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrProviderMissing     = errors.New("wallet provider missing")
	ErrUserRejected        = errors.New("user rejected request")
	ErrNetworkSwitchFailed = errors.New("network switch failed")
)

// EIP-1193 / EIP-3326 provider error codes.
const (
	codeUserRejected      = 4001
	codeUnrecognizedChain = 4902
)

func errorCode(err error) (int, bool) {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode(), true
	}
	return 0, false
}

func isUserRejected(err error) bool {
	code, ok := errorCode(err)
	return ok && code == codeUserRejected
}

// isUnrecognizedChain also looks into data.originalError, where some mobile
// wallets nest the real code under a generic internal error.
func isUnrecognizedChain(err error) bool {
	if code, ok := errorCode(err); ok && code == codeUnrecognizedChain {
		return true
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(map[string]interface{}); ok {
			if original, ok := data["originalError"].(map[string]interface{}); ok {
				if code, ok := original["code"].(float64); ok && int(code) == codeUnrecognizedChain {
					return true
				}
			}
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unrecognized chain")
}
