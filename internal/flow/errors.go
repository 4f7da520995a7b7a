package flow

import (
	"errors"
	"strings"

	"ticketHub/internal/chain"
	"ticketHub/internal/wallet"
)

var (
	ErrInvalidQuantity = errors.New("invalid ticket quantity")
	ErrInvalidDateTime = errors.New("invalid date or time")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCapacity = errors.New("invalid capacity")
	ErrMissingField    = errors.New("missing required field")
	ErrNotOnChain      = errors.New("event is not purchasable on-chain")
	ErrAbandoned       = errors.New("flow abandoned")
	ErrAlreadyStarted  = errors.New("flow already started")
)

const fallbackReason = "transaction failed"

var reasons = []struct {
	err    error
	reason string
}{
	{wallet.ErrProviderMissing, "No wallet detected. Connect a wallet and try again."},
	{wallet.ErrUserRejected, "The request was rejected in the wallet."},
	{wallet.ErrNetworkSwitchFailed, "The wallet could not switch to the required network."},
	{ErrNotOnChain, "This event is not available for on-chain purchase."},
	{ErrInvalidQuantity, "Please choose a valid number of tickets."},
	{ErrMissingField, "Please fill in all required fields."},
	{ErrInvalidDateTime, "Please enter a valid date and time."},
	{ErrInvalidAmount, "Please enter a valid ticket price."},
	{ErrInvalidCapacity, "Capacity must be a positive whole number."},
	{chain.ErrTransactionReverted, "The transaction was reverted by the contract."},
	{chain.ErrTransactionDropped, "The transaction was dropped before it was mined."},
	{chain.ErrConfirmationTimeout, "Timed out waiting for the transaction to confirm."},
}

// failureReason maps known error kinds to user-facing text. Anything else is
// reported by its innermost message, which carries the node's own wording
// (for example "insufficient funds for gas * price + value").
func failureReason(err error) string {
	if err == nil {
		return fallbackReason
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	if msg := strings.TrimSpace(innermost(err).Error()); msg != "" {
		return msg
	}
	return fallbackReason
}

// innermost follows single-error wrapping down to the root cause.
func innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
