package chain

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"
)

// MintedTicketID returns the first ticket id minted by a purchase receipt.
// Receipts without a TicketsMinted log report false.
func (c *Contract) MintedTicketID(receipt *types.Receipt) (uint64, bool) {
	values, ok := c.findEvent(receipt, "TicketsMinted")
	if !ok || len(values) == 0 {
		return 0, false
	}
	id, err := asUint64(values[0], "firstTokenId")
	if err != nil {
		return 0, false
	}
	return id, true
}

// CreatedEventID returns the id assigned by an EventCreated log.
func (c *Contract) CreatedEventID(receipt *types.Receipt) (uint64, bool) {
	event, ok := c.abi.Events["EventCreated"]
	if !ok || receipt == nil {
		return 0, false
	}
	for _, log := range receipt.Logs {
		if !c.matches(log, event) || len(log.Topics) < 2 {
			continue
		}
		id := log.Topics[1].Big()
		if !id.IsUint64() {
			return 0, false
		}
		return id.Uint64(), true
	}
	return 0, false
}

func (c *Contract) findEvent(receipt *types.Receipt, name string) ([]interface{}, bool) {
	event, ok := c.abi.Events[name]
	if !ok || receipt == nil {
		return nil, false
	}
	for _, log := range receipt.Logs {
		if !c.matches(log, event) {
			continue
		}
		values, err := c.abi.Unpack(name, log.Data)
		if err != nil {
			continue
		}
		return values, true
	}
	return nil, false
}

func (c *Contract) matches(log *types.Log, event abi.Event) bool {
	if log == nil || len(log.Topics) == 0 {
		return false
	}
	return log.Address == c.cfg.Address && log.Topics[0] == event.ID
}
