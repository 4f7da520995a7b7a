package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ChainEventRecord is one event as stored by the ticket contract.
type ChainEventRecord struct {
	ID          uint64
	Name        string
	Description string
	ImageURI    string
	Date        uint64
	PriceWei    *big.Int
	Capacity    uint64
	Sold        uint64
	Organiser   common.Address
	Cancelled   bool
}

// Available returns the number of unsold tickets.
func (r ChainEventRecord) Available() uint64 {
	if r.Sold >= r.Capacity {
		return 0
	}
	return r.Capacity - r.Sold
}
