package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"ticketHub/internal/model"
)

// Network builds the descriptor handed to the wallet when it has to register
// the target chain.
func (c Config) Network() (model.NetworkDescriptor, error) {
	if c.ChainID == 0 {
		return model.NetworkDescriptor{}, fmt.Errorf("chain-id is required")
	}
	if len(c.RPCURLs) == 0 {
		return model.NetworkDescriptor{}, fmt.Errorf("rpc-urls or rpc is required")
	}
	if c.CurrencyDecimals > math.MaxUint8 {
		return model.NetworkDescriptor{}, fmt.Errorf("currency-decimals out of range: %d", c.CurrencyDecimals)
	}
	return model.NetworkDescriptor{
		ChainID:      c.ChainID,
		Name:         c.ChainName,
		RPCURLs:      append([]string(nil), c.RPCURLs...),
		ExplorerURLs: append([]string(nil), c.ExplorerURLs...),
		Currency: model.NativeCurrency{
			Name:     c.CurrencyName,
			Symbol:   c.CurrencySymbol,
			Decimals: uint8(c.CurrencyDecimals),
		},
	}, nil
}

// ContractAddress parses the ticket contract address.
func (c Config) ContractAddress() (common.Address, error) {
	input := strings.TrimSpace(c.Contract)
	if input == "" {
		return common.Address{}, fmt.Errorf("contract is required")
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid contract address: %s", input)
	}
	return common.HexToAddress(input), nil
}

// Location resolves the display and form time zone.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", name, err)
	}
	return loc, nil
}
