package model

// NativeCurrency describes the gas currency of a network.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// NetworkDescriptor is everything a wallet needs to register a network.
type NetworkDescriptor struct {
	ChainID      uint64         `json:"chain_id"`
	Name         string         `json:"name"`
	RPCURLs      []string       `json:"rpc_urls"`
	ExplorerURLs []string       `json:"explorer_urls"`
	Currency     NativeCurrency `json:"currency"`
}
