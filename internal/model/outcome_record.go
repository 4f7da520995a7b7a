package model

// Flow kinds recorded in outcome records.
const (
	OutcomePurchase = "purchase"
	OutcomeCreate   = "create"
)

// OutcomeRecord is the persisted result of a terminal purchase or creation flow.
// Wei amounts are decimal strings.
type OutcomeRecord struct {
	Kind        string `json:"kind"`
	State       string `json:"state"`
	ChainID     uint64 `json:"chain_id"`
	Contract    string `json:"contract"`
	Account     string `json:"account,omitempty"`
	TxHash      string `json:"tx_hash,omitempty"`
	EventID     uint64 `json:"event_id,omitempty"`
	Quantity    uint64 `json:"quantity,omitempty"`
	TotalValue  string `json:"total_value,omitempty"`
	ResultID    uint64 `json:"result_id,omitempty"`
	Image       string `json:"image,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	FinishedAt  string `json:"finished_at"`
}
