package model

// TicketMetadata captures the display data of a minted ticket.
type TicketMetadata struct {
	TokenID  uint64 `json:"token_id"`
	URI      string `json:"uri"`
	Name     string `json:"name,omitempty"`
	Image    string `json:"image"`
	Degraded bool   `json:"degraded"`
}
