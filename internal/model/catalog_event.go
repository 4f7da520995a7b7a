package model

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Provenance tags where a catalog entry came from.
type Provenance string

const (
	ProvenanceLocal Provenance = "LOCAL"
	ProvenanceChain Provenance = "CHAIN"
)

// ChainIDPrefix prefixes ids of chain-derived catalog entries.
// Static entries must never use it; the static loader rejects ids that do.
const ChainIDPrefix = "chain-"

// CatalogEvent is the unified view of a static or chain-derived event.
type CatalogEvent struct {
	ID             string     `json:"id"`
	RecordID       uint64     `json:"record_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	ImageRef       string     `json:"image_ref"`
	StartTimestamp uint64     `json:"start_ts"`
	DisplayDate    string     `json:"display_date"`
	DisplayTime    string     `json:"display_time"`
	Location       string     `json:"location,omitempty"`
	DisplayPrice   string     `json:"display_price"`
	RawPrice       *big.Int   `json:"raw_price,omitempty"`
	AvailableCount uint64     `json:"available_count"`
	OrganizerRef   string     `json:"organizer_ref"`
	Category       string     `json:"category"`
	Featured       bool       `json:"featured"`
	Provenance     Provenance `json:"provenance"`
}

// OnChain reports whether the entry can be bought through the ticket contract.
func (e CatalogEvent) OnChain() bool {
	return e.Provenance == ProvenanceChain && e.RecordID > 0 && e.RawPrice != nil
}

// ChainEventID builds the catalog id for an on-chain record id.
func ChainEventID(id uint64) string {
	return ChainIDPrefix + strconv.FormatUint(id, 10)
}

// ParseChainEventID extracts the on-chain record id from a catalog id.
func ParseChainEventID(id string) (uint64, error) {
	if !strings.HasPrefix(id, ChainIDPrefix) {
		return 0, fmt.Errorf("not a chain event id: %s", id)
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(id, ChainIDPrefix), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse chain event id %s: %w", id, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("chain event id must be positive: %s", id)
	}
	return n, nil
}
