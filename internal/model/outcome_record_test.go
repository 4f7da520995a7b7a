package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutcomeRecordJSONStringAmounts(t *testing.T) {
	rec := OutcomeRecord{
		Kind:       OutcomePurchase,
		State:      "confirmed",
		ChainID:    11155111,
		TxHash:     "0xabc",
		EventID:    2,
		Quantity:   3,
		TotalValue: "150000000000000000000000",
		ResultID:   9,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	_, ok := decoded["total_value"].(string)
	require.True(t, ok, "total_value should be string")
	_, present := decoded["reason"]
	require.False(t, present, "empty reason should be omitted")
}
