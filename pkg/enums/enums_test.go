package enums

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusWireMapping(t *testing.T) {
	assert.Equal(t, "after-sale", OrderStatusAfterSale.Wire())
	assert.Equal(t, "after_sale", OrderStatusAfterSale.String())

	for _, raw := range []string{"after-sale", "after_sale", " After-Sale "} {
		parsed, err := ParseOrderStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, OrderStatusAfterSale, parsed)
	}

	_, err := ParseOrderStatus("refunded")
	require.Error(t, err)
}

func TestOrderStatusJSONUsesHyphenatedTokens(t *testing.T) {
	payload, err := json.Marshal(map[string]OrderStatus{"status": OrderStatusAfterSale})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"after-sale"}`, string(payload))

	var decoded struct {
		Status OrderStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"after-sale"}`), &decoded))
	assert.Equal(t, OrderStatusAfterSale, decoded.Status)

	require.Error(t, json.Unmarshal([]byte(`{"status":"lost"}`), &decoded))
}

func TestCheckpointKindFromLabel(t *testing.T) {
	assert.Equal(t, CheckpointKindDelivered, CheckpointKindFromLabel(CheckpointLabelDelivered))
	assert.Equal(t, CheckpointKindInTransit, CheckpointKindFromLabel("运输中"))
	assert.Equal(t, CheckpointKindOther, CheckpointKindFromLabel("到达分拣中心"))
}

func TestAfterSaleStatusTerminal(t *testing.T) {
	assert.False(t, AfterSaleStatusApplied.IsTerminal())
	assert.False(t, AfterSaleStatusProcessing.IsTerminal())
	assert.True(t, AfterSaleStatusResolved.IsTerminal())
	assert.True(t, AfterSaleStatusRejected.IsTerminal())
}

func TestParseProductSortDefaults(t *testing.T) {
	sort, err := ParseProductSort("")
	require.NoError(t, err)
	assert.Equal(t, ProductSortNewest, sort)

	sort, err = ParseProductSort("price-asc")
	require.NoError(t, err)
	assert.Equal(t, ProductSortPriceAsc, sort)

	_, err = ParseProductSort("random")
	require.Error(t, err)
}

func TestAfterSaleTypeRoundTrip(t *testing.T) {
	var decoded struct {
		Type AfterSaleType `json:"type"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"type":"return-refund"}`), &decoded))
	assert.Equal(t, AfterSaleTypeReturnRefund, decoded.Type)
}
