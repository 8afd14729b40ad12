package amendment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-pricing/core/input"
)

func TestGroupPriceRows(t *testing.T) {
	cols := input.DefaultColumns()
	rows := []input.Row{
		{"contract": "C1", "account_name": "Acme", "product_name": "Widget", "currency_code": "USD",
			"CPQ_Contractid": "EXT-1", "effective_date": "2025-06-01"},
		{"contract": "C2", "account_name": "Acme", "product_name": "Widget", "currency_code": "USD",
			"CPQ_Contractid": "EXT-2", "effective_date": "2025-02-01"},
		{"contract": "C1", "account_name": "Acme", "product_name": "Widget", "currency_code": "USD",
			"CPQ_Contractid": "EXT-1", "effective_date": "2025-03-01"},
	}

	groups := GroupPriceRows(rows, cols)
	require.Len(t, groups, 2)

	assert.Equal(t, "C1", groups[0].Key.Contract, "first appearance order is preserved")
	assert.Equal(t, "EXT-1", groups[0].Key.ExternalContractID)
	require.Len(t, groups[0].Rows, 2)
	assert.Equal(t, "2025-03-01", groups[0].Rows[0].Get(cols.EffectiveDate), "rows sort by effective date")
	assert.Equal(t, "2025-06-01", groups[0].Rows[1].Get(cols.EffectiveDate))

	assert.Equal(t, "C2", groups[1].Key.Contract)
	require.Len(t, groups[1].Rows, 1)
}

func TestGroupPriceRowsUnparsableDatesSortLast(t *testing.T) {
	cols := input.DefaultColumns()
	rows := []input.Row{
		{"contract": "C1", "CPQ_Contractid": "EXT-1", "effective_date": "bogus"},
		{"contract": "C1", "CPQ_Contractid": "EXT-1", "effective_date": "2025-03-01"},
	}

	groups := GroupPriceRows(rows, cols)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Rows, 2)
	assert.Equal(t, "2025-03-01", groups[0].Rows[0].Get(cols.EffectiveDate))
	assert.Equal(t, "bogus", groups[0].Rows[1].Get(cols.EffectiveDate))
}

func TestGroupPriceRowsFallsBackToStartDate(t *testing.T) {
	cols := input.DefaultColumns()
	rows := []input.Row{
		{"contract": "C1", "CPQ_Contractid": "EXT-1", "start_date": "2025-09-01"},
		{"contract": "C1", "CPQ_Contractid": "EXT-1", "effective_date": "2025-03-01"},
	}

	groups := GroupPriceRows(rows, cols)
	require.Len(t, groups, 1)
	assert.Equal(t, "2025-03-01", groups[0].Rows[0].Get(cols.EffectiveDate))
	assert.Equal(t, "2025-09-01", groups[0].Rows[1].Get(cols.StartDate))
}
