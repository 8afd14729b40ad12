package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-pricing/core/input"
	"contract-pricing/core/ledger"
	"contract-pricing/core/tier"
)

func testBuilder(idx *Index) *Builder {
	return &Builder{
		Columns:       input.DefaultColumns(),
		FallbackStart: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Index:         idx,
		ProductName:   "Widget",
	}
}

func TestBuildFlatRateRow(t *testing.T) {
	builder := testBuilder(nil)
	rows := []input.Row{{"rate": "2.5", "start_date": "2025-03-01"}}

	payloads, ladder, skipped := builder.Build("CR-1", "USD", rows)
	require.Len(t, payloads, 1)
	assert.Empty(t, skipped)
	require.Len(t, ladder, 1)

	payload := payloads[0]
	assert.Equal(t, "USD", payload["CurrencyCode"])
	assert.Equal(t, "CR-1", payload["ContractRateId"])
	assert.Equal(t, "2025-03-01T00:00:00.000Z", payload["EffectiveDate"])
	assert.Equal(t, "0", payload["LowerBand"])
	assert.Equal(t, "-1", payload["UpperBand"])
	assert.Equal(t, "2.5", payload["Rate"])
	assert.Equal(t, "0", payload["RerateFlag"])
	_, hasEnd := payload["EndDate"]
	assert.False(t, hasEnd)
}

func TestBuildStructuredLadder(t *testing.T) {
	builder := testBuilder(nil)
	rows := []input.Row{{
		"effective_date": "2025-06-15",
		"tier1_from_qty": "0", "tier1_to_qty": "100", "tier1_rate": "1.5",
		"tier2_to_qty": "200", "tier2_rate": "1.2",
		"tier3_to_qty": "-1", "tier3_rate": "1.0",
	}}

	payloads, ladder, _ := builder.Build("CR-1", "USD", rows)
	require.Len(t, payloads, 3)
	require.Len(t, ladder, 3)

	assert.Equal(t, "0", payloads[0]["LowerBand"])
	assert.Equal(t, "100", payloads[0]["UpperBand"])
	assert.Equal(t, "100.0000000001", payloads[1]["LowerBand"])
	assert.Equal(t, "200", payloads[1]["UpperBand"])
	assert.Equal(t, "200.0000000001", payloads[2]["LowerBand"])
	assert.Equal(t, "-1", payloads[2]["UpperBand"])
	for _, payload := range payloads {
		assert.Equal(t, "2025-06-15T00:00:00.000Z", payload["EffectiveDate"])
	}
}

func TestBuildEffectiveDateResolution(t *testing.T) {
	tests := []struct {
		name     string
		row      input.Row
		expected string
	}{
		{
			name:     "effective date wins",
			row:      input.Row{"rate": "1", "effective_date": "2025-06-01", "start_date": "2025-01-01"},
			expected: "2025-06-01T00:00:00.000Z",
		},
		{
			name:     "start date next",
			row:      input.Row{"rate": "1", "start_date": "2025-02-01"},
			expected: "2025-02-01T00:00:00.000Z",
		},
		{
			name:     "builder fallback last",
			row:      input.Row{"rate": "1"},
			expected: "2025-01-01T00:00:00.000Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payloads, _, _ := testBuilder(nil).Build("CR-1", "USD", []input.Row{tt.row})
			require.Len(t, payloads, 1)
			assert.Equal(t, tt.expected, payloads[0]["EffectiveDate"])
		})
	}
}

func TestBuildEndDate(t *testing.T) {
	rows := []input.Row{{"rate": "1", "start_date": "2025-01-01", "end_date": "2025-12-31"}}
	payloads, _, _ := testBuilder(nil).Build("CR-1", "USD", rows)
	require.Len(t, payloads, 1)
	assert.Equal(t, "2025-12-31T00:00:00.000Z", payloads[0]["EndDate"])
}

func TestBuildSkipsExistingPeriods(t *testing.T) {
	existing := []ledger.Record{
		{"Id": "P-1", "CurrencyCode": "USD", "LowerBand": "0.00", "UpperBand": "100.000"},
	}
	builder := testBuilder(BuildIndex(existing, "USD"))
	rows := []input.Row{{
		"tier1_from_qty": "0", "tier1_to_qty": "100", "tier1_rate": "1.5",
		"tier2_to_qty": "-1", "tier2_rate": "1.2",
	}}

	payloads, _, skipped := builder.Build("CR-1", "USD", rows)
	require.Len(t, payloads, 1, "only the new tier is created")
	assert.Equal(t, "100.0000000001", payloads[0]["LowerBand"])
	require.Len(t, skipped, 1)
	assert.Equal(t, "P-1", skipped[0].Existing.ID())
}

func TestBuildIndexCurrencyScoping(t *testing.T) {
	existing := []ledger.Record{
		{"Id": "P-1", "CurrencyCode": "EUR", "LowerBand": "0", "UpperBand": "-1"},
	}
	builder := testBuilder(BuildIndex(existing, "EUR"))

	payloads, _, skipped := builder.Build("CR-1", "USD", []input.Row{{"rate": "1", "start_date": "2025-01-01"}})
	assert.Len(t, payloads, 1, "a period in another currency does not deduplicate")
	assert.Empty(t, skipped)
}

func TestOrderForCreationPutsUnlimitedLast(t *testing.T) {
	ten := decimal.NewFromInt(10)
	hundred := decimal.NewFromInt(100)
	ladder := tier.Ladder{
		{Lower: hundred, Rate: decimal.NewFromInt(1)},
		{Lower: ten, Upper: &hundred, Rate: decimal.NewFromInt(2)},
		{Lower: decimal.Zero, Upper: &ten, Rate: decimal.NewFromInt(3)},
	}

	ordered := orderForCreation(ladder)
	require.Len(t, ordered, 3)
	assert.True(t, ordered[0].Lower.IsZero())
	assert.True(t, ordered[1].Lower.Equal(ten))
	assert.True(t, ordered[2].Unlimited(), "the unbounded tier is submitted last")

	assert.True(t, ladder[0].Unlimited(), "the input ladder is left untouched")
}

func TestIndexLookupNilReceiver(t *testing.T) {
	var idx *Index
	_, ok := idx.Lookup("USD", decimal.Zero, nil)
	assert.False(t, ok)
}
