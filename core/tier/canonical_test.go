package tier

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-pricing/core/input"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	parsed, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return parsed
}

func decPtr(t *testing.T, value string) *decimal.Decimal {
	t.Helper()
	parsed := dec(t, value)
	return &parsed
}

func TestFromRowStructuredWinsOverLegacy(t *testing.T) {
	cols := input.DefaultColumns()
	row := input.Row{
		"tier1_from_qty": "0", "tier1_to_qty": "100", "tier1_rate": "2.0",
		"pricing_tiers": "500:9.9;-1:8.8",
		"rate":          "1.0",
	}

	ladder, source := FromRow(row, cols)
	assert.Equal(t, SourceStructured, source)
	require.Len(t, ladder, 1)
	assert.True(t, ladder[0].Rate.Equal(dec(t, "2.0")))
}

func TestFromRowLegacy(t *testing.T) {
	cols := input.DefaultColumns()
	row := input.Row{
		"pricing_tiers": "100:1.5;-1:1.2",
		"rate":          "9.0",
	}

	ladder, source := FromRow(row, cols)
	assert.Equal(t, SourceLegacy, source)
	require.Len(t, ladder, 2)
	assert.True(t, ladder[0].Lower.IsZero())
	assert.Equal(t, "100.0000000001", ladder[1].Lower.String())
	assert.Nil(t, ladder[1].Upper)
}

func TestFromRowFallbackFlatRate(t *testing.T) {
	cols := input.DefaultColumns()
	ladder, source := FromRow(input.Row{"rate": "3.25"}, cols)
	assert.Equal(t, SourceFallback, source)
	require.Len(t, ladder, 1)
	assert.True(t, ladder[0].Lower.IsZero())
	assert.Nil(t, ladder[0].Upper)
	assert.True(t, ladder[0].Rate.Equal(dec(t, "3.25")))
}

func TestFromRowFallbackMissingRateIsZero(t *testing.T) {
	cols := input.DefaultColumns()
	ladder, source := FromRow(input.Row{}, cols)
	assert.Equal(t, SourceFallback, source)
	require.Len(t, ladder, 1)
	assert.True(t, ladder[0].Rate.IsZero())
}

func TestCanonicalizeChainsOmittedLowers(t *testing.T) {
	tiers := []Tier{
		{Upper: decPtr(t, "100"), Rate: dec(t, "1.5")},
		{Upper: decPtr(t, "200"), Rate: dec(t, "1.2")},
		{Upper: nil, Rate: dec(t, "1.0")},
	}
	ladder := Canonicalize(tiers)
	require.Len(t, ladder, 3)
	assert.Equal(t, "0", ladder[0].Lower.String())
	assert.Equal(t, "100.0000000001", ladder[1].Lower.String())
	assert.Equal(t, "200.0000000001", ladder[2].Lower.String())
	assert.True(t, ladder.Contiguous())
}

func TestCanonicalizeKeepsExplicitLowers(t *testing.T) {
	tiers := []Tier{
		{Lower: decPtr(t, "10"), Upper: decPtr(t, "100"), Rate: dec(t, "1.5")},
	}
	ladder := Canonicalize(tiers)
	require.Len(t, ladder, 1)
	assert.Equal(t, "10", ladder[0].Lower.String())
}

func TestCanonicalizeLegacy(t *testing.T) {
	tiers := []Tier{
		{Upper: decPtr(t, "100"), Rate: dec(t, "1.5")},
		{Upper: nil, Rate: dec(t, "1.0")},
		{Upper: decPtr(t, "500"), Rate: dec(t, "0.5")},
	}
	ladder := CanonicalizeLegacy(tiers)
	require.Len(t, ladder, 2, "tiers after the unlimited tier are dropped")
	assert.Equal(t, "0", ladder[0].Lower.String())
	assert.Equal(t, "100.0000000001", ladder[1].Lower.String())
	assert.Nil(t, ladder[1].Upper)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		ladder   Ladder
		expected int
	}{
		{
			name: "valid ladder passes through",
			ladder: Ladder{
				{Lower: dec(t, "0"), Upper: decPtr(t, "100"), Rate: dec(t, "1.5")},
				{Lower: dec(t, "100.0000000001"), Upper: nil, Rate: dec(t, "1.0")},
			},
			expected: 2,
		},
		{
			name: "negative lower truncates",
			ladder: Ladder{
				{Lower: dec(t, "-5"), Upper: decPtr(t, "100"), Rate: dec(t, "1.5")},
			},
			expected: 0,
		},
		{
			name: "upper below lower truncates",
			ladder: Ladder{
				{Lower: dec(t, "0"), Upper: decPtr(t, "100"), Rate: dec(t, "1.5")},
				{Lower: dec(t, "100.0000000001"), Upper: decPtr(t, "50"), Rate: dec(t, "1.0")},
			},
			expected: 1,
		},
		{
			name: "gap truncates",
			ladder: Ladder{
				{Lower: dec(t, "0"), Upper: decPtr(t, "100"), Rate: dec(t, "1.5")},
				{Lower: dec(t, "150"), Upper: nil, Rate: dec(t, "1.0")},
			},
			expected: 1,
		},
		{
			name: "tier after unlimited truncates",
			ladder: Ladder{
				{Lower: dec(t, "0"), Upper: nil, Rate: dec(t, "1.5")},
				{Lower: dec(t, "100"), Upper: nil, Rate: dec(t, "1.0")},
			},
			expected: 1,
		},
		{
			name:     "empty ladder",
			ladder:   Ladder{},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.ladder)
			assert.Len(t, result, tt.expected)
			assert.True(t, result.Contiguous())
		})
	}
}

func TestContiguous(t *testing.T) {
	contiguous := Ladder{
		{Lower: dec(t, "0"), Upper: decPtr(t, "100"), Rate: dec(t, "1.5")},
		{Lower: dec(t, "100.0000000001"), Upper: nil, Rate: dec(t, "1.0")},
	}
	assert.True(t, contiguous.Contiguous())

	gapped := Ladder{
		{Lower: dec(t, "0"), Upper: decPtr(t, "100"), Rate: dec(t, "1.5")},
		{Lower: dec(t, "101"), Upper: nil, Rate: dec(t, "1.0")},
	}
	assert.False(t, gapped.Contiguous())
}
