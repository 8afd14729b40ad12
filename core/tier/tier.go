// Package tier - Usage tier parsing and canonicalization
// Converts spreadsheet rows in either source encoding into one normalized,
// gap-free, non-overlapping tier ladder with exact decimal bounds.
package tier

import (
	"github.com/shopspring/decimal"

	"contract-pricing/core/money"
)

// MaxSlots is the maximum number of structured tier slots per row
const MaxSlots = 12

// Source identifies the row encoding a ladder was built from
type Source string

const (
	// SourceStructured means numbered tier{n}_from_qty/to_qty/rate cells
	SourceStructured Source = "structured"

	// SourceLegacy means one delimited "upper:rate;upper:rate" cell
	SourceLegacy Source = "legacy"

	// SourceFallback means a single unbounded tier from the flat rate cell
	SourceFallback Source = "fallback"
)

// Tier is a raw tier parsed from a row, not yet validated for contiguity.
// A nil Lower means the bound was omitted and must be derived by chaining;
// a nil Upper means unlimited.
type Tier struct {
	Lower *decimal.Decimal
	Upper *decimal.Decimal
	Rate  decimal.Decimal
}

// CanonicalTier is a fully resolved tier with an explicit lower bound.
// A nil Upper means unlimited.
type CanonicalTier struct {
	Lower decimal.Decimal
	Upper *decimal.Decimal
	Rate  decimal.Decimal
}

// Unlimited reports whether the tier has no upper bound
func (t CanonicalTier) Unlimited() bool {
	return t.Upper == nil
}

// Ladder is a canonical, contiguous, sorted tier sequence for one row
type Ladder []CanonicalTier

// Contiguous reports whether every adjacent pair of tiers satisfies
// next.Lower == prev.Upper + money.Increment.
func (l Ladder) Contiguous() bool {
	for i := 1; i < len(l); i++ {
		prev := l[i-1]
		if prev.Upper == nil {
			return false
		}
		if !l[i].Lower.Equal(money.NextLower(*prev.Upper)) {
			return false
		}
	}
	return true
}
