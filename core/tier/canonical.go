package tier

import (
	"github.com/shopspring/decimal"

	"contract-pricing/core/input"
	"contract-pricing/core/money"
	"contract-pricing/internal/logging"
)

// FromRow builds the canonical ladder for one row. Structured slots take
// precedence over the legacy cell; when neither yields tiers, a single
// unbounded tier at the flat rate is synthesized.
func FromRow(row input.Row, cols input.Columns) (Ladder, Source) {
	if structured := ParseStructured(row); len(structured) > 0 {
		return Validate(Canonicalize(structured)), SourceStructured
	}
	if legacy := ParseLegacy(row.Get(cols.Tiers)); len(legacy) > 0 {
		return Validate(CanonicalizeLegacy(legacy)), SourceLegacy
	}
	fallbackRate := input.ParseRate(row.Get(cols.Rate))
	return Ladder{{Lower: decimal.Zero, Upper: nil, Rate: fallbackRate}}, SourceFallback
}

// Canonicalize resolves the explicit lower bound of every structured tier,
// chaining omitted lowers from the previous tier's upper bound.
func Canonicalize(tiers []Tier) Ladder {
	ladder := make(Ladder, 0, len(tiers))
	for _, t := range tiers {
		var lower decimal.Decimal
		switch {
		case t.Lower != nil:
			lower = *t.Lower
		case len(ladder) == 0:
			lower = decimal.Zero
		case ladder[len(ladder)-1].Upper != nil:
			lower = money.NextLower(*ladder[len(ladder)-1].Upper)
		default:
			lower = ladder[len(ladder)-1].Lower
		}
		ladder = append(ladder, CanonicalTier{Lower: lower, Upper: t.Upper, Rate: t.Rate})
	}
	return ladder
}

// CanonicalizeLegacy converts legacy tiers into explicit lower/upper
// pairs: the first tier starts at 0, each subsequent tier starts at the
// previous upper bound plus the increment. Tiers after an unlimited tier
// are dropped.
func CanonicalizeLegacy(tiers []Tier) Ladder {
	ladder := make(Ladder, 0, len(tiers))
	lower := decimal.Zero
	for _, t := range tiers {
		ladder = append(ladder, CanonicalTier{Lower: lower, Upper: t.Upper, Rate: t.Rate})
		if t.Upper == nil {
			break
		}
		lower = money.NextLower(*t.Upper)
	}
	return ladder
}

// Validate enforces the ladder invariants: lower >= 0, upper >= lower,
// contiguity between adjacent tiers, and at most one unlimited tier in
// last position. The ladder is truncated at the first violating tier.
func Validate(ladder Ladder) Ladder {
	for i, t := range ladder {
		if t.Lower.IsNegative() {
			logging.Sugar.Errorf("Tier %d lower bound %s is negative; truncating ladder", i+1, money.Format(t.Lower))
			return ladder[:i]
		}
		if t.Upper != nil && t.Upper.LessThan(t.Lower) {
			logging.Sugar.Errorf(
				"Tier %d upper bound %s is below lower bound %s; truncating ladder",
				i+1, money.Format(*t.Upper), money.Format(t.Lower),
			)
			return ladder[:i]
		}
		if i > 0 {
			prev := ladder[i-1]
			if prev.Upper == nil {
				logging.Sugar.Errorf("Tier %d follows an unlimited tier; truncating ladder", i+1)
				return ladder[:i]
			}
			if !t.Lower.Equal(money.NextLower(*prev.Upper)) {
				logging.Sugar.Errorf(
					"Tier %d lower bound %s is not contiguous with previous upper bound %s; truncating ladder",
					i+1, money.Format(t.Lower), money.Format(*prev.Upper),
				)
				return ladder[:i]
			}
		}
	}
	return ladder
}
