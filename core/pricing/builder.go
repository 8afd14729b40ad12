package pricing

import (
	"sort"
	"time"

	"contract-pricing/core/input"
	"contract-pricing/core/ledger"
	"contract-pricing/core/money"
	"contract-pricing/core/tier"
	"contract-pricing/internal/logging"
)

// SkippedTier records a tier that already existed remotely and was not
// recreated
type SkippedTier struct {
	Existing ledger.Record
}

// Builder expands the canonical ladders of a row group into pricing
// create payloads, deduplicating against an optional existing-period
// index. A nil Index means full creation with no dedup.
type Builder struct {
	Columns       input.Columns
	FallbackStart time.Time
	Index         *Index
	ProductName   string
}

// Build produces the create payloads for one (contract rate, currency)
// group. It returns the payloads, the last non-empty canonical ladder
// seen (for reporting), and the tiers skipped because they already exist.
func (b *Builder) Build(contractRateID, currencyCode string, rows []input.Row) ([]ledger.Fields, tier.Ladder, []SkippedTier) {
	var payloads []ledger.Fields
	var skipped []SkippedTier
	var lastLadder tier.Ladder

	for _, row := range rows {
		startFallback := input.ParseDate(row.Get(b.Columns.StartDate), b.FallbackStart)
		effectiveDate := input.ParseDate(row.Get(b.Columns.EffectiveDate), startFallback)
		endDate, hasEnd := input.ParseOptionalDate(row.Get(b.Columns.EndDate))
		effectiveISO := input.Stamp(effectiveDate)

		ladder, _ := tier.FromRow(row, b.Columns)
		if len(ladder) > 0 {
			lastLadder = ladder
		}

		ordered := orderForCreation(ladder)

		for index, t := range ordered {
			lowerBand := money.Format(t.Lower)

			if t.Upper != nil && t.Upper.LessThan(t.Lower) {
				logging.Sugar.Errorf(
					"Tier %d upper quantity (%s) is below lower quantity (%s) for product '%s'; skipping remaining tiers",
					index+1, money.Format(*t.Upper), lowerBand, b.ProductName,
				)
				break
			}
			upperBand := money.FormatUpper(t.Upper)

			if existing, ok := b.Index.Lookup(currencyCode, t.Lower, t.Upper); ok {
				logging.Sugar.Infof(
					"Pricing tier already exists for product '%s' (currency %s, lower %s, upper %s); skipping creation",
					b.ProductName, currencyCode, lowerBand, upperBand,
				)
				skipped = append(skipped, SkippedTier{Existing: existing})
				continue
			}

			payload := ledger.Fields{
				"CurrencyCode":   currencyCode,
				"ContractRateId": contractRateID,
				"EffectiveDate":  effectiveISO,
				"LowerBand":      lowerBand,
				"UpperBand":      upperBand,
				"Rate":           money.Format(t.Rate),
				"RerateFlag":     "0",
			}
			if hasEnd {
				payload["EndDate"] = input.Stamp(endDate)
			}
			payloads = append(payloads, payload)
		}
	}

	return payloads, lastLadder, skipped
}

// orderForCreation sorts a ladder by ascending lower band with the
// unlimited tier last, regardless of input order.
func orderForCreation(ladder tier.Ladder) tier.Ladder {
	ordered := make(tier.Ladder, len(ladder))
	copy(ordered, ladder)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Unlimited() != ordered[j].Unlimited() {
			return !ordered[i].Unlimited()
		}
		return ordered[i].Lower.LessThan(ordered[j].Lower)
	})
	return ordered
}
