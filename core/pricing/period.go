// Package pricing - Pricing period creation and reconciliation
// Expands canonical tier ladders into ledger create payloads, deduplicates
// against existing periods, and splices price-change amendments into the
// ledger's pricing period timeline.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"contract-pricing/core/input"
	"contract-pricing/core/ledger"
	"contract-pricing/core/money"
)

// Period is a pricing period as stored by the remote ledger. Only EndDate
// is ever mutated remotely; bands and rate of an existing period are
// immutable.
type Period struct {
	ID             string
	ContractRateID string
	CurrencyCode   string
	Lower          *decimal.Decimal
	Upper          *decimal.Decimal
	Rate           string
	EffectiveDate  time.Time
	HasEffective   bool
	EndDate        time.Time
	HasEnd         bool
}

// ParsePeriod reads a pricing period out of a ledger record
func ParsePeriod(record ledger.Record) Period {
	effective, hasEffective := input.ParseISODate(record.Get("EffectiveDate"))
	end, hasEnd := input.ParseISODate(record.Get("EndDate"))
	return Period{
		ID:             record.ID(),
		ContractRateID: record.Get("ContractRateId"),
		CurrencyCode:   record.Get("CurrencyCode"),
		Lower:          money.ParseBand(record.Get("LowerBand")),
		Upper:          money.ParseBand(record.Get("UpperBand")),
		Rate:           record.Get("Rate"),
		EffectiveDate:  effective,
		HasEffective:   hasEffective,
		EndDate:        end,
		HasEnd:         hasEnd,
	}
}

// Covers reports whether the period's [EffectiveDate, EndDate] window
// contains the given date
func (p Period) Covers(date time.Time) bool {
	if !p.HasEffective || p.EffectiveDate.After(date) {
		return false
	}
	return !p.HasEnd || !p.EndDate.Before(date)
}
