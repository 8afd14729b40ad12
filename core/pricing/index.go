package pricing

import (
	"github.com/shopspring/decimal"

	"contract-pricing/core/ledger"
	"contract-pricing/core/money"
)

// indexKey identifies one existing period by currency and band pair. Bands
// are normalized through money.Format so textual variants of the same
// quantity collide.
type indexKey struct {
	currency string
	lower    string
	upper    string
}

func newIndexKey(currency string, lower, upper *decimal.Decimal) indexKey {
	key := indexKey{currency: currency, lower: "-1", upper: "-1"}
	if lower != nil {
		key.lower = money.Format(*lower)
	}
	if upper != nil {
		key.upper = money.Format(*upper)
	}
	return key
}

// Index looks up existing remote pricing periods by (currency, lower,
// upper) for idempotent creation. A nil Index disables deduplication.
type Index struct {
	entries map[indexKey]ledger.Record
}

// BuildIndex indexes existing pricing records. Records without a currency
// fall back to the supplied default.
func BuildIndex(records []ledger.Record, defaultCurrency string) *Index {
	idx := &Index{entries: make(map[indexKey]ledger.Record, len(records))}
	for _, record := range records {
		currency := record.Get("CurrencyCode")
		if currency == "" {
			currency = defaultCurrency
		}
		lower := money.ParseBand(record.Get("LowerBand"))
		upper := money.ParseBand(record.Get("UpperBand"))
		idx.entries[newIndexKey(currency, lower, upper)] = record
	}
	return idx
}

// Lookup returns the existing record matching the band pair, if any
func (i *Index) Lookup(currency string, lower decimal.Decimal, upper *decimal.Decimal) (ledger.Record, bool) {
	if i == nil {
		return nil, false
	}
	record, ok := i.entries[newIndexKey(currency, &lower, upper)]
	return record, ok
}
