package amendment

import (
	"sort"
	"time"

	"contract-pricing/core/input"
)

// GroupKey identifies one price-change amendment group. Rows sharing the
// key are spliced together, in effective date order.
type GroupKey struct {
	Contract           string
	Account            string
	Product            string
	Currency           string
	ExternalContractID string
}

// Group is one amendment group's rows in effective date order
type Group struct {
	Key  GroupKey
	Rows []input.Row
}

// GroupPriceRows groups price-change rows by GroupKey, preserving first
// appearance order across groups and sorting each group's rows by
// effective date ascending (unparsable dates sort last).
func GroupPriceRows(rows []input.Row, cols input.Columns) []Group {
	indexByKey := make(map[GroupKey]int)
	var groups []Group

	for _, row := range rows {
		key := GroupKey{
			Contract:           row.Get(cols.ContractGroup),
			Account:            row.Get(cols.Account),
			Product:            row.Get(cols.Product),
			Currency:           row.Get(cols.Currency),
			ExternalContractID: row.Get(cols.ExternalContractID),
		}
		idx, ok := indexByKey[key]
		if !ok {
			idx = len(groups)
			indexByKey[key] = idx
			groups = append(groups, Group{Key: key})
		}
		groups[idx].Rows = append(groups[idx].Rows, row)
	}

	for i := range groups {
		sortRowsByEffectiveDate(groups[i].Rows, cols)
	}
	return groups
}

func sortRowsByEffectiveDate(rows []input.Row, cols input.Columns) {
	sortKey := func(row input.Row) time.Time {
		raw := row.Get(cols.EffectiveDate)
		if raw == "" {
			raw = row.Get(cols.StartDate)
		}
		if d, ok := input.ParseISODate(raw); ok {
			return d
		}
		return time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return sortKey(rows[i]).Before(sortKey(rows[j]))
	})
}
