package tier

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"contract-pricing/core/input"
	"contract-pricing/core/money"
	"contract-pricing/internal/logging"
)

// ParseStructured reads the numbered tier slots of a row. Parsing stops at
// the first slot with all three cells empty. A slot with cells present but
// a missing or unparsable rate aborts the remaining slots; the ladder built
// so far is kept.
func ParseStructured(row input.Row) []Tier {
	var tiers []Tier
	var previousUpper *decimal.Decimal

	for index := 1; index <= MaxSlots; index++ {
		prefix := fmt.Sprintf("tier%d", index)
		lowerRaw := row.Get(prefix + "_from_qty")
		upperRaw := row.Get(prefix + "_to_qty")
		rateRaw := row.Get(prefix + "_rate")

		if lowerRaw == "" && upperRaw == "" && rateRaw == "" {
			break
		}

		if rateRaw == "" {
			logging.Sugar.Warnf("Tier %d is missing a rate value; skipping remaining tiers", index)
			break
		}
		rate, err := decimal.NewFromString(rateRaw)
		if err != nil {
			logging.Sugar.Warnf("Invalid rate '%s' for tier %d; skipping remaining tiers", rateRaw, index)
			break
		}

		var lower decimal.Decimal
		if lowerRaw != "" {
			lower, err = decimal.NewFromString(lowerRaw)
			if err != nil {
				logging.Sugar.Warnf("Invalid lower quantity '%s' for tier %d; skipping remaining tiers", lowerRaw, index)
				break
			}
		} else if previousUpper == nil {
			lower = decimal.Zero
		} else {
			lower = money.NextLower(*previousUpper)
		}

		if previousUpper != nil {
			expected := money.NextLower(*previousUpper)
			if lowerRaw != "" && !lower.Equal(expected) {
				logging.Sugar.Warnf(
					"Tier %d lower quantity %s does not match the previous tier upper quantity %s plus increment %s",
					index, lower, previousUpper, money.Increment,
				)
			} else if lowerRaw == "" {
				lower = expected
			}
		}

		var upper *decimal.Decimal
		if upperRaw != "" {
			parsed, err := decimal.NewFromString(upperRaw)
			if err != nil {
				logging.Sugar.Warnf("Invalid upper quantity '%s' for tier %d; skipping remaining tiers", upperRaw, index)
				break
			}
			if !money.IsUnlimited(parsed) {
				upper = &parsed
			}
		}

		if upper != nil && upper.LessThan(lower) {
			logging.Sugar.Warnf(
				"Tier %d upper quantity %s is below lower quantity %s; skipping remaining tiers",
				index, upper, lower,
			)
			break
		}

		lowerCopy := lower
		tiers = append(tiers, Tier{Lower: &lowerCopy, Upper: upper, Rate: rate})

		if upper == nil {
			break
		}
		previousUpper = upper
	}

	if len(tiers) > 0 && tiers[len(tiers)-1].Upper != nil {
		logging.Sugar.Warnf(
			"Last tier upper quantity is %s; append an unlimited tier (to_qty = -1) if usage can exceed this value",
			tiers[len(tiers)-1].Upper,
		)
	}
	return tiers
}

// ParseLegacy reads one delimited "upper:rate;upper:rate" cell. Lower
// bounds are implicit. A malformed pair skips only that pair.
func ParseLegacy(raw string) []Tier {
	var tiers []Tier
	if strings.TrimSpace(raw) == "" {
		return tiers
	}
	for _, part := range strings.Split(raw, ";") {
		entry := strings.TrimSpace(part)
		if entry == "" {
			continue
		}
		upperPart, ratePart, found := strings.Cut(entry, ":")
		if !found {
			logging.Sugar.Warnf("Skipping malformed tier definition '%s'", entry)
			continue
		}
		upperPart = strings.TrimSpace(upperPart)
		ratePart = strings.TrimSpace(ratePart)

		var upper *decimal.Decimal
		if upperPart != "-1" {
			parsed, err := decimal.NewFromString(upperPart)
			if err != nil {
				logging.Sugar.Warnf("Invalid upper band '%s' in tier '%s'", upperPart, entry)
				continue
			}
			upper = &parsed
		}
		rate, err := decimal.NewFromString(ratePart)
		if err != nil {
			logging.Sugar.Warnf("Invalid rate '%s' in tier '%s'", ratePart, entry)
			continue
		}
		tiers = append(tiers, Tier{Upper: upper, Rate: rate})
	}
	return tiers
}
