// Package money - Canonical decimal rendering for pricing bands and rates
// Band strings must round-trip exactly: two encodings of the same quantity
// compare equal as decimals, never as text.
package money

import (
	"strings"

	"github.com/shopspring/decimal"

	"contract-pricing/internal/logging"
)

// BandDigits is the number of fractional digits a pricing band carries
const BandDigits = 10

// Increment is the smallest representable band step. The next tier's lower
// bound is the previous tier's upper bound plus Increment.
var Increment = decimal.New(1, -BandDigits)

// unlimitedSentinel is the wire value meaning "no upper limit"
var unlimitedSentinel = decimal.NewFromInt(-1)

// Format renders a decimal as the shortest exact band string: integral
// values carry no fractional part, everything else is quantized to
// BandDigits places with trailing zeros stripped.
func Format(value decimal.Decimal) string {
	if value.Equal(value.Truncate(0)) {
		return value.Truncate(0).String()
	}
	text := value.Round(BandDigits).StringFixed(BandDigits)
	text = strings.TrimRight(text, "0")
	text = strings.TrimSuffix(text, ".")
	if text == "" {
		return "0"
	}
	return text
}

// FormatUpper renders an upper band, with nil meaning unlimited ("-1")
func FormatUpper(upper *decimal.Decimal) string {
	if upper == nil {
		return "-1"
	}
	return Format(*upper)
}

// ParseBand parses a band string from the ledger. Empty or unparsable
// input and the unlimited sentinel both yield nil.
func ParseBand(value string) *decimal.Decimal {
	text := strings.TrimSpace(value)
	if text == "" {
		return nil
	}
	parsed, err := decimal.NewFromString(text)
	if err != nil {
		logging.Sugar.Debugf("Unable to parse pricing band value '%s'", value)
		return nil
	}
	if parsed.Equal(unlimitedSentinel) {
		return nil
	}
	return &parsed
}

// IsUnlimited reports whether a raw band value is the unlimited sentinel
func IsUnlimited(value decimal.Decimal) bool {
	return value.Equal(unlimitedSentinel)
}

// NextLower returns the lower bound chained from a previous upper bound
func NextLower(previousUpper decimal.Decimal) decimal.Decimal {
	return previousUpper.Add(Increment)
}
