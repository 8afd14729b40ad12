package input

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"contract-pricing/internal/logging"
)

// DateLayout is the plain date layout used in row cells
const DateLayout = "2006-01-02"

// StampSuffix turns a plain date into the ledger's midnight UTC timestamp
const StampSuffix = "T00:00:00.000Z"

// Stamp renders a date as the ledger's midnight UTC timestamp
func Stamp(d time.Time) string {
	return d.Format(DateLayout) + StampSuffix
}

// ParseDate parses a YYYY-MM-DD cell, falling back on invalid or empty
// input. A zero fallback resolves to today.
func ParseDate(value string, fallback time.Time) time.Time {
	if value != "" {
		if d, err := time.Parse(DateLayout, value); err == nil {
			return d
		}
		logging.Sugar.Warnf("Invalid date '%s', defaulting to fallback", value)
	}
	if fallback.IsZero() {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return fallback
}

// ParseOptionalDate parses a YYYY-MM-DD cell; absent or invalid input
// yields ok=false.
func ParseOptionalDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		logging.Sugar.Warnf("Invalid date '%s', defaulting to none", value)
		return time.Time{}, false
	}
	return d, true
}

// ParseISODate parses a date that may carry a timestamp portion, keeping
// only the date part. Absent or invalid input yields ok=false.
func ParseISODate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	text := strings.TrimSpace(strings.SplitN(value, "T", 2)[0])
	if text == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, text)
	if err != nil {
		logging.Sugar.Warnf("Invalid date '%s', defaulting to none", value)
		return time.Time{}, false
	}
	return d, true
}

// ParseQuantity parses a positive integer quantity, defaulting to 1
func ParseQuantity(value string) int {
	if value == "" {
		return 1
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Sugar.Warnf("Invalid quantity '%s', defaulting to 1", value)
		return 1
	}
	if parsed <= 0 {
		return 1
	}
	return parsed
}

// ParseRate parses a decimal rate cell, defaulting to 0
func ParseRate(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	rate, err := decimal.NewFromString(value)
	if err != nil {
		logging.Sugar.Warnf("Invalid rate '%s', defaulting to 0", value)
		return decimal.Zero
	}
	return rate
}

// ParseBool reports whether a cell holds a truthy marker
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y", "t":
		return true
	}
	return false
}
