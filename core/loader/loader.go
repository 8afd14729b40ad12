// Package loader - Contract provisioning workflow
// Drives the create path: ensure account and billing profile, allocate a
// contract number, create the contract with its currencies, account
// products and contract rates, then submit the pricing ladders.
package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/multierr"

	"contract-pricing/core/input"
	"contract-pricing/core/ledger"
	"contract-pricing/internal/errors"
	"contract-pricing/internal/logging"
)

// Settings are the workflow knobs of the create path
type Settings struct {
	// BillingIdentifierProduct is an optional product added per contract
	// with its billing identifier set to the contract number. Empty
	// skips it.
	BillingIdentifierProduct string

	// DefaultContractStatus applies when the row carries none
	DefaultContractStatus string

	// DefaultAccountProductStatus applies when the row carries none
	DefaultAccountProductStatus string
}

// DefaultSettings returns the workflow defaults
func DefaultSettings() Settings {
	return Settings{
		BillingIdentifierProduct:    "Billing Identifier",
		DefaultContractStatus:       "Terminated",
		DefaultAccountProductStatus: "Active",
	}
}

// Loader runs the create-path workflow. Groups are processed one at a
// time; a failed group is logged and skipped, later groups continue.
type Loader struct {
	Transport ledger.Transport
	Directory *ledger.Directory
	Columns   input.Columns
	Settings  Settings
	Verify    ledger.VerifyPolicy

	// SettleDelay pauses after the billing profile association, which
	// the ledger indexes asynchronously
	SettleDelay time.Duration

	// Out receives the per-group text summaries; defaults to stdout
	Out io.Writer
}

// contractGroup is one contract's worth of rows, keyed by the contract
// grouping column
type contractGroup struct {
	key  string
	rows []input.Row
}

// Run processes all create rows, grouped by the contract column. The
// returned error is non-nil only when every group failed.
func (l *Loader) Run(ctx context.Context, rows []input.Row) error {
	if len(rows) == 0 {
		logging.Sugar.Info("Input contained no data rows")
		return nil
	}

	groups := l.groupRows(rows)
	var failures error
	failed := 0
	for _, group := range groups {
		if err := l.processGroup(ctx, group); err != nil {
			logging.Sugar.Errorf("Contract group '%s' failed: %v", group.key, err)
			failures = multierr.Append(failures, fmt.Errorf("group %s: %w", group.key, err))
			failed++
		}
	}
	if failed == len(groups) && failed > 0 {
		return failures
	}
	return nil
}

// groupRows buckets rows by the contract grouping column, preserving
// first appearance order. Rows without a contract identifier fall back to
// an account:product key.
func (l *Loader) groupRows(rows []input.Row) []contractGroup {
	indexByKey := make(map[string]int)
	var groups []contractGroup
	for _, row := range rows {
		key := row.Get(l.Columns.ContractGroup)
		if key == "" {
			fallback := row.Get(l.Columns.Account) + ":" + row.Get(l.Columns.Product)
			if fallback == ":" {
				fallback = fmt.Sprintf("row-%d", len(groups)+1)
			}
			key = fallback
			logging.Sugar.Warnf("Row missing contract identifier; defaulting to '%s'", key)
		}
		idx, ok := indexByKey[key]
		if !ok {
			idx = len(groups)
			indexByKey[key] = idx
			groups = append(groups, contractGroup{key: key})
		}
		groups[idx].rows = append(groups[idx].rows, row)
	}
	return groups
}

// out returns the summary destination
func (l *Loader) out() io.Writer {
	if l.Out != nil {
		return l.Out
	}
	return os.Stdout
}

// settle pauses for the ledger's asynchronous indexing
func (l *Loader) settle(ctx context.Context) {
	if l.SettleDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(l.SettleDelay):
	}
}

// requireGroupFields validates the group preconditions taken from its
// first row
func requireGroupFields(accountName, currencyCode string) error {
	if accountName == "" {
		return errors.Precondition("account name is missing")
	}
	if currencyCode == "" {
		return errors.Precondition("currency code is missing")
	}
	return nil
}
