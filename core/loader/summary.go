package loader

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"contract-pricing/core/ledger"
	"contract-pricing/core/money"
	"contract-pricing/core/pricing"
	"contract-pricing/core/tier"
)

// accountProductResult is one account product outcome within a product
// summary
type accountProductResult struct {
	Bundle   bool
	Skipped  bool
	Response ledger.Record
}

// productSummary captures what happened for one (product, currency) of a
// contract group
type productSummary struct {
	Name                 string
	Currency             string
	ContractRateID       string
	ContractRateResponse ledger.Record
	AccountProducts      []accountProductResult
	Ladder               tier.Ladder
	Skipped              []pricing.SkippedTier
	PricingResponses     []ledger.Record
}

// groupSummary is the human-readable report of one processed contract
// group, printed after the group completes
type groupSummary struct {
	Key               string
	ContractResponse  []ledger.Record
	CurrencyResponses []ledger.Record
	BillingIdentifier ledger.Record
	Products          []productSummary
}

func (s *groupSummary) render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "==== Contract group '%s' ====\n", s.Key)
	fmt.Fprintf(&b, "Contract response:\n%s\n", indentJSON(s.ContractResponse))
	if len(s.CurrencyResponses) > 0 {
		fmt.Fprintf(&b, "Contract currency responses:\n%s\n", indentJSON(s.CurrencyResponses))
	}
	if s.BillingIdentifier != nil {
		fmt.Fprintf(&b, "Billing identifier account product:\n%s\n", indentJSON(s.BillingIdentifier))
	}
	for i := range s.Products {
		b.WriteString(s.Products[i].render())
	}
	return strings.TrimRight(b.String(), "\n")
}

func (p *productSummary) render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Product '%s' (%s) --\n", p.Name, p.Currency)
	if p.ContractRateID != "" {
		fmt.Fprintf(&b, "Contract rate: %s\n", p.ContractRateID)
	}

	created, skippedRows := 0, 0
	for _, ap := range p.AccountProducts {
		if ap.Skipped {
			skippedRows++
		} else {
			created++
		}
	}
	if created > 0 || skippedRows > 0 {
		fmt.Fprintf(&b, "Account products: %d created, %d skipped (rate-only)\n", created, skippedRows)
	}

	if len(p.Ladder) > 0 {
		b.WriteString("Tiers:\n")
		for _, t := range p.Ladder {
			fmt.Fprintf(&b, "  %s - %s @ %s\n",
				money.Format(t.Lower), upperLabel(t.Upper), money.Format(t.Rate))
		}
	}
	if len(p.Skipped) > 0 {
		fmt.Fprintf(&b, "Pricing periods already present: %d\n", len(p.Skipped))
	}
	if len(p.PricingResponses) > 0 {
		fmt.Fprintf(&b, "Pricing responses:\n%s\n", indentJSON(p.PricingResponses))
	}
	return b.String()
}

func upperLabel(upper *decimal.Decimal) string {
	if upper == nil {
		return "unlimited"
	}
	return money.Format(*upper)
}

func indentJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
