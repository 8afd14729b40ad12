// Package input - Normalized row input
// Everything downstream consumes rows through the configured column names.
// Decouples CSV layout and header naming from the pricing core.
package input

import "strings"

// Row is one logical pricing row keyed by source column name
type Row map[string]string

// Get returns the trimmed cell value for a column, or "" when absent
func (r Row) Get(column string) string {
	if column == "" {
		return ""
	}
	return strings.TrimSpace(r[column])
}

// Flag reports whether a column holds a truthy marker value
func (r Row) Flag(column string) bool {
	return ParseBool(r.Get(column))
}

// Columns maps the semantic fields of a pricing row onto source column
// names. Every name is configurable; the defaults match the upstream CSV
// export.
type Columns struct {
	Account              string `hcl:"account,optional" json:"account"`
	Product              string `hcl:"product,optional" json:"product"`
	Quantity             string `hcl:"quantity,optional" json:"quantity"`
	Currency             string `hcl:"currency,optional" json:"currency"`
	Rate                 string `hcl:"rate,optional" json:"rate"`
	StartDate            string `hcl:"start_date,optional" json:"start_date"`
	EffectiveDate        string `hcl:"effective_date,optional" json:"effective_date"`
	EndDate              string `hcl:"end_date,optional" json:"end_date"`
	ContractStatus       string `hcl:"contract_status,optional" json:"contract_status"`
	AccountProductStatus string `hcl:"account_product_status,optional" json:"account_product_status"`
	ContractGroup        string `hcl:"contract_group,optional" json:"contract_group"`
	Tiers                string `hcl:"tiers,optional" json:"tiers"`
	RateOnly             string `hcl:"rate_only,optional" json:"rate_only"`
	PricingOnly          string `hcl:"pricing_only,optional" json:"pricing_only"`
	BundleComponent      string `hcl:"bundle_component,optional" json:"bundle_component"`
	ExternalContractID   string `hcl:"external_contract_id,optional" json:"external_contract_id"`
	Action               string `hcl:"action,optional" json:"action"`
}

// DefaultColumns returns the column names of the upstream CSV export
func DefaultColumns() Columns {
	return Columns{
		Account:              "account_name",
		Product:              "product_name",
		Quantity:             "quantity",
		Currency:             "currency_code",
		Rate:                 "rate",
		StartDate:            "start_date",
		EffectiveDate:        "effective_date",
		EndDate:              "end_date",
		ContractStatus:       "contract_status",
		AccountProductStatus: "account_product_status",
		ContractGroup:        "contract",
		Tiers:                "pricing_tiers",
		RateOnly:             "contract_rate_only",
		PricingOnly:          "pricing_only",
		BundleComponent:      "bundle_component",
		ExternalContractID:   "CPQ_Contractid",
		Action:               "action",
	}
}
