// Package cmd - load command
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"contract-pricing/adapters/billingplatform"
	"contract-pricing/adapters/csvsource"
	"contract-pricing/core/amendment"
	"contract-pricing/core/input"
	"contract-pricing/core/ledger"
	"contract-pricing/core/loader"
	"contract-pricing/internal/config"
	"contract-pricing/internal/logging"
)

var (
	inputFile     string
	columnFlags   input.Columns
	billingIdent  string
	settleSeconds int
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load contract pricing rows from a CSV file",
	Long: `Read pricing rows from a CSV file and apply them to the billing ledger.

Rows without an action (or with action "Create") provision new contracts:
account, billing profile, contract, currencies, account products, contract
rates and tiered pricing. Rows with amendment actions (Quantity Change,
Price Change) modify existing contracts instead. A single file must not
mix the two.

Examples:
  contract-pricing load --input contracts.csv
  contract-pricing load --input contracts.csv --account-column AccountName
  contract-pricing load --input amendments.csv --verbose`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVarP(&inputFile, "input", "i", "", "path to the CSV file containing source data")
	loadCmd.MarkFlagRequired("input")

	loadCmd.Flags().StringVar(&columnFlags.Account, "account-column", "", "column with the account name")
	loadCmd.Flags().StringVar(&columnFlags.Product, "product-column", "", "column with the product name")
	loadCmd.Flags().StringVar(&columnFlags.Quantity, "quantity-column", "", "column containing quantity (default 1)")
	loadCmd.Flags().StringVar(&columnFlags.Currency, "currency-column", "", "column containing the contract currency")
	loadCmd.Flags().StringVar(&columnFlags.Rate, "rate-column", "", "column containing the flat contract rate")
	loadCmd.Flags().StringVar(&columnFlags.StartDate, "start-date-column", "", "column containing the start date (YYYY-MM-DD)")
	loadCmd.Flags().StringVar(&columnFlags.EffectiveDate, "effective-date-column", "", "column containing the rate effective date")
	loadCmd.Flags().StringVar(&columnFlags.EndDate, "end-date-column", "", "column containing the rate end date")
	loadCmd.Flags().StringVar(&columnFlags.ContractStatus, "contract-status-column", "", "column for contract status")
	loadCmd.Flags().StringVar(&columnFlags.AccountProductStatus, "account-product-status-column", "", "column for account product status")
	loadCmd.Flags().StringVar(&columnFlags.ContractGroup, "contract-group-column", "", "column grouping rows into one contract")
	loadCmd.Flags().StringVar(&columnFlags.Tiers, "tiers-column", "", "legacy tier column (semicolon separated upper:rate entries)")
	loadCmd.Flags().StringVar(&columnFlags.RateOnly, "rate-only-column", "", "column flagging rows that skip account product creation")
	loadCmd.Flags().StringVar(&columnFlags.PricingOnly, "pricing-only-column", "", "column flagging rows that only create pricing records")
	loadCmd.Flags().StringVar(&columnFlags.BundleComponent, "bundle-component-column", "", "column flagging account-product-only bundle rows")
	loadCmd.Flags().StringVar(&columnFlags.ExternalContractID, "cpq-contract-id-column", "", "column with the external contract id used by amendments")
	loadCmd.Flags().StringVar(&columnFlags.Action, "action-column", "", "column determining row behavior (Create, Quantity Change, Price Change)")

	loadCmd.Flags().StringVar(&billingIdent, "billing-identifier-product-name", "", "product added per contract with its billing identifier set to the contract number")
	loadCmd.Flags().IntVar(&settleSeconds, "settle-seconds", 2, "pause after binding the billing profile")
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg := config.Get()
	if err := cfg.Validate(); err != nil {
		return err
	}
	columns := mergeColumnFlags(cfg.Columns)
	settings := loaderSettings(cmd, cfg)

	rows, err := csvsource.Load(inputFile)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("Input contained no data rows.")
		return nil
	}

	createCount, amendmentCount := 0, 0
	for _, row := range rows {
		if action, _ := amendment.ParseAction(row.Get(columns.Action)); action.IsAmendment() {
			amendmentCount++
		} else {
			createCount++
		}
	}
	if createCount > 0 && amendmentCount > 0 {
		return fmt.Errorf("input mixes %d create rows with %d amendment rows; split the file by action", createCount, amendmentCount)
	}

	client := billingplatform.NewClient(billingplatform.Options{
		LoginURL: cfg.API.LoginURL,
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout(),
	})
	if err := client.Login(ctx, cfg.API.Username, cfg.API.Password); err != nil {
		return err
	}

	directory := ledger.NewDirectory(client)
	verify := ledger.VerifyPolicy{
		Attempts: cfg.API.VerifyAttempts,
		Interval: time.Duration(cfg.API.VerifyIntervalSeconds) * time.Second,
	}

	if amendmentCount > 0 {
		logging.Sugar.Infof("Processing %d amendment rows", amendmentCount)
		processor := &amendment.Processor{
			Transport: client,
			Directory: directory,
			Columns:   columns,
		}
		return processor.Process(ctx, rows)
	}

	logging.Sugar.Infof("Processing %d create rows", createCount)
	run := &loader.Loader{
		Transport:   client,
		Directory:   directory,
		Columns:     columns,
		Settings:    settings,
		Verify:      verify,
		SettleDelay: time.Duration(settleSeconds) * time.Second,
	}
	return run.Run(ctx, rows)
}

// mergeColumnFlags overlays non-empty column flags on the configured
// column mapping
func mergeColumnFlags(columns input.Columns) input.Columns {
	overlay := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	overlay(&columns.Account, columnFlags.Account)
	overlay(&columns.Product, columnFlags.Product)
	overlay(&columns.Quantity, columnFlags.Quantity)
	overlay(&columns.Currency, columnFlags.Currency)
	overlay(&columns.Rate, columnFlags.Rate)
	overlay(&columns.StartDate, columnFlags.StartDate)
	overlay(&columns.EffectiveDate, columnFlags.EffectiveDate)
	overlay(&columns.EndDate, columnFlags.EndDate)
	overlay(&columns.ContractStatus, columnFlags.ContractStatus)
	overlay(&columns.AccountProductStatus, columnFlags.AccountProductStatus)
	overlay(&columns.ContractGroup, columnFlags.ContractGroup)
	overlay(&columns.Tiers, columnFlags.Tiers)
	overlay(&columns.RateOnly, columnFlags.RateOnly)
	overlay(&columns.PricingOnly, columnFlags.PricingOnly)
	overlay(&columns.BundleComponent, columnFlags.BundleComponent)
	overlay(&columns.ExternalContractID, columnFlags.ExternalContractID)
	overlay(&columns.Action, columnFlags.Action)
	return columns
}

// loaderSettings resolves the create-path settings, letting the explicit
// flag override the configured product name (an empty flag value skips
// the billing identifier entirely)
func loaderSettings(cmd *cobra.Command, cfg *config.Config) loader.Settings {
	settings := loader.Settings{
		BillingIdentifierProduct:    cfg.Loader.BillingIdentifierProduct,
		DefaultContractStatus:       cfg.Loader.DefaultContractStatus,
		DefaultAccountProductStatus: cfg.Loader.DefaultAccountProductStatus,
	}
	if cmd.Flags().Changed("billing-identifier-product-name") {
		settings.BillingIdentifierProduct = billingIdent
	}
	return settings
}
