package loader

import (
	"context"
	"fmt"
	"time"

	"contract-pricing/core/input"
	"contract-pricing/core/ledger"
	"contract-pricing/core/pricing"
	"contract-pricing/internal/errors"
	"contract-pricing/internal/logging"
)

// processGroup provisions one contract group end to end
func (l *Loader) processGroup(ctx context.Context, group contractGroup) error {
	firstRow := group.rows[0]
	accountName := firstRow.Get(l.Columns.Account)
	currencyCode := firstRow.Get(l.Columns.Currency)
	if err := requireGroupFields(accountName, currencyCode); err != nil {
		return err
	}

	logging.Sugar.Infof("Processing contract group '%s' for account '%s'", group.key, accountName)

	account, err := l.ensureAccount(ctx, accountName)
	if err != nil {
		return err
	}

	contractStatus := firstRow.Get(l.Columns.ContractStatus)
	if contractStatus == "" {
		contractStatus = l.Settings.DefaultContractStatus
	}
	startDate := input.ParseDate(firstRow.Get(l.Columns.StartDate), time.Time{})
	externalContractID := firstRow.Get(l.Columns.ExternalContractID)
	billTo := firstBillTo(firstRow, accountName)

	profileID, err := l.ensureBillingProfile(ctx, account, accountName, currencyCode, startDate, billTo)
	if err != nil {
		return err
	}
	profileID, err = l.bindBillingProfile(ctx, account, accountName, profileID)
	if err != nil {
		return err
	}
	l.settle(ctx)

	contractNumber, err := l.nextContractNumber(ctx, startDate)
	if err != nil {
		return err
	}

	logging.Sugar.Infof("Creating contract %s for account %s (contract group '%s')",
		contractNumber, account.ID(), group.key)
	contractResponse, err := l.Transport.Create(ctx, ledger.EntityContract, ledger.Fields{
		"AccountId":       account.ID(),
		"ContractNumber":  contractNumber,
		"StartDate":       startDate.Format(input.DateLayout),
		"OnEndDate":       "Terminate",
		"ContractStatus":  contractStatus,
		"C_CPQContractId": externalContractID,
	})
	if err != nil {
		return errors.Wrap(errors.TypeNetwork, "contract creation", err)
	}
	contract := ledger.First(contractResponse)
	if contract == nil || contract.ID() == "" {
		return errors.Newf(errors.TypeRemote, "contract creation returned no id for group '%s'", group.key)
	}
	contractID := contract.ID()

	summary := &groupSummary{
		Key:              group.key,
		ContractResponse: contractResponse,
	}

	processedCurrencies := map[string]bool{}
	if err := l.createContractCurrency(ctx, contractID, currencyCode, summary); err != nil {
		return err
	}
	processedCurrencies[currencyCode] = true

	l.createBillingIdentifier(ctx, account.ID(), contractID, contractNumber, firstRow, startDate, summary)

	for _, pg := range l.productGroups(group.rows, currencyCode) {
		if !processedCurrencies[pg.currency] {
			if err := l.createContractCurrency(ctx, contractID, pg.currency, summary); err != nil {
				logging.Sugar.Errorf("Contract currency creation failed for contract '%s' currency '%s': %v",
					group.key, pg.currency, err)
				continue
			}
			processedCurrencies[pg.currency] = true
		}
		product := l.processProduct(ctx, account.ID(), contractID, pg, startDate)
		if product != nil {
			summary.Products = append(summary.Products, *product)
		}
	}

	fmt.Fprintln(l.out(), summary.render())
	return nil
}

// createContractCurrency adds one currency to the contract
func (l *Loader) createContractCurrency(ctx context.Context, contractID, currencyCode string, summary *groupSummary) error {
	logging.Sugar.Infof("Creating contract currency %s for contract %s", currencyCode, contractID)
	response, err := l.Transport.Create(ctx, ledger.EntityContractCurrency, ledger.Fields{
		"ContractId":   contractID,
		"CurrencyCode": currencyCode,
	})
	if err != nil {
		return errors.Wrap(errors.TypeNetwork, "contract currency creation for "+currencyCode, err)
	}
	summary.CurrencyResponses = append(summary.CurrencyResponses, response...)
	return nil
}

// createBillingIdentifier adds the optional billing identifier account
// product carrying the contract number. Failures are logged, not fatal.
func (l *Loader) createBillingIdentifier(
	ctx context.Context,
	accountID, contractID, contractNumber string,
	firstRow input.Row,
	startDate time.Time,
	summary *groupSummary,
) {
	productName := l.Settings.BillingIdentifierProduct
	if productName == "" {
		return
	}
	productID := l.Directory.ProductID(ctx, productName)
	if productID == "" {
		logging.Sugar.Warnf("Billing identifier product '%s' not found; skipping", productName)
		return
	}

	status := firstRow.Get(l.Columns.AccountProductStatus)
	if status == "" {
		status = l.Settings.DefaultAccountProductStatus
	}
	logging.Sugar.Infof("Creating billing identifier account product for contract %s (%s)", contractID, productName)
	outcome := ledger.ResolveCreate(ctx, l.Transport, ledger.EntityAccountProduct, ledger.Fields{
		"AccountId":  accountID,
		"ContractID": contractID,
		"ProductID":  productID,
		"StartDate":  startDate.Format(input.DateLayout),
		"Quantity":   "1",
		"Status":     status,
		"BillIdent":  contractNumber,
	}, ledger.AccountProductFor(contractID, productID), l.Verify)
	switch outcome.Status {
	case ledger.StatusCreated:
		summary.BillingIdentifier = outcome.Record
	default:
		logging.Sugar.Errorf("Billing identifier account product creation failed for contract %s: %v",
			contractID, outcome.Err)
	}
}

// productGroup is one (product, currency) bucket of a contract group
type productGroup struct {
	product  string
	currency string
	rows     []input.Row
}

// productGroups buckets rows by product and currency, preserving first
// appearance order. Rows without a product are skipped.
func (l *Loader) productGroups(rows []input.Row, defaultCurrency string) []productGroup {
	type key struct{ product, currency string }
	indexByKey := make(map[key]int)
	var groups []productGroup
	for _, row := range rows {
		productName := row.Get(l.Columns.Product)
		if productName == "" {
			logging.Sugar.Warnf("Skipping row with missing product name")
			continue
		}
		currency := row.Get(l.Columns.Currency)
		if currency == "" {
			currency = defaultCurrency
		}
		k := key{productName, currency}
		idx, ok := indexByKey[k]
		if !ok {
			idx = len(groups)
			indexByKey[k] = idx
			groups = append(groups, productGroup{product: productName, currency: currency})
		}
		groups[idx].rows = append(groups[idx].rows, row)
	}
	return groups
}

// processProduct provisions one product of a contract: account products,
// contract rate and pricing. Returns nil when the product id cannot be
// resolved.
func (l *Loader) processProduct(
	ctx context.Context,
	accountID, contractID string,
	pg productGroup,
	contractStart time.Time,
) *productSummary {
	productID := l.Directory.ProductID(ctx, pg.product)
	if productID == "" {
		return nil
	}

	var bundleRows, pricingRows, nonPricingOnlyRows []input.Row
	for _, row := range pg.rows {
		if row.Flag(l.Columns.BundleComponent) {
			bundleRows = append(bundleRows, row)
			continue
		}
		pricingRows = append(pricingRows, row)
		if !row.Flag(l.Columns.PricingOnly) {
			nonPricingOnlyRows = append(nonPricingOnlyRows, row)
		}
	}

	summary := &productSummary{Name: pg.product, Currency: pg.currency}

	switch {
	case len(pricingRows) == 0:
		logging.Sugar.Infof(
			"All rows for product '%s' are bundle components; skipping contract rate and pricing", pg.product)
	case len(nonPricingOnlyRows) > 0:
		logging.Sugar.Infof("Creating contract rate for contract %s, product %s", contractID, productID)
		outcome := ledger.ResolveCreate(ctx, l.Transport, ledger.EntityContractRate, ledger.Fields{
			"ContractID": contractID,
			"ProductID":  productID,
			"RateOrder":  "1",
			"Status":     "Active",
		}, ledger.ContractRateFor(contractID, productID), l.Verify)
		if outcome.Status == ledger.StatusCreated && outcome.Record != nil {
			summary.ContractRateID = outcome.Record.ID()
			summary.ContractRateResponse = outcome.Record
		} else {
			logging.Sugar.Errorf("Contract rate creation failed for product '%s': %v", pg.product, outcome.Err)
		}
	default:
		// Pricing-only rows reuse an existing contract rate.
		existing, err := l.Transport.Query(ctx, ledger.ContractRateFor(contractID, productID))
		if err != nil {
			logging.Sugar.Errorf("Contract rate lookup failed for product '%s': %v", pg.product, err)
			return summary
		}
		if rate := ledger.First(existing); rate != nil {
			summary.ContractRateID = rate.ID()
			summary.ContractRateResponse = rate
		} else {
			logging.Sugar.Errorf(
				"Pricing-only rows for product '%s' but no contract rate exists; skipping pricing creation", pg.product)
			return summary
		}
	}

	if len(pricingRows) > 0 && summary.ContractRateID == "" {
		logging.Sugar.Errorf("No contract rate id resolved for product '%s'; skipping product", pg.product)
		return summary
	}

	l.createAccountProducts(ctx, accountID, contractID, productID, pg, contractStart,
		nonPricingOnlyRows, bundleRows, summary)
	l.createPricing(ctx, pg, contractStart, summary)
	return summary
}

// createAccountProducts creates the account products of a product group.
// Rate-only rows skip creation; bundle component rows always create.
func (l *Loader) createAccountProducts(
	ctx context.Context,
	accountID, contractID, productID string,
	pg productGroup,
	contractStart time.Time,
	nonPricingOnlyRows, bundleRows []input.Row,
	summary *productSummary,
) {
	createOne := func(row input.Row, bundle bool) {
		rowStart := input.ParseDate(row.Get(l.Columns.StartDate), contractStart)
		status := row.Get(l.Columns.AccountProductStatus)
		if status == "" {
			status = l.Settings.DefaultAccountProductStatus
		}
		quantity := input.ParseQuantity(row.Get(l.Columns.Quantity))

		logging.Sugar.Infof("Creating account product '%s' for contract %s (account %s)",
			pg.product, contractID, accountID)
		outcome := ledger.ResolveCreate(ctx, l.Transport, ledger.EntityAccountProduct, ledger.Fields{
			"AccountId":  accountID,
			"ContractID": contractID,
			"ProductID":  productID,
			"StartDate":  rowStart.Format(input.DateLayout),
			"Quantity":   fmt.Sprintf("%d", quantity),
			"Status":     status,
		}, ledger.AccountProductFor(contractID, productID), l.Verify)
		if outcome.Status == ledger.StatusCreated {
			summary.AccountProducts = append(summary.AccountProducts, accountProductResult{
				Bundle:   bundle,
				Response: outcome.Record,
			})
		} else {
			logging.Sugar.Errorf("Account product creation failed for '%s': %v", pg.product, outcome.Err)
		}
	}

	for _, row := range nonPricingOnlyRows {
		if row.Flag(l.Columns.RateOnly) {
			logging.Sugar.Infof("Skipping account product creation for '%s' (rate-only row)", pg.product)
			summary.AccountProducts = append(summary.AccountProducts, accountProductResult{Skipped: true})
			continue
		}
		createOne(row, false)
	}
	for _, row := range bundleRows {
		createOne(row, true)
	}
}

// createPricing builds and submits the pricing ladder batch for one
// product group, deduplicating against existing periods
func (l *Loader) createPricing(
	ctx context.Context,
	pg productGroup,
	contractStart time.Time,
	summary *productSummary,
) {
	if summary.ContractRateID == "" {
		return
	}

	var pricingDrivingRows []input.Row
	for _, row := range pg.rows {
		if !row.Flag(l.Columns.BundleComponent) {
			pricingDrivingRows = append(pricingDrivingRows, row)
		}
	}

	existing, err := l.Transport.Query(ctx, ledger.PricingForContractRate(summary.ContractRateID))
	if err != nil {
		logging.Sugar.Errorf("Existing pricing lookup failed for contract rate %s: %v", summary.ContractRateID, err)
		return
	}

	builder := &pricing.Builder{
		Columns:       l.Columns,
		FallbackStart: contractStart,
		Index:         pricing.BuildIndex(existing, pg.currency),
		ProductName:   pg.product,
	}
	payloads, ladder, skipped := builder.Build(summary.ContractRateID, pg.currency, pricingDrivingRows)
	summary.Ladder = ladder
	summary.Skipped = skipped

	if len(payloads) == 0 {
		return
	}
	logging.Sugar.Infof("Creating %d pricing records for product '%s' in a single batch", len(payloads), pg.product)
	response, err := l.Transport.CreateBatch(ctx, ledger.EntityPricing, payloads)
	if err != nil {
		logging.Sugar.Errorf("Batch pricing creation failed for product '%s': %v", pg.product, err)
		return
	}
	summary.PricingResponses = response
}

// firstBillTo resolves the bill-to name from the row's common header
// variants, defaulting to the account name
func firstBillTo(row input.Row, accountName string) string {
	for _, column := range []string{"bill_to", "bill_to_name", "BillTo", "Bill_To"} {
		if value := row.Get(column); value != "" {
			return value
		}
	}
	return accountName
}
