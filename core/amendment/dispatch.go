package amendment

import (
	"context"

	"go.uber.org/multierr"

	"contract-pricing/core/input"
	"contract-pricing/core/ledger"
	"contract-pricing/core/pricing"
	"contract-pricing/internal/errors"
	"contract-pricing/internal/logging"
)

// Processor runs an amendment file: quantity changes row by row first,
// then price changes group by group. A failed row or group is logged and
// skipped; processing continues.
type Processor struct {
	Transport ledger.Transport
	Directory *ledger.Directory
	Columns   input.Columns
}

// Process dispatches amendment rows by action. Rows flagged for both
// changes are handled by each path. Failures are logged per row and
// group; an error is returned only when every row and group failed.
func (p *Processor) Process(ctx context.Context, rows []input.Row) error {
	var quantityRows, priceRows []input.Row
	for _, row := range rows {
		action, ok := ParseAction(row.Get(p.Columns.Action))
		if !ok || !action.IsAmendment() {
			logging.Sugar.Errorf("Unexpected action '%s' in amendment file; row skipped", row.Get(p.Columns.Action))
			continue
		}
		switch action {
		case ActionQuantityChange:
			quantityRows = append(quantityRows, row)
		case ActionPriceChange:
			priceRows = append(priceRows, row)
		case ActionQuantityAndPriceChange:
			quantityRows = append(quantityRows, row)
			priceRows = append(priceRows, row)
		}
	}

	var failures error
	attempted, failed := 0, 0

	handler := &QuantityHandler{Transport: p.Transport, Directory: p.Directory, Columns: p.Columns}
	for idx, row := range quantityRows {
		attempted++
		if err := handler.Handle(ctx, row, idx+1); err != nil {
			logging.Sugar.Errorf("Quantity change row %d failed: %v", idx+1, err)
			failures = multierr.Append(failures, err)
			failed++
		}
	}

	for _, group := range GroupPriceRows(priceRows, p.Columns) {
		attempted++
		if err := p.applyPriceChange(ctx, group); err != nil {
			logging.Sugar.Errorf("Price change group %+v failed: %v", group.Key, err)
			failures = multierr.Append(failures, err)
			failed++
		}
	}
	if failed == attempted && failed > 0 {
		return failures
	}
	return nil
}

// applyPriceChange resolves the group's remote identifiers and hands the
// rows to the pricing reconciler
func (p *Processor) applyPriceChange(ctx context.Context, group Group) error {
	key := group.Key
	if key.Currency == "" {
		return errors.Precondition("price change: currency missing")
	}
	if key.ExternalContractID == "" {
		return errors.Precondition("price change: external contract id missing")
	}

	accountID := p.Directory.AccountID(ctx, key.Account)
	if accountID == "" {
		return errors.NotFound("account", key.Account)
	}

	contractID, err := ledger.QueryFirstID(ctx, p.Transport, ledger.ContractByExternalID(key.ExternalContractID, accountID))
	if err != nil {
		return errors.Wrap(errors.TypeNetwork, "price change: contract lookup", err)
	}
	if contractID == "" {
		return errors.NotFound("contract", key.ExternalContractID)
	}

	productID := p.Directory.ProductID(ctx, key.Product)
	if productID == "" {
		return errors.NotFound("product", key.Product)
	}

	contractRateID, err := ledger.QueryFirstID(ctx, p.Transport, ledger.ContractRateFor(contractID, productID))
	if err != nil {
		return errors.Wrap(errors.TypeNetwork, "price change: contract rate lookup", err)
	}
	if contractRateID == "" {
		return errors.NotFound("contract rate", key.Contract+"/"+key.Product)
	}

	reconciler := &pricing.Reconciler{Transport: p.Transport, Columns: p.Columns}
	return reconciler.ApplyPriceChange(ctx, contractRateID, key.Currency, group.Rows, key.Product)
}
