package amendment

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"contract-pricing/core/input"
	"contract-pricing/core/ledger"
	"contract-pricing/internal/errors"
	"contract-pricing/internal/logging"
)

// QuantityHandler applies quantity-change amendments: resolve the account,
// the contract by external id, the product, and the single active account
// product, then update its quantity.
type QuantityHandler struct {
	Transport ledger.Transport
	Directory *ledger.Directory
	Columns   input.Columns
}

// Handle applies one quantity-change row. rowNumber is 1-based and used
// for diagnostics only.
func (h *QuantityHandler) Handle(ctx context.Context, row input.Row, rowNumber int) error {
	accountName := row.Get(h.Columns.Account)
	productName := row.Get(h.Columns.Product)
	externalID := row.Get(h.Columns.ExternalContractID)

	quantity, err := decimal.NewFromString(row.Get(h.Columns.Quantity))
	if err != nil {
		return errors.Newf(errors.TypeInput, "row %d: invalid quantity '%s'", rowNumber, row.Get(h.Columns.Quantity))
	}

	accountID := h.Directory.AccountID(ctx, accountName)
	if accountID == "" {
		return errors.NotFound("account", accountName)
	}
	if externalID == "" {
		return errors.Precondition("missing external contract id")
	}

	contract, err := h.Transport.Query(ctx, ledger.ContractByExternalID(externalID, accountID))
	if err != nil {
		return errors.Wrapf(errors.TypeNetwork, err, "row %d: contract lookup", rowNumber)
	}
	contractRecord := ledger.First(contract)
	if contractRecord == nil {
		return errors.NotFound("contract", externalID)
	}
	contractID := contractRecord.ID()
	contractStart := contractRecord.Get("StartDate")
	if contractStart == "" {
		return errors.Precondition("contract " + contractID + " missing start date; cannot set modification date")
	}

	productID := h.Directory.ProductID(ctx, productName)
	if productID == "" {
		return errors.NotFound("product", productName)
	}

	accountProducts, err := h.Transport.Query(ctx, ledger.AccountProductFor(contractID, productID))
	if err != nil {
		return errors.Wrapf(errors.TypeNetwork, err, "row %d: account product lookup", rowNumber)
	}
	accountProduct := ledger.First(accountProducts)
	if accountProduct == nil {
		return errors.NotFound("account product", externalID+"/"+productName)
	}
	accountProductID := accountProduct.ID()

	details, err := h.Transport.Query(ctx, ledger.AccountProductByID(accountProductID))
	if err != nil {
		return errors.Wrapf(errors.TypeNetwork, err, "row %d: account product status lookup", rowNumber)
	}
	detail := ledger.First(details)
	if detail == nil {
		return errors.NotFound("account product", accountProductID)
	}
	if status := detail.Get("Status"); !strings.EqualFold(status, "ACTIVE") {
		return errors.Newf(errors.TypePrecondition,
			"account product %s is not active (status %s)", accountProductID, status)
	}

	fields := ledger.Fields{
		"Id":       accountProductID,
		"Quantity": quantity.String(),
		// Modification date follows the contract's start date, matching
		// the ledger amendment endpoint's expectations.
		"ContractModificationDate": contractStart,
	}
	if _, err := h.Transport.Update(ctx, ledger.EntityAccountProduct, fields); err != nil {
		return errors.Wrapf(errors.TypeNetwork, err, "row %d: quantity update for account product %s", rowNumber, accountProductID)
	}

	logging.Sugar.Infof("Row %d: updated quantity for account product %s to %s", rowNumber, accountProductID, quantity)
	return nil
}
