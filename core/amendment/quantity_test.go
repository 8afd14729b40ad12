package amendment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-pricing/core/input"
	"contract-pricing/core/ledger"
	"contract-pricing/core/ledger/ledgertest"
	"contract-pricing/internal/errors"
)

// ledgerFixture routes lookup queries the way the remote ledger would for
// one account, contract, product and account product.
func ledgerFixture(accountProductStatus string) *ledgertest.Fake {
	return &ledgertest.Fake{
		QueryFunc: func(ctx context.Context, sql string) ([]ledger.Record, error) {
			switch {
			case strings.Contains(sql, "FROM ACCOUNT WHERE"):
				return []ledger.Record{{"Id": "A-1", "Name": "Acme"}}, nil
			case strings.Contains(sql, "FROM PRODUCT WHERE"):
				return []ledger.Record{{"Id": "PR-1"}}, nil
			case strings.Contains(sql, "FROM CONTRACT WHERE C_CPQContractId"):
				return []ledger.Record{{"Id": "C-1", "StartDate": "2025-01-01T00:00:00.000Z"}}, nil
			case strings.Contains(sql, "FROM ACCOUNT_PRODUCT WHERE Id"):
				return []ledger.Record{{"Id": "AP-1", "Status": accountProductStatus}}, nil
			case strings.Contains(sql, "FROM ACCOUNT_PRODUCT WHERE"):
				return []ledger.Record{{"Id": "AP-1"}}, nil
			case strings.Contains(sql, "FROM CONTRACT_RATE WHERE"):
				return []ledger.Record{{"Id": "CR-1"}}, nil
			default:
				return nil, nil
			}
		},
	}
}

func quantityRow() input.Row {
	return input.Row{
		"account_name":   "Acme",
		"product_name":   "Widget",
		"CPQ_Contractid": "EXT-1",
		"quantity":       "5",
		"action":         "Quantity Change",
	}
}

func TestQuantityChange(t *testing.T) {
	fake := ledgerFixture("Active")
	handler := &QuantityHandler{Transport: fake, Directory: ledger.NewDirectory(fake), Columns: input.DefaultColumns()}

	err := handler.Handle(context.Background(), quantityRow(), 1)
	require.NoError(t, err)

	updates := fake.CallsTo("Update")
	require.Len(t, updates, 1)
	assert.Equal(t, ledger.EntityAccountProduct, updates[0].Entity)
	assert.Equal(t, "AP-1", updates[0].Fields["Id"])
	assert.Equal(t, "5", updates[0].Fields["Quantity"])
	assert.Equal(t, "2025-01-01T00:00:00.000Z", updates[0].Fields["ContractModificationDate"])
}

func TestQuantityChangeInactiveAccountProduct(t *testing.T) {
	fake := ledgerFixture("Closed")
	handler := &QuantityHandler{Transport: fake, Directory: ledger.NewDirectory(fake), Columns: input.DefaultColumns()}

	err := handler.Handle(context.Background(), quantityRow(), 1)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypePrecondition))
	assert.Empty(t, fake.CallsTo("Update"))
}

func TestQuantityChangeMissingExternalID(t *testing.T) {
	fake := ledgerFixture("Active")
	handler := &QuantityHandler{Transport: fake, Directory: ledger.NewDirectory(fake), Columns: input.DefaultColumns()}

	row := quantityRow()
	delete(row, "CPQ_Contractid")
	err := handler.Handle(context.Background(), row, 1)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypePrecondition))
}

func TestQuantityChangeInvalidQuantity(t *testing.T) {
	fake := ledgerFixture("Active")
	handler := &QuantityHandler{Transport: fake, Directory: ledger.NewDirectory(fake), Columns: input.DefaultColumns()}

	row := quantityRow()
	row["quantity"] = "lots"
	err := handler.Handle(context.Background(), row, 3)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInput))
	assert.Empty(t, fake.Calls, "nothing is looked up for an unparsable quantity")
}

func TestQuantityChangeUnknownContract(t *testing.T) {
	fake := &ledgertest.Fake{
		QueryFunc: func(ctx context.Context, sql string) ([]ledger.Record, error) {
			if strings.Contains(sql, "FROM ACCOUNT WHERE") {
				return []ledger.Record{{"Id": "A-1"}}, nil
			}
			return nil, nil
		},
	}
	handler := &QuantityHandler{Transport: fake, Directory: ledger.NewDirectory(fake), Columns: input.DefaultColumns()}

	err := handler.Handle(context.Background(), quantityRow(), 1)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))
}
