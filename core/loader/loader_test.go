package loader

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-pricing/core/input"
	"contract-pricing/core/ledger"
	"contract-pricing/core/ledger/ledgertest"
	"contract-pricing/internal/errors"
)

// provisionFixture simulates the remote ledger for the create path: one
// existing account, no billing profile yet, one allocated contract number.
type provisionFixture struct {
	fake           *ledgertest.Fake
	boundProfileID string
	profileCreated bool
}

func newProvisionFixture() *provisionFixture {
	p := &provisionFixture{fake: &ledgertest.Fake{}}

	p.fake.QueryFunc = func(ctx context.Context, sql string) ([]ledger.Record, error) {
		switch {
		case strings.Contains(sql, "FROM ACCOUNT WHERE Name = 'Acme'"):
			return []ledger.Record{{
				"Id": "A-1", "Name": "Acme", "BillableBillingProfileId": p.boundProfileID,
			}}, nil
		case strings.Contains(sql, "FROM BILLING_PROFILE WHERE AccountID"):
			if !p.profileCreated {
				return nil, nil
			}
			return []ledger.Record{{"Id": "BP-1", "AccountID": "A-1"}}, nil
		case strings.Contains(sql, "ContractNumber LIKE"):
			return []ledger.Record{{"ContractNumber": "2025-01-01_01"}}, nil
		case strings.Contains(sql, "FROM PRODUCT WHERE Name = 'Widget'"):
			return []ledger.Record{{"Id": "PR-1"}}, nil
		case strings.Contains(sql, "FROM PRODUCT WHERE Name = 'Billing Identifier'"):
			return []ledger.Record{{"Id": "PR-BI"}}, nil
		default:
			return nil, nil
		}
	}

	p.fake.CreateFunc = func(ctx context.Context, entity ledger.Entity, fields ledger.Fields) ([]ledger.Record, error) {
		switch entity {
		case ledger.EntityBillingProfile:
			p.profileCreated = true
			return []ledger.Record{{"Id": "BP-1", "ErrorCode": "0"}}, nil
		case ledger.EntityContract:
			return []ledger.Record{{"Id": "C-1", "ErrorCode": "0"}}, nil
		case ledger.EntityContractCurrency:
			return []ledger.Record{{"Id": "CC-1"}}, nil
		case ledger.EntityContractRate:
			return []ledger.Record{{"Id": "CR-1"}}, nil
		case ledger.EntityAccountProduct:
			return []ledger.Record{{"Id": "AP-1"}}, nil
		default:
			return []ledger.Record{{"Id": "X-1"}}, nil
		}
	}

	p.fake.UpdateFunc = func(ctx context.Context, entity ledger.Entity, fields ledger.Fields) ([]ledger.Record, error) {
		if entity == ledger.EntityAccount {
			p.boundProfileID = fields["BillableBillingProfileId"]
		}
		return []ledger.Record{{"Id": fields["Id"], "ErrorCode": "0"}}, nil
	}

	return p
}

func newTestLoader(fake *ledgertest.Fake, out *bytes.Buffer) *Loader {
	return &Loader{
		Transport: fake,
		Directory: ledger.NewDirectory(fake),
		Columns:   input.DefaultColumns(),
		Settings:  DefaultSettings(),
		Verify:    ledger.VerifyPolicy{Attempts: 1},
		Out:       out,
	}
}

func createRow() input.Row {
	return input.Row{
		"contract":       "C1",
		"account_name":   "Acme",
		"product_name":   "Widget",
		"currency_code":  "USD",
		"quantity":       "2",
		"start_date":     "2025-01-01",
		"CPQ_Contractid": "EXT-1",
		"tier1_from_qty": "0", "tier1_to_qty": "100", "tier1_rate": "1.5",
		"tier2_to_qty": "-1", "tier2_rate": "1.2",
	}
}

func createsOf(fake *ledgertest.Fake, entity ledger.Entity) []ledgertest.Call {
	var matched []ledgertest.Call
	for _, call := range fake.CallsTo("Create") {
		if call.Entity == entity {
			matched = append(matched, call)
		}
	}
	return matched
}

func TestRunProvisionsContract(t *testing.T) {
	fixture := newProvisionFixture()
	var out bytes.Buffer
	l := newTestLoader(fixture.fake, &out)

	err := l.Run(context.Background(), []input.Row{createRow()})
	require.NoError(t, err)

	profiles := createsOf(fixture.fake, ledger.EntityBillingProfile)
	require.Len(t, profiles, 1)
	assert.Equal(t, "A-1", profiles[0].Fields["AccountId"])
	assert.Equal(t, "USD", profiles[0].Fields["CurrencyCode"])
	assert.NotEmpty(t, profiles[0].Fields["HostedPaymentPageExternalId"])

	contracts := createsOf(fixture.fake, ledger.EntityContract)
	require.Len(t, contracts, 1)
	contract := contracts[0].Fields
	assert.Equal(t, "A-1", contract["AccountId"])
	assert.Equal(t, "2025-01-01_02", contract["ContractNumber"], "the next free suffix is allocated")
	assert.Equal(t, "2025-01-01", contract["StartDate"])
	assert.Equal(t, "Terminated", contract["ContractStatus"])
	assert.Equal(t, "Terminate", contract["OnEndDate"])
	assert.Equal(t, "EXT-1", contract["C_CPQContractId"])

	currencies := createsOf(fixture.fake, ledger.EntityContractCurrency)
	require.Len(t, currencies, 1)
	assert.Equal(t, "C-1", currencies[0].Fields["ContractId"])
	assert.Equal(t, "USD", currencies[0].Fields["CurrencyCode"])

	rates := createsOf(fixture.fake, ledger.EntityContractRate)
	require.Len(t, rates, 1)
	assert.Equal(t, "C-1", rates[0].Fields["ContractID"])
	assert.Equal(t, "PR-1", rates[0].Fields["ProductID"])

	accountProducts := createsOf(fixture.fake, ledger.EntityAccountProduct)
	require.Len(t, accountProducts, 2, "billing identifier plus the product row")
	assert.Equal(t, "2025-01-01_02", accountProducts[0].Fields["BillIdent"])
	assert.Equal(t, "PR-BI", accountProducts[0].Fields["ProductID"])
	assert.Equal(t, "2", accountProducts[1].Fields["Quantity"])
	assert.Equal(t, "PR-1", accountProducts[1].Fields["ProductID"])

	batches := fixture.fake.CallsTo("CreateBatch")
	require.Len(t, batches, 1)
	assert.Equal(t, ledger.EntityPricing, batches[0].Entity)
	require.Len(t, batches[0].Batch, 2)
	assert.Equal(t, "CR-1", batches[0].Batch[0]["ContractRateId"])
	assert.Equal(t, "-1", batches[0].Batch[1]["UpperBand"])

	assert.Contains(t, out.String(), "Widget")
	assert.Contains(t, out.String(), "unlimited")
}

func TestRunBindsProfileBeforeContract(t *testing.T) {
	fixture := newProvisionFixture()
	var out bytes.Buffer
	l := newTestLoader(fixture.fake, &out)

	require.NoError(t, l.Run(context.Background(), []input.Row{createRow()}))

	bindIndex, contractIndex := -1, -1
	for i, call := range fixture.fake.Calls {
		if call.Method == "Update" && call.Entity == ledger.EntityAccount {
			bindIndex = i
		}
		if call.Method == "Create" && call.Entity == ledger.EntityContract && contractIndex == -1 {
			contractIndex = i
		}
	}
	require.GreaterOrEqual(t, bindIndex, 0)
	require.GreaterOrEqual(t, contractIndex, 0)
	assert.Less(t, bindIndex, contractIndex, "the billing profile is bound before the contract exists")
}

func TestRunRateOnlyRow(t *testing.T) {
	fixture := newProvisionFixture()
	var out bytes.Buffer
	l := newTestLoader(fixture.fake, &out)
	l.Settings.BillingIdentifierProduct = ""

	row := createRow()
	row["contract_rate_only"] = "true"
	require.NoError(t, l.Run(context.Background(), []input.Row{row}))

	assert.Empty(t, createsOf(fixture.fake, ledger.EntityAccountProduct), "rate-only rows create no account product")
	assert.Len(t, createsOf(fixture.fake, ledger.EntityContractRate), 1)
	assert.Len(t, fixture.fake.CallsTo("CreateBatch"), 1)
}

func TestRunBundleOnlyProduct(t *testing.T) {
	fixture := newProvisionFixture()
	var out bytes.Buffer
	l := newTestLoader(fixture.fake, &out)
	l.Settings.BillingIdentifierProduct = ""

	row := createRow()
	row["bundle_component"] = "yes"
	require.NoError(t, l.Run(context.Background(), []input.Row{row}))

	assert.Len(t, createsOf(fixture.fake, ledger.EntityAccountProduct), 1, "bundle rows still get an account product")
	assert.Empty(t, createsOf(fixture.fake, ledger.EntityContractRate), "bundle rows carry no contract rate")
	assert.Empty(t, fixture.fake.CallsTo("CreateBatch"), "bundle rows carry no pricing")
}

func TestRunContinuesAfterFailedGroup(t *testing.T) {
	fixture := newProvisionFixture()
	var out bytes.Buffer
	l := newTestLoader(fixture.fake, &out)

	badRow := createRow()
	badRow["contract"] = "C-bad"
	badRow["account_name"] = ""

	err := l.Run(context.Background(), []input.Row{badRow, createRow()})
	assert.NoError(t, err, "one surviving group keeps the run green")
	assert.Len(t, createsOf(fixture.fake, ledger.EntityContract), 1)
}

func TestRunAllGroupsFailed(t *testing.T) {
	fake := &ledgertest.Fake{
		QueryFunc: func(ctx context.Context, sql string) ([]ledger.Record, error) {
			return nil, errors.Remote("ledger unavailable")
		},
	}
	var out bytes.Buffer
	l := newTestLoader(fake, &out)

	err := l.Run(context.Background(), []input.Row{createRow()})
	assert.Error(t, err)
}

func TestGroupRows(t *testing.T) {
	l := &Loader{Columns: input.DefaultColumns()}
	rows := []input.Row{
		{"contract": "C1", "account_name": "Acme"},
		{"contract": "C2", "account_name": "Acme"},
		{"contract": "C1", "account_name": "Acme"},
		{"account_name": "Globex", "product_name": "Gadget"},
	}

	groups := l.groupRows(rows)
	require.Len(t, groups, 3)
	assert.Equal(t, "C1", groups[0].key)
	assert.Len(t, groups[0].rows, 2)
	assert.Equal(t, "C2", groups[1].key)
	assert.Equal(t, "Globex:Gadget", groups[2].key, "rows without a contract fall back to account:product")
}

func TestNextContractNumber(t *testing.T) {
	fake := &ledgertest.Fake{
		QueryFunc: func(ctx context.Context, sql string) ([]ledger.Record, error) {
			return []ledger.Record{
				{"ContractNumber": "2025-01-01_01"},
				{"ContractNumber": "2025-01-01_07"},
				{"ContractNumber": "2025-01-01_bogus"},
				{"ContractNumber": "2024-12-31_99"},
			}, nil
		},
	}
	l := newTestLoader(fake, &bytes.Buffer{})

	number, err := l.nextContractNumber(context.Background(), mustDate(t, "2025-01-01"))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01_08", number)
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, ok := input.ParseISODate(value)
	require.True(t, ok)
	return parsed
}
