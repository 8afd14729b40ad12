package ledger

import (
	"context"
	"fmt"
	"strings"
)

// Escape doubles single quotes for use inside a query string literal
func Escape(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

// AccountByName builds the account lookup query
func AccountByName(name string) string {
	return fmt.Sprintf(
		"SELECT Id, Name, AccountTypeId, ActivityTimeZone, AllowPricingInDifferentCurrency, "+
			"InvoiceAtThisLevel, ParentAccountId, RateHierarchy, Status, eligibleForCollections, BillableBillingProfileId "+
			"FROM ACCOUNT WHERE Name = '%s'", Escape(name))
}

// ProductByName builds the product id lookup query
func ProductByName(name string) string {
	return fmt.Sprintf("SELECT Id FROM PRODUCT WHERE Name = '%s'", Escape(name))
}

// ContractByExternalID builds the contract lookup by external (CPQ) id
func ContractByExternalID(externalID, accountID string) string {
	return fmt.Sprintf(
		"SELECT Id, StartDate FROM CONTRACT WHERE C_CPQContractId = '%s' AND AccountId = '%s'",
		Escape(externalID), Escape(accountID))
}

// ContractByNumber builds the contract lookup by contract number
func ContractByNumber(number, accountID string) string {
	return fmt.Sprintf(
		"SELECT Id FROM CONTRACT WHERE ContractNumber = '%s' AND AccountId = '%s'",
		Escape(number), Escape(accountID))
}

// ContractNumbersLike builds the query for allocated contract numbers
// sharing a date prefix
func ContractNumbersLike(prefix string) string {
	return fmt.Sprintf("SELECT ContractNumber FROM CONTRACT WHERE ContractNumber LIKE '%s_%%'", Escape(prefix))
}

// ContractRateFor builds the contract rate lookup query
func ContractRateFor(contractID, productID string) string {
	return fmt.Sprintf(
		"SELECT Id, ContractID, ProductID, RateOrder FROM CONTRACT_RATE WHERE ContractID = '%s' AND ProductID = '%s'",
		Escape(contractID), Escape(productID))
}

// AccountProductFor builds the account product lookup query
func AccountProductFor(contractID, productID string) string {
	return fmt.Sprintf(
		"SELECT Id, ContractID, ProductID FROM ACCOUNT_PRODUCT WHERE ContractID = '%s' AND ProductID = '%s'",
		Escape(contractID), Escape(productID))
}

// AccountProductByID builds the account product status lookup query
func AccountProductByID(id string) string {
	return fmt.Sprintf("SELECT Id, Status FROM ACCOUNT_PRODUCT WHERE Id = '%s'", Escape(id))
}

// BillingProfilesFor builds the billing profile listing query
func BillingProfilesFor(accountID string) string {
	return fmt.Sprintf("SELECT Id FROM BILLING_PROFILE WHERE AccountID = '%s'", Escape(accountID))
}

// BillingProfileByID builds the billing profile lookup query
func BillingProfileByID(id string) string {
	return fmt.Sprintf("SELECT Id, AccountID FROM BILLING_PROFILE WHERE Id = '%s'", Escape(id))
}

// PricingForContractRate builds the pricing listing used for the
// existing-period dedup index
func PricingForContractRate(contractRateID string) string {
	return fmt.Sprintf(
		"SELECT Id, ContractRateId, LowerBand, UpperBand, Rate, CurrencyCode FROM PRICING WHERE ContractRateId = '%s'",
		Escape(contractRateID))
}

// PricingPeriodsFor builds the date-ordered pricing period listing used by
// the price-change reconciler
func PricingPeriodsFor(contractRateID, currencyCode string) string {
	return fmt.Sprintf(
		"SELECT Id, EffectiveDate, EndDate, LowerBand, UpperBand, Rate FROM PRICING "+
			"WHERE ContractRateId = '%s' AND CurrencyCode = '%s' ORDER BY EffectiveDate ASC",
		Escape(contractRateID), Escape(currencyCode))
}

// QueryFirstID runs a lookup and returns the id of the first record, or ""
// when there is no match
func QueryFirstID(ctx context.Context, t Transport, sql string) (string, error) {
	records, err := t.Query(ctx, sql)
	if err != nil {
		return "", err
	}
	if first := First(records); first != nil {
		return first.ID(), nil
	}
	return "", nil
}
