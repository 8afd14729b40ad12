package loader

import "contract-pricing/core/ledger"

// accountCreationDefaults are the ledger's required account fields for
// newly provisioned accounts
func accountCreationDefaults() ledger.Fields {
	return ledger.Fields{
		"AccountTypeId":                   "1",
		"ActivityTimeZone":                "0",
		"AllowPricingInDifferentCurrency": "0",
		"InvoiceAtThisLevel":              "1",
		"ParentAccountId":                 "1",
		"RateHierarchy":                   "0",
		"Status":                          "ACTIVE",
		"eligibleForCollections":          "0",
	}
}

// preservedAccountFields are carried through account updates so the
// update call does not blank them
var preservedAccountFields = []string{
	"AccountTypeId",
	"ActivityTimeZone",
	"AllowPricingInDifferentCurrency",
	"InvoiceAtThisLevel",
	"ParentAccountId",
	"RateHierarchy",
	"Status",
	"eligibleForCollections",
}

// billingProfileDefaults are the ledger's required billing profile fields
func billingProfileDefaults() ledger.Fields {
	return ledger.Fields{
		"AchBankAcctType":                    "Business Checking",
		"Address1":                           "401 Kentucky St",
		"BillingCycle":                       "MONTHLY",
		"BillingMethod":                      "MAIL",
		"CalendarClosingMonth":               "January",
		"CalendarClosingWeekday":             "Saturday",
		"CalendarType":                       "4-5-4",
		"City":                               "Bellingham",
		"Country":                            "United States",
		"DisablePDFGenerationOnInvoiceClose": "0",
		"Email":                              "patrick.hermann@ravusinc.com",
		"EventBasedBilling":                  "0",
		"InvoiceApprovalFlag":                "1",
		"InvoiceTemplateId":                  "122",
		"ManualCloseFlag":                    "1",
		"MonthlyBillingDate":                 "31",
		"PaymentCreditAllocationMethod":      "Allocate To Invoice",
		"PaymentTermDays":                    "30",
		"Phone":                              "5415564522",
		"QuarterlyBillingMonth":              "March, June, September, December",
		"SemiAnnualBillingMonth":             "June, December",
		"State":                              "WA",
		"StatementApprovalFlag":              "0",
		"Status":                             "ACTIVE",
		"TimeZoneId":                         "351",
		"WeeklyBillingDate":                  "Monday - Sunday",
		"YearlyBillingMonth":                 "December",
		"Zip":                                "98225",
	}
}
