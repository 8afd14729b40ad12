package loader

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"contract-pricing/core/input"
	"contract-pricing/core/ledger"
	"contract-pricing/internal/errors"
	"contract-pricing/internal/logging"
)

// ensureAccount resolves the account by name, creating it when missing.
// Ambiguous creation timeouts are resolved by re-querying the account.
func (l *Loader) ensureAccount(ctx context.Context, accountName string) (ledger.Record, error) {
	logging.Sugar.Infof("Looking up account '%s'", accountName)
	records, err := l.Transport.Query(ctx, ledger.AccountByName(accountName))
	if err != nil {
		return nil, errors.Wrap(errors.TypeNetwork, "account lookup for '"+accountName+"'", err)
	}
	if record := ledger.First(records); record != nil {
		return record, nil
	}

	logging.Sugar.Infof("Account '%s' not found; creating new account", accountName)
	fields := accountCreationDefaults()
	fields["Name"] = accountName
	outcome := ledger.ResolveCreate(ctx, l.Transport, ledger.EntityAccount, fields,
		ledger.AccountByName(accountName), l.Verify)
	if outcome.Status == ledger.StatusFailed {
		return nil, errors.Wrap(errors.TypeNetwork, "account creation for '"+accountName+"'", outcome.Err)
	}

	// Re-query so the caller sees the full record, not just the create
	// response's id.
	records, err = l.Transport.Query(ctx, ledger.AccountByName(accountName))
	if err != nil {
		return nil, errors.Wrap(errors.TypeNetwork, "account lookup after creation for '"+accountName+"'", err)
	}
	record := ledger.First(records)
	if record == nil || record.ID() == "" {
		return nil, errors.Newf(errors.TypeRemote, "unable to determine account id for '%s' after creation attempt", accountName)
	}
	logging.Sugar.Infof("Account '%s' created with id %s", accountName, record.ID())
	return record, nil
}

// ensureBillingProfile resolves the account's billing profile, creating
// one when neither a direct profile nor a valid referenced profile
// exists. Returns the profile id.
func (l *Loader) ensureBillingProfile(
	ctx context.Context,
	account ledger.Record,
	accountName string,
	currencyCode string,
	startDate time.Time,
	billTo string,
) (string, error) {
	accountID := account.ID()
	logging.Sugar.Infof("Ensuring billing profile exists for account '%s'", accountName)

	profiles, err := l.Transport.Query(ctx, ledger.BillingProfilesFor(accountID))
	if err != nil {
		return "", errors.Wrap(errors.TypeNetwork, "billing profile lookup", err)
	}
	if profile := ledger.First(profiles); profile != nil {
		return profile.ID(), nil
	}

	// The account may reference a profile that the listing query missed;
	// validate the association before trusting it.
	if referenced := account.Get("BillableBillingProfileId"); referenced != "" {
		records, err := l.Transport.Query(ctx, ledger.BillingProfileByID(referenced))
		if err != nil {
			return "", errors.Wrap(errors.TypeNetwork, "billing profile lookup", err)
		}
		if profile := ledger.First(records); profile != nil && profile.Get("AccountID") == accountID {
			return referenced, nil
		}
		logging.Sugar.Debugf("Billing profile %s is not associated with account %s; treating as missing", referenced, accountID)
	}

	logging.Sugar.Infof("No billing profile found for account '%s'; creating one", accountName)
	fields := billingProfileDefaults()
	fields["AccountId"] = accountID
	fields["BillingEntity"] = accountName
	fields["BillTo"] = billTo
	fields["CurrencyCode"] = currencyCode
	fields["IniBillingStartDate"] = startDate.Format(input.DateLayout)
	fields["HostedPaymentPageExternalId"] = uuid.NewString()

	created, err := l.Transport.Create(ctx, ledger.EntityBillingProfile, fields)
	if err != nil {
		if !errors.IsType(err, errors.TypeTimeout) {
			return "", errors.Wrap(errors.TypeNetwork, "billing profile creation", err)
		}
		logging.Sugar.Warnf("Billing profile creation timed out; verifying record: %v", err)
	} else if entry := ledger.First(created); entry != nil {
		if code := entry.Get("ErrorCode"); code != "" && code != "0" {
			return "", errors.Newf(errors.TypeRemote, "billing profile creation returned error code %s: %s",
				code, entry.Get("ErrorText"))
		}
	}

	// Poll until the profile becomes queryable; the create response id is
	// not always immediately resolvable.
	if record := ledger.VerifyRecord(ctx, l.Transport, ledger.BillingProfilesFor(accountID), l.Verify); record != nil {
		logging.Sugar.Infof("Billing profile %s created for account '%s'", record.ID(), accountName)
		return record.ID(), nil
	}
	return "", errors.Newf(errors.TypeRemote, "unable to determine billing profile id for account '%s'", accountName)
}

// bindBillingProfile updates the account to reference the billing profile
// and verifies the association stuck
func (l *Loader) bindBillingProfile(
	ctx context.Context,
	account ledger.Record,
	accountName string,
	profileID string,
) (string, error) {
	accountID := account.ID()
	fields := ledger.Fields{
		"Id":                       accountID,
		"Name":                     accountName,
		"BillingProfileId":         profileID,
		"BillableBillingProfileId": profileID,
	}
	if name := account.Get("Name"); name != "" {
		fields["Name"] = name
	}
	defaults := accountCreationDefaults()
	for _, field := range preservedAccountFields {
		value := account.Get(field)
		if value == "" {
			value = defaults[field]
		}
		fields[field] = value
	}

	updated, err := l.Transport.Update(ctx, ledger.EntityAccount, fields)
	if err != nil {
		if !errors.IsType(err, errors.TypeTimeout) {
			return "", errors.Wrapf(errors.TypeNetwork, err,
				"updating account '%s' with billing profile %s", accountName, profileID)
		}
		logging.Sugar.Warnf("Account update for billing profile timed out; verifying record: %v", err)
	} else if entry := ledger.First(updated); entry != nil {
		if code := entry.Get("ErrorCode"); code != "" && code != "0" {
			return "", errors.Newf(errors.TypeRemote,
				"updating account '%s' with billing profile %s returned error code %s: %s",
				accountName, profileID, code, entry.Get("ErrorText"))
		}
	}

	records, err := l.Transport.Query(ctx, ledger.AccountByName(accountName))
	if err != nil {
		return "", errors.Wrap(errors.TypeNetwork, "account lookup after billing profile update", err)
	}
	record := ledger.First(records)
	if record == nil {
		return "", errors.NotFound("account", accountName)
	}
	verified := record.Get("BillableBillingProfileId")
	if verified == "" {
		return "", errors.Newf(errors.TypeRemote,
			"unable to verify billing profile association for account '%s'", accountName)
	}
	logging.Sugar.Infof("Account '%s' associated with billing profile %s", accountName, verified)
	return verified, nil
}

// nextContractNumber allocates the next date-prefixed contract number,
// scanning existing numbers for the highest suffix
func (l *Loader) nextContractNumber(ctx context.Context, baseDate time.Time) (string, error) {
	prefix := baseDate.Format(input.DateLayout)
	records, err := l.Transport.Query(ctx, ledger.ContractNumbersLike(prefix))
	if err != nil {
		return "", errors.Wrap(errors.TypeNetwork, "contract number lookup", err)
	}

	maxSuffix := 0
	for _, record := range records {
		number := record.Get("ContractNumber")
		if !strings.HasPrefix(number, prefix+"_") {
			continue
		}
		suffix, err := strconv.Atoi(strings.SplitN(number, "_", 2)[1])
		if err != nil {
			continue
		}
		if suffix > maxSuffix {
			maxSuffix = suffix
		}
	}
	return fmt.Sprintf("%s_%02d", prefix, maxSuffix+1), nil
}
