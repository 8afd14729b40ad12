package pricing

import (
	"context"
	"time"

	"contract-pricing/core/input"
	"contract-pricing/core/ledger"
	"contract-pricing/internal/errors"
	"contract-pricing/internal/logging"
)

// Reconciler splices price-change amendments into the ledger's pricing
// period timeline for one contract rate and currency: shorten the period
// active before the change, delete every superseded future period, then
// recreate the new ladder. The shorten and delete steps must both succeed
// before any creation happens, so old and new periods never overlap.
type Reconciler struct {
	Transport ledger.Transport
	Columns   input.Columns
}

// ApplyPriceChange reconciles one amendment group's rows, sorted by
// effective date ascending, against the existing pricing periods.
func (r *Reconciler) ApplyPriceChange(
	ctx context.Context,
	contractRateID string,
	currencyCode string,
	rows []input.Row,
	productName string,
) error {
	if len(rows) == 0 {
		return nil
	}

	firstRow := rows[0]
	firstEffectiveRaw := firstRow.Get(r.Columns.EffectiveDate)
	if firstEffectiveRaw == "" {
		firstEffectiveRaw = firstRow.Get(r.Columns.StartDate)
	}
	firstEffective, ok := input.ParseISODate(firstEffectiveRaw)
	if !ok {
		return errors.Newf(errors.TypePrecondition,
			"invalid effective date '%s' for price change", firstEffectiveRaw)
	}
	cutDate := firstEffective.AddDate(0, 0, -1)

	existing, err := r.Transport.Query(ctx, ledger.PricingPeriodsFor(contractRateID, currencyCode))
	if err != nil {
		return errors.Wrap(errors.TypeNetwork, "fetching existing pricing periods", err)
	}

	periods := make([]Period, 0, len(existing))
	for _, record := range existing {
		periods = append(periods, ParsePeriod(record))
	}

	if err := r.shortenActivePeriod(ctx, periods, firstEffective, cutDate); err != nil {
		return err
	}
	if err := r.deleteSupersededPeriods(ctx, periods, firstEffective, contractRateID); err != nil {
		return err
	}

	// Full replacement of the future: no dedup index.
	builder := &Builder{
		Columns:       r.Columns,
		FallbackStart: firstEffective,
		ProductName:   productName,
	}
	payloads, _, _ := builder.Build(contractRateID, currencyCode, rows)
	if len(payloads) == 0 {
		logging.Sugar.Warnf("Price change: no tiers found for contract rate %s; nothing created", contractRateID)
		return nil
	}

	if _, err := r.Transport.CreateBatch(ctx, ledger.EntityPricing, payloads); err != nil {
		return errors.Wrapf(errors.TypeNetwork, err,
			"creating %d pricing periods for contract rate %s", len(payloads), contractRateID)
	}
	logging.Sugar.Infof("Price change: created %d new pricing periods for contract rate %s (currency %s)",
		len(payloads), contractRateID, currencyCode)
	return nil
}

// shortenActivePeriod ends the currently active period one day before the
// amendment takes effect. Periods starting exactly on the amendment date
// are handled by deletion instead, so history is preserved but never
// duplicated.
func (r *Reconciler) shortenActivePeriod(
	ctx context.Context,
	periods []Period,
	firstEffective time.Time,
	cutDate time.Time,
) error {
	var active *Period
	for i := range periods {
		if periods[i].Covers(firstEffective) {
			active = &periods[i]
			break
		}
	}
	if active == nil || !active.EffectiveDate.Before(firstEffective) {
		return nil
	}

	fields := ledger.Fields{
		"Id":      active.ID,
		"EndDate": input.Stamp(cutDate),
	}
	if _, err := r.Transport.Update(ctx, ledger.EntityPricing, fields); err != nil {
		return errors.Wrapf(errors.TypeNetwork, err, "shortening pricing period %s", active.ID)
	}
	logging.Sugar.Infof("Price change: shortened pricing period %s to end on %s",
		active.ID, cutDate.Format(input.DateLayout))
	return nil
}

// deleteSupersededPeriods removes every period effective on or after the
// amendment date; the new ladder replaces them entirely.
func (r *Reconciler) deleteSupersededPeriods(
	ctx context.Context,
	periods []Period,
	firstEffective time.Time,
	contractRateID string,
) error {
	var ids []string
	for _, p := range periods {
		if p.HasEffective && !p.EffectiveDate.Before(firstEffective) && p.ID != "" {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if err := r.Transport.Delete(ctx, ledger.EntityPricing, ids); err != nil {
		return errors.Wrapf(errors.TypeNetwork, err,
			"deleting %d superseded pricing periods for contract rate %s", len(ids), contractRateID)
	}
	logging.Sugar.Infof("Price change: deleted %d future pricing periods for contract rate %s from %s onward",
		len(ids), contractRateID, firstEffective.Format(input.DateLayout))
	return nil
}
