package ledger

import (
	"context"

	"contract-pricing/internal/logging"
)

// Directory resolves product names to ledger ids with a per-run cache.
// It is constructed for a single processing run and thrown away with it;
// Invalidate clears the cache when a run wants fresh lookups.
type Directory struct {
	transport Transport
	products  map[string]string
}

// NewDirectory creates a directory over a ledger transport
func NewDirectory(transport Transport) *Directory {
	return &Directory{
		transport: transport,
		products:  make(map[string]string),
	}
}

// Invalidate clears all cached lookups
func (d *Directory) Invalidate() {
	d.products = make(map[string]string)
}

// ProductID resolves a product name to its ledger id. Misses are cached
// too, so a missing product is looked up once per run. Returns "" when the
// product does not exist or the lookup fails.
func (d *Directory) ProductID(ctx context.Context, name string) string {
	if id, ok := d.products[name]; ok {
		return id
	}

	logging.Sugar.Infof("Looking up product '%s'", name)
	records, err := d.transport.Query(ctx, ProductByName(name))
	if err != nil {
		logging.Sugar.Errorf("Product lookup failed for '%s': %v", name, err)
		d.products[name] = ""
		return ""
	}

	var id string
	if first := First(records); first != nil {
		id = first.ID()
	}
	if id == "" {
		logging.Sugar.Warnf("No product found for '%s'", name)
	}
	d.products[name] = id
	return id
}

// AccountID resolves an account name to its ledger id, returning "" when
// the account does not exist or the lookup fails
func (d *Directory) AccountID(ctx context.Context, name string) string {
	if name == "" {
		return ""
	}
	records, err := d.transport.Query(ctx, AccountByName(name))
	if err != nil {
		logging.Sugar.Errorf("Account lookup failed for '%s': %v", name, err)
		return ""
	}
	if first := First(records); first != nil {
		return first.ID()
	}
	return ""
}
