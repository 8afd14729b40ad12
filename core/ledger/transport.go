// Package ledger - Remote billing ledger capability
// The pricing core consumes the ledger through the Transport interface
// only; HTTP, sessions and JSON envelopes live in the adapter.
package ledger

import "context"

// Entity names the ledger object types this system touches
type Entity string

const (
	EntityAccount          Entity = "ACCOUNT"
	EntityBillingProfile   Entity = "BILLING_PROFILE"
	EntityContract         Entity = "CONTRACT"
	EntityContractCurrency Entity = "CONTRACT_CURRENCY"
	EntityContractRate     Entity = "CONTRACT_RATE"
	EntityAccountProduct   Entity = "ACCOUNT_PRODUCT"
	EntityProduct          Entity = "PRODUCT"
	EntityPricing          Entity = "PRICING"
)

// Fields is one record's worth of named values for a write call
type Fields map[string]string

// Transport is the remote ledger capability. Query treats not-found as an
// empty result. Create and CreateBatch return the created records with
// their assigned ids. Implementations classify ambiguous timeouts as
// errors.TypeTimeout so callers can run the verification protocol.
type Transport interface {
	Query(ctx context.Context, sql string) ([]Record, error)
	Create(ctx context.Context, entity Entity, fields Fields) ([]Record, error)
	CreateBatch(ctx context.Context, entity Entity, batch []Fields) ([]Record, error)
	Update(ctx context.Context, entity Entity, fields Fields) ([]Record, error)
	Delete(ctx context.Context, entity Entity, ids []string) error
}
