package ledger

import (
	"context"
	"time"

	"contract-pricing/internal/errors"
	"contract-pricing/internal/logging"
)

// CreateStatus classifies the result of a create call after ambiguity
// resolution
type CreateStatus int

const (
	// StatusCreated means the record exists, either from the create
	// response or discovered by verification
	StatusCreated CreateStatus = iota

	// StatusAmbiguous means the call timed out and verification never
	// found the record
	StatusAmbiguous

	// StatusFailed means the call failed definitively
	StatusFailed
)

// String returns the status name
func (s CreateStatus) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusAmbiguous:
		return "ambiguous"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CreateOutcome is the resolved result of a create call
type CreateOutcome struct {
	Status CreateStatus
	Record Record
	Err    error
}

// VerifyPolicy bounds the read-verification polls after an ambiguous
// timeout
type VerifyPolicy struct {
	Attempts int
	Interval time.Duration
}

// DefaultVerifyPolicy matches the ledger's observed settle time
func DefaultVerifyPolicy() VerifyPolicy {
	return VerifyPolicy{Attempts: 5, Interval: time.Second}
}

// ResolveCreate runs a create call and resolves an ambiguous timeout by
// polling the verification query instead of retrying the create. The
// verification query must select the record the create would have made.
// Ordinary errors are not retried.
func ResolveCreate(
	ctx context.Context,
	t Transport,
	entity Entity,
	fields Fields,
	verifySQL string,
	policy VerifyPolicy,
) CreateOutcome {
	created, err := t.Create(ctx, entity, fields)
	if err == nil {
		return CreateOutcome{Status: StatusCreated, Record: First(created)}
	}
	if !errors.IsType(err, errors.TypeTimeout) {
		return CreateOutcome{Status: StatusFailed, Err: err}
	}

	logging.Sugar.Warnf("%s creation timed out; verifying record: %v", entity, err)
	if record := VerifyRecord(ctx, t, verifySQL, policy); record != nil {
		return CreateOutcome{Status: StatusCreated, Record: record}
	}
	return CreateOutcome{Status: StatusAmbiguous, Err: err}
}

// VerifyRecord polls a lookup until it returns a record or the policy is
// exhausted
func VerifyRecord(ctx context.Context, t Transport, sql string, policy VerifyPolicy) Record {
	for attempt := 0; attempt < policy.Attempts; attempt++ {
		records, err := t.Query(ctx, sql)
		if err == nil {
			if first := First(records); first != nil {
				return first
			}
		} else {
			logging.Sugar.Debugf("Verification lookup failed (attempt %d): %v", attempt+1, err)
		}
		if attempt < policy.Attempts-1 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(policy.Interval):
			}
		}
	}
	return nil
}
