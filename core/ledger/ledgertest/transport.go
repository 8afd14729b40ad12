// Package ledgertest provides an in-memory Transport fake for tests.
package ledgertest

import (
	"context"
	"fmt"
	"sync"

	"contract-pricing/core/ledger"
)

// Call records one Transport invocation
type Call struct {
	Method string
	Entity ledger.Entity
	SQL    string
	Fields ledger.Fields
	Batch  []ledger.Fields
	IDs    []string
}

// Fake is a function-field Transport double. Unset functions succeed with
// empty results; every invocation is appended to Calls.
type Fake struct {
	mu    sync.Mutex
	Calls []Call

	QueryFunc       func(ctx context.Context, sql string) ([]ledger.Record, error)
	CreateFunc      func(ctx context.Context, entity ledger.Entity, fields ledger.Fields) ([]ledger.Record, error)
	CreateBatchFunc func(ctx context.Context, entity ledger.Entity, batch []ledger.Fields) ([]ledger.Record, error)
	UpdateFunc      func(ctx context.Context, entity ledger.Entity, fields ledger.Fields) ([]ledger.Record, error)
	DeleteFunc      func(ctx context.Context, entity ledger.Entity, ids []string) error

	createSeq int
}

var _ ledger.Transport = (*Fake)(nil)

func (f *Fake) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, c)
}

// Query runs QueryFunc, or returns no records
func (f *Fake) Query(ctx context.Context, sql string) ([]ledger.Record, error) {
	f.record(Call{Method: "Query", SQL: sql})
	if f.QueryFunc != nil {
		return f.QueryFunc(ctx, sql)
	}
	return nil, nil
}

// Create runs CreateFunc, or echoes the fields back with a generated id
func (f *Fake) Create(ctx context.Context, entity ledger.Entity, fields ledger.Fields) ([]ledger.Record, error) {
	f.record(Call{Method: "Create", Entity: entity, Fields: fields})
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, entity, fields)
	}
	return []ledger.Record{f.echo(entity, fields)}, nil
}

// CreateBatch runs CreateBatchFunc, or echoes each payload back with a
// generated id
func (f *Fake) CreateBatch(ctx context.Context, entity ledger.Entity, batch []ledger.Fields) ([]ledger.Record, error) {
	f.record(Call{Method: "CreateBatch", Entity: entity, Batch: batch})
	if f.CreateBatchFunc != nil {
		return f.CreateBatchFunc(ctx, entity, batch)
	}
	records := make([]ledger.Record, 0, len(batch))
	for _, fields := range batch {
		records = append(records, f.echo(entity, fields))
	}
	return records, nil
}

// Update runs UpdateFunc, or echoes the fields back
func (f *Fake) Update(ctx context.Context, entity ledger.Entity, fields ledger.Fields) ([]ledger.Record, error) {
	f.record(Call{Method: "Update", Entity: entity, Fields: fields})
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, entity, fields)
	}
	return []ledger.Record{f.echo(entity, fields)}, nil
}

// Delete runs DeleteFunc, or succeeds
func (f *Fake) Delete(ctx context.Context, entity ledger.Entity, ids []string) error {
	f.record(Call{Method: "Delete", Entity: entity, IDs: ids})
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, entity, ids)
	}
	return nil
}

// CallsTo filters the recorded calls by method name
func (f *Fake) CallsTo(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []Call
	for _, c := range f.Calls {
		if c.Method == method {
			matched = append(matched, c)
		}
	}
	return matched
}

func (f *Fake) echo(entity ledger.Entity, fields ledger.Fields) ledger.Record {
	f.mu.Lock()
	f.createSeq++
	id := fmt.Sprintf("%s-%d", entity, f.createSeq)
	f.mu.Unlock()

	record := ledger.Record{"Id": id}
	for key, value := range fields {
		record[key] = value
	}
	return record
}
