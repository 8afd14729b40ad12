package ledger

import (
	"fmt"
	"strings"
)

// Record is one remote row. The ledger mixes field casing across
// endpoints ("Id" vs "id"), so lookups fall back to a case-insensitive
// scan.
type Record map[string]interface{}

// Get returns the named field as a string, or "" when absent
func (r Record) Get(field string) string {
	if v, ok := r[field]; ok {
		return asString(v)
	}
	for k, v := range r {
		if strings.EqualFold(k, field) {
			return asString(v)
		}
	}
	return ""
}

// ID returns the record's id field
func (r Record) ID() string {
	return r.Get("Id")
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; ids are integral
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// First returns the first record of a result set, or nil
func First(records []Record) Record {
	if len(records) == 0 {
		return nil
	}
	return records[0]
}
