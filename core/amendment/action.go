// Package amendment - Contract amendment processing
// Groups amendment rows, dispatches quantity changes before price changes,
// and drives the pricing reconciler per amendment group.
package amendment

import "strings"

// Action classifies what a row asks for
type Action int

const (
	// ActionCreate is the provisioning path, not an amendment
	ActionCreate Action = iota

	// ActionQuantityChange mutates the quantity of an account product
	ActionQuantityChange

	// ActionPriceChange splices a new pricing ladder into the timeline
	ActionPriceChange

	// ActionQuantityAndPriceChange does both, quantity first
	ActionQuantityAndPriceChange
)

// String returns the action name
func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionQuantityChange:
		return "quantity change"
	case ActionPriceChange:
		return "price change"
	case ActionQuantityAndPriceChange:
		return "quantity and price change"
	default:
		return "unknown"
	}
}

// ParseAction maps a row's action cell onto an Action. An empty cell means
// create. ok is false for unrecognized values.
func ParseAction(value string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "create":
		return ActionCreate, true
	case "quantity change":
		return ActionQuantityChange, true
	case "price change":
		return ActionPriceChange, true
	case "quantity and price change":
		return ActionQuantityAndPriceChange, true
	default:
		return ActionCreate, false
	}
}

// IsAmendment reports whether the action belongs to the amendment path
func (a Action) IsAmendment() bool {
	return a != ActionCreate
}
