package watcher

import (
	"cardwatch-backend/services/watcher/classify"
)

type EventKind int

const (
	EventNewProduct EventKind = iota
	EventBackInStock
	EventNowOutOfStock
)

func (k EventKind) String() string {
	switch k {
	case EventNewProduct:
		return "new_product"
	case EventBackInStock:
		return "back_in_stock"
	case EventNowOutOfStock:
		return "now_out_of_stock"
	}
	return "unknown"
}

type Event struct {
	Kind  EventKind
	State classify.State
	// false when the event is recorded in the ledger but filtered from
	// user-facing delivery (only-available mode, disabled transition
	// class). filtering never suppresses ledger updates, sold-out
	// products keep being tracked so a later restock is still detected.
	Deliver bool
}

type GateOptions struct {
	// filter sold-out events from delivery
	OnlyAvailable bool
	// push available -> out-of-stock transitions (default: recorded
	// silently)
	NotifyOutOfStock bool
}

// Decide compares a newly classified state against the ledger entry
// and yields at most one event. a nil prior means first sighting; an
// entry that was never notified (e.g. the previous send failed) is
// treated the same, which gives at-least-once delivery on real
// transitions.
func Decide(prior *LedgerEntry, state classify.State, opts GateOptions) (Event, bool) {
	// UNKNOWN never overwrites a known notified state and never fires
	if state == classify.StateUnknown {
		return Event{}, false
	}

	if prior == nil || prior.LastNotifiedState == nil {
		deliver := true
		if state == classify.StateOutOfStock && opts.OnlyAvailable {
			deliver = false
		}
		return Event{Kind: EventNewProduct, State: state, Deliver: deliver}, true
	}

	notified := *prior.LastNotifiedState
	if notified == state {
		return Event{}, false
	}

	switch {
	case notified == classify.StateOutOfStock && state == classify.StateAvailable:
		return Event{Kind: EventBackInStock, State: state, Deliver: true}, true
	case notified == classify.StateAvailable && state == classify.StateOutOfStock:
		deliver := opts.NotifyOutOfStock && !opts.OnlyAvailable
		return Event{Kind: EventNowOutOfStock, State: state, Deliver: deliver}, true
	}

	return Event{}, false
}
