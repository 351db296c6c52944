package order

import "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/payment"

// State implements the state pattern for the order lifecycle. Each status owns
// its outgoing edges and any side effect of being entered.
type State interface {
	Status() Status
	Allows(next Status) bool
	Cancellable() bool
	Terminal() bool
	onEnter(o *Order)
}

var states = map[Status]State{
	StatusPending:    pendingState{},
	StatusConfirmed:  confirmedState{},
	StatusProcessing: processingState{},
	StatusShipped:    shippedState{},
	StatusDelivered:  deliveredState{},
	StatusCompleted:  completedState{},
	StatusCancelled:  cancelledState{},
}

// StateOf returns the lifecycle state for a status.
func StateOf(s Status) (State, bool) {
	st, ok := states[s]
	return st, ok
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }
func (pendingState) Allows(next Status) bool {
	return next == StatusConfirmed || next == StatusCancelled
}
func (pendingState) Cancellable() bool { return true }
func (pendingState) Terminal() bool    { return false }
func (pendingState) onEnter(*Order)    {}

type confirmedState struct{}

func (confirmedState) Status() Status { return StatusConfirmed }
func (confirmedState) Allows(next Status) bool {
	return next == StatusProcessing || next == StatusCancelled
}
func (confirmedState) Cancellable() bool { return true }
func (confirmedState) Terminal() bool    { return false }
func (confirmedState) onEnter(*Order)    {}

type processingState struct{}

func (processingState) Status() Status { return StatusProcessing }
func (processingState) Allows(next Status) bool {
	return next == StatusShipped || next == StatusCancelled
}
func (processingState) Cancellable() bool { return true }
func (processingState) Terminal() bool    { return false }
func (processingState) onEnter(*Order)    {}

type shippedState struct{}

func (shippedState) Status() Status { return StatusShipped }
func (shippedState) Allows(next Status) bool {
	return next == StatusDelivered || next == StatusCancelled
}

// Shipped orders may still be marked cancelled, but the goods have left so the
// cancellation flow with restock does not apply.
func (shippedState) Cancellable() bool { return false }
func (shippedState) Terminal() bool    { return false }
func (shippedState) onEnter(*Order)    {}

type deliveredState struct{}

func (deliveredState) Status() Status          { return StatusDelivered }
func (deliveredState) Allows(next Status) bool { return next == StatusCompleted }
func (deliveredState) Cancellable() bool       { return false }
func (deliveredState) Terminal() bool          { return false }
func (deliveredState) onEnter(*Order)          {}

type completedState struct{}

func (completedState) Status() Status     { return StatusCompleted }
func (completedState) Allows(Status) bool { return false }
func (completedState) Cancellable() bool  { return false }
func (completedState) Terminal() bool     { return true }
func (completedState) onEnter(o *Order)   { o.PaymentStatus = payment.StatusCompleted }

type cancelledState struct{}

func (cancelledState) Status() Status     { return StatusCancelled }
func (cancelledState) Allows(Status) bool { return false }
func (cancelledState) Cancellable() bool  { return false }
func (cancelledState) Terminal() bool     { return true }
func (cancelledState) onEnter(*Order)     {}

// unknownState guards orders loaded with a status this build does not know.
type unknownState struct{ status Status }

func (u unknownState) Status() Status   { return u.status }
func (unknownState) Allows(Status) bool { return false }
func (unknownState) Cancellable() bool  { return false }
func (unknownState) Terminal() bool     { return true }
func (unknownState) onEnter(*Order)     {}
