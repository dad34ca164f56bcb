package orders

import (
	"errors"
	"time"

	"github.com/ariefcatur/go-storefront/internal/authx"
)

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusPaid      Status = "PAID"
	StatusDelivered Status = "DELIVERED"
)

// One-way ladder: CREATED -> PAID -> DELIVERED. No un-pay, no un-deliver;
// corrections need a new order.
var validNext = map[Status]map[Status]bool{
	StatusCreated:   {StatusPaid: true},
	StatusPaid:      {StatusDelivered: true},
	StatusDelivered: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Status derives the lifecycle state from the two flags. Never stored.
func (o *Order) Status() Status {
	switch {
	case o.IsDelivered:
		return StatusDelivered
	case o.IsPaid:
		return StatusPaid
	default:
		return StatusCreated
	}
}

var (
	ErrNotFound         = errors.New("order not found")
	ErrAlreadyPaid      = errors.New("order is already paid")
	ErrNotPaid          = errors.New("order is not paid yet")
	ErrAlreadyDelivered = errors.New("order is already delivered")
	ErrForbidden        = errors.New("operation requires administrator")
)

// MarkPaid applies the CREATED -> PAID transition in memory. A failed guard
// leaves the order untouched.
func (o *Order) MarkPaid(res PaymentResult, now time.Time) error {
	if !CanTransition(o.Status(), StatusPaid) {
		return ErrAlreadyPaid
	}
	o.IsPaid = true
	o.PaidAt = &now
	o.Payment = &res
	return nil
}

// MarkDelivered applies PAID -> DELIVERED. Only administrators deliver, and
// an unpaid order can never be delivered.
func (o *Order) MarkDelivered(actor authx.Identity, now time.Time) error {
	if !actor.Admin {
		return ErrForbidden
	}
	if o.IsDelivered {
		return ErrAlreadyDelivered
	}
	if !CanTransition(o.Status(), StatusDelivered) {
		return ErrNotPaid
	}
	o.IsDelivered = true
	o.DeliveredAt = &now
	return nil
}

type Step struct {
	Name     string `json:"name"`
	Complete bool   `json:"complete"`
}

// StatusSteps is the 4-step progress projection for display. It is a pure
// function of the two flags, recomputed on every call.
func StatusSteps(o Order) []Step {
	return []Step{
		{Name: "Processing", Complete: true},
		{Name: "Paid", Complete: o.IsPaid},
		{Name: "Shipped", Complete: o.IsDelivered},
		{Name: "Delivered", Complete: o.IsDelivered},
	}
}
