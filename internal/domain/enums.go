package domain

import "strings"

// PaymentState is the Shopify financial_status of an order
type PaymentState string

const (
	PaymentStatePending           PaymentState = "pending"
	PaymentStateAuthorized        PaymentState = "authorized"
	PaymentStatePartiallyPaid     PaymentState = "partially_paid"
	PaymentStatePaid              PaymentState = "paid"
	PaymentStatePartiallyRefunded PaymentState = "partially_refunded"
	PaymentStateRefunded          PaymentState = "refunded"
	PaymentStateVoided            PaymentState = "voided"
	PaymentStateUnpaid            PaymentState = "unpaid"
)

// PaymentStates is a set of allowed payment states
type PaymentStates map[PaymentState]struct{}

// DefaultAllowedPaymentStates are the states the dashboard treats as settled
func DefaultAllowedPaymentStates() PaymentStates {
	return NewPaymentStates(PaymentStatePaid, PaymentStatePartiallyPaid)
}

// NewPaymentStates builds a set from the given states
func NewPaymentStates(states ...PaymentState) PaymentStates {
	set := make(PaymentStates, len(states))
	for _, s := range states {
		set[s] = struct{}{}
	}
	return set
}

// ParsePaymentStates parses a comma-separated list such as "paid,partially_paid"
func ParsePaymentStates(csv string) PaymentStates {
	set := make(PaymentStates)
	for _, part := range strings.Split(csv, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		set[PaymentState(part)] = struct{}{}
	}
	return set
}

// Contains reports whether s is in the set
func (p PaymentStates) Contains(s PaymentState) bool {
	_, ok := p[s]
	return ok
}

// Ledger status labels a user can pick in the editable grid
const (
	StatusAwaiting     = "Aguardando"
	StatusInTransit    = "Em transporte"
	StatusDelivered    = "Entregue"
	StatusCanceled     = "Cancelado"
	StatusFulfilled    = "fulfilled"
	StatusPartial      = "partial"
	StatusRestocked    = "restocked"
	DefaultStatusLabel = StatusAwaiting

	// NotAvailable fills shipping method, state and city when the order has none
	NotAvailable = "N/A"
)

// Shipment delivery labels derived from the delivery date
const (
	ShipmentDelivered = "Entregue"
	ShipmentPending   = "Não entregue"
)

// Situacao values for the logistics situation column
const (
	SituationNone             = ""
	SituationAwaitingDispatch = "Aguardando envio"
	SituationSent             = "Enviado"
	SituationDelivered        = "Entregue"
	SituationResent           = "Reenviado"
	SituationProblem          = "Problema"
)

// IsValidStatus checks a ledger status against the grid vocabulary.
// Raw Shopify fulfillment states are accepted since they arrive from the feed.
func IsValidStatus(s string) bool {
	switch s {
	case StatusAwaiting, StatusInTransit, StatusDelivered, StatusCanceled,
		StatusFulfilled, StatusPartial, StatusRestocked:
		return true
	default:
		return false
	}
}

// IsValidSituation checks a situation value against the grid vocabulary
func IsValidSituation(s string) bool {
	switch s {
	case SituationNone, SituationAwaitingDispatch, SituationSent, SituationDelivered,
		SituationResent, SituationProblem:
		return true
	default:
		return false
	}
}
