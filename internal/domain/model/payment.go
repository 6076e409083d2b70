package model

// PaymentStatus is the internal view of a sale's payment lifecycle.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending_payment"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusChargeback PaymentStatus = "chargeback"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusChargeback},
	PaymentStatusFailed:  {PaymentStatusPaid, PaymentStatusPending},
	PaymentStatusPaid:    {PaymentStatusRefunded, PaymentStatusChargeback},
}

// CanTransition reports whether a sale may move from the current status to next.
// Anything not listed is treated as a stale or out-of-order notification.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusChargeback:
		return true
	}
	return false
}

// FulfillmentStatus describes the shipping stage of a paid sale.
type FulfillmentStatus string

const (
	FulfillmentPending          FulfillmentStatus = "pending"
	FulfillmentAwaitingPrint    FulfillmentStatus = "awaiting_print"
	FulfillmentAwaitingShipment FulfillmentStatus = "awaiting_shipment"
	FulfillmentShipped          FulfillmentStatus = "shipped"
)

// Next returns the stage that follows s, or false when s is final or not started.
func (s FulfillmentStatus) Next() (FulfillmentStatus, bool) {
	switch s {
	case FulfillmentAwaitingPrint:
		return FulfillmentAwaitingShipment, true
	case FulfillmentAwaitingShipment:
		return FulfillmentShipped, true
	}
	return "", false
}
