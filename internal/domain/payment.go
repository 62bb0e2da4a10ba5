package domain

import "time"

// PaymentStatus represents the current status of a payment record.
type PaymentStatus string

const (
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusUnpaid    PaymentStatus = "UNPAID"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Payment records the settlement of a completed ride. Created exactly once
// per settled ride; immutable afterwards except status corrections during
// reconciliation.
type Payment struct {
	ID             string
	RideID         string
	DriverID       string
	Amount         float64
	Method         PaymentMethod
	TransactionRef string
	Status         PaymentStatus
	CreatedAt      time.Time
}
