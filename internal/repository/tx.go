package repository

import "context"

// Tx exposes transaction-scoped repositories. Every mutation performed
// through a Tx commits or rolls back as one unit.
type Tx interface {
	Rides() RideRepository
	Drivers() DriverRepository
	Payments() PaymentRepository
}

// TxManager runs a function inside a database transaction. If fn returns an
// error the transaction is rolled back and the error returned; otherwise the
// transaction commits. Cross-entity operations (bind driver + advance ride,
// settle payment + release driver) must go through WithinTx so partial
// failure cannot leave entities inconsistent.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
