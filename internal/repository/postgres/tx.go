package postgres

import (
	"context"
	"database/sql"

	"ridehail/internal/repository"
)

// TxManager runs functions inside *sql.Tx transactions, handing them
// transaction-scoped repositories.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a TxManager bound to db.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

var _ repository.TxManager = (*TxManager)(nil)

// WithinTx executes fn within a transaction. The transaction is rolled back
// if fn returns an error or panics, committed otherwise.
func (m *TxManager) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	sqlTx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&tx{sqlTx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	return sqlTx.Commit()
}

// tx exposes transaction-scoped repositories over one *sql.Tx.
type tx struct {
	sqlTx *sql.Tx
}

var _ repository.Tx = (*tx)(nil)

func (t *tx) Rides() repository.RideRepository {
	return NewRideRepositoryWithTx(t.sqlTx)
}

func (t *tx) Drivers() repository.DriverRepository {
	return NewDriverRepositoryWithTx(t.sqlTx)
}

func (t *tx) Payments() repository.PaymentRepository {
	return NewPaymentRepositoryWithTx(t.sqlTx)
}
