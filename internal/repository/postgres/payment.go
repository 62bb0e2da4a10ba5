package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// Create persists a new payment. The unique index on ride_id guarantees at
// most one settlement row per ride.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, ride_id, driver_id, amount, method, transaction_ref, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.RideID,
		payment.DriverID,
		payment.Amount,
		payment.Method,
		nullString(payment.TransactionRef),
		payment.Status,
		payment.CreatedAt,
	)
	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `
		SELECT id, ride_id, driver_id, amount, method, transaction_ref, status, created_at
		FROM payments WHERE id = $1
	`
	return scanPayment(r.q.QueryRowContext(ctx, query, id))
}

// GetByRideID retrieves the payment for a ride, or nil if none exists.
func (r *PaymentRepository) GetByRideID(ctx context.Context, rideID string) (*domain.Payment, error) {
	query := `
		SELECT id, ride_id, driver_id, amount, method, transaction_ref, status, created_at
		FROM payments WHERE ride_id = $1
	`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, rideID))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return payment, err
}

// UpdateStatus updates the status of a payment.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	query := `UPDATE payments SET status = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var payment domain.Payment
	var transactionRef sql.NullString

	err := row.Scan(
		&payment.ID,
		&payment.RideID,
		&payment.DriverID,
		&payment.Amount,
		&payment.Method,
		&transactionRef,
		&payment.Status,
		&payment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	payment.TransactionRef = transactionRef.String

	return &payment, nil
}
