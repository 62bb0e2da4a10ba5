package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `
	id, rider_id, driver_id,
	pickup_address, pickup_lat, pickup_lng,
	destination_address, destination_lat, destination_lng,
	status,
	fare_base, fare_distance, fare_time, fare_total, fare_currency,
	distance_estimated_km, distance_actual_km,
	duration_estimated_min, duration_actual_min,
	requested_at, accepted_at, picked_up_at, in_transit_at, completed_at, cancelled_at,
	cancelled_by, cancel_reason,
	rider_rating, driver_rating, rider_feedback, driver_feedback,
	payment_status, payment_method, payment_ref,
	pin, notes
`

// activeStatuses are the non-terminal ride statuses.
const activeStatuses = `('requested', 'accepted', 'picked_up', 'in_transit', 'payment_pending', 'payment_completed')`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29,
			$30, $31, $32, $33, $34, $35, $36)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RiderID,
		nullString(ride.DriverID),
		ride.Pickup.Address,
		ride.Pickup.Lat,
		ride.Pickup.Lng,
		ride.Destination.Address,
		ride.Destination.Lat,
		ride.Destination.Lng,
		ride.Status,
		ride.Fare.Base,
		ride.Fare.Distance,
		ride.Fare.Time,
		ride.Fare.Total,
		ride.Fare.Currency,
		ride.DistanceEstimatedKm,
		ride.DistanceActualKm,
		ride.DurationEstimatedMin,
		ride.DurationActualMin,
		ride.RequestedAt,
		nullTime(ride.AcceptedAt),
		nullTime(ride.PickedUpAt),
		nullTime(ride.InTransitAt),
		nullTime(ride.CompletedAt),
		nullTime(ride.CancelledAt),
		nullString(string(ride.CancelledBy)),
		nullString(ride.CancelReason),
		nullInt(ride.RiderRating),
		nullInt(ride.DriverRating),
		nullString(ride.RiderFeedback),
		nullString(ride.DriverFeedback),
		ride.PaymentStatus,
		ride.PaymentMethod,
		nullString(ride.PaymentRef),
		nullString(ride.PIN),
		nullString(ride.Notes),
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	return scanRide(r.q.QueryRowContext(ctx, query, id))
}

// GetActiveByRiderID returns the rider's non-terminal ride, or nil.
func (r *RideRepository) GetActiveByRiderID(ctx context.Context, riderID string) (*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE rider_id = $1 AND status IN ` + activeStatuses + `
		ORDER BY requested_at DESC LIMIT 1
	`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, riderID))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return ride, err
}

// ListByRiderID returns the rider's rides, newest first.
func (r *RideRepository) ListByRiderID(ctx context.Context, riderID string, limit int) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE rider_id = $1 ORDER BY requested_at DESC LIMIT $2`
	return r.list(ctx, query, riderID, limit)
}

// ListByDriverID returns the driver's rides, newest first.
func (r *RideRepository) ListByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE driver_id = $1 ORDER BY requested_at DESC LIMIT $2`
	return r.list(ctx, query, driverID, limit)
}

func (r *RideRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// Assign binds a driver to a requested ride with a conditional update. The
// WHERE clause on status closes the double-accept window: at most one of any
// number of concurrent callers can match the requested row.
func (r *RideRepository) Assign(ctx context.Context, rideID, driverID, pin string, at time.Time) error {
	query := `
		UPDATE rides
		SET driver_id = $1, status = $2, accepted_at = $3, pin = $4
		WHERE id = $5 AND status = $6 AND driver_id IS NULL
	`

	result, err := r.q.ExecContext(ctx, query,
		driverID, domain.RideStatusAccepted, at, pin,
		rideID, domain.RideStatusRequested,
	)
	if err != nil {
		return err
	}

	return staleIfNoRows(result)
}

// Unassign returns an accepted ride to the dispatch pool.
func (r *RideRepository) Unassign(ctx context.Context, rideID, driverID string) error {
	query := `
		UPDATE rides
		SET driver_id = NULL, status = $1, accepted_at = NULL, pin = NULL
		WHERE id = $2 AND status = $3 AND driver_id = $4
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.RideStatusRequested, rideID, domain.RideStatusAccepted, driverID,
	)
	if err != nil {
		return err
	}

	return staleIfNoRows(result)
}

// UpdateIfStatus persists the ride's mutable fields guarded on the current
// status.
func (r *RideRepository) UpdateIfStatus(ctx context.Context, ride *domain.Ride, expected domain.RideStatus) error {
	query := `
		UPDATE rides
		SET driver_id = $1, status = $2,
			fare_base = $3, fare_distance = $4, fare_time = $5, fare_total = $6, fare_currency = $7,
			distance_actual_km = $8, duration_actual_min = $9,
			accepted_at = $10, picked_up_at = $11, in_transit_at = $12, completed_at = $13, cancelled_at = $14,
			cancelled_by = $15, cancel_reason = $16,
			payment_status = $17, payment_method = $18, payment_ref = $19,
			pin = $20
		WHERE id = $21 AND status = $22
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(ride.DriverID),
		ride.Status,
		ride.Fare.Base,
		ride.Fare.Distance,
		ride.Fare.Time,
		ride.Fare.Total,
		ride.Fare.Currency,
		ride.DistanceActualKm,
		ride.DurationActualMin,
		nullTime(ride.AcceptedAt),
		nullTime(ride.PickedUpAt),
		nullTime(ride.InTransitAt),
		nullTime(ride.CompletedAt),
		nullTime(ride.CancelledAt),
		nullString(string(ride.CancelledBy)),
		nullString(ride.CancelReason),
		ride.PaymentStatus,
		ride.PaymentMethod,
		nullString(ride.PaymentRef),
		nullString(ride.PIN),
		ride.ID,
		expected,
	)
	if err != nil {
		return err
	}

	return staleIfNoRows(result)
}

// UpdateRating persists rating fields only.
func (r *RideRepository) UpdateRating(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET rider_rating = $1, driver_rating = $2, rider_feedback = $3, driver_feedback = $4
		WHERE id = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		nullInt(ride.RiderRating),
		nullInt(ride.DriverRating),
		nullString(ride.RiderFeedback),
		nullString(ride.DriverFeedback),
		ride.ID,
	)
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

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var driverID, cancelledBy, cancelReason sql.NullString
	var riderFeedback, driverFeedback, paymentRef, pin, notes sql.NullString
	var riderRating, driverRating sql.NullInt64
	var acceptedAt, pickedUpAt, inTransitAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.RiderID,
		&driverID,
		&ride.Pickup.Address,
		&ride.Pickup.Lat,
		&ride.Pickup.Lng,
		&ride.Destination.Address,
		&ride.Destination.Lat,
		&ride.Destination.Lng,
		&ride.Status,
		&ride.Fare.Base,
		&ride.Fare.Distance,
		&ride.Fare.Time,
		&ride.Fare.Total,
		&ride.Fare.Currency,
		&ride.DistanceEstimatedKm,
		&ride.DistanceActualKm,
		&ride.DurationEstimatedMin,
		&ride.DurationActualMin,
		&ride.RequestedAt,
		&acceptedAt,
		&pickedUpAt,
		&inTransitAt,
		&completedAt,
		&cancelledAt,
		&cancelledBy,
		&cancelReason,
		&riderRating,
		&driverRating,
		&riderFeedback,
		&driverFeedback,
		&ride.PaymentStatus,
		&ride.PaymentMethod,
		&paymentRef,
		&pin,
		&notes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	ride.DriverID = driverID.String
	ride.CancelledBy = domain.CancelActor(cancelledBy.String)
	ride.CancelReason = cancelReason.String
	ride.RiderFeedback = riderFeedback.String
	ride.DriverFeedback = driverFeedback.String
	ride.PaymentRef = paymentRef.String
	ride.PIN = pin.String
	ride.Notes = notes.String
	ride.RiderRating = int(riderRating.Int64)
	ride.DriverRating = int(driverRating.Int64)
	ride.AcceptedAt = acceptedAt.Time
	ride.PickedUpAt = pickedUpAt.Time
	ride.InTransitAt = inTransitAt.Time
	ride.CompletedAt = completedAt.Time
	ride.CancelledAt = cancelledAt.Time

	return &ride, nil
}
