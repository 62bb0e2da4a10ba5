package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

const driverColumns = `
	id, user_id, COALESCE(name, ''), COALESCE(phone, ''),
	license_number, COALESCE(vehicle_plate, ''),
	approval, availability, active_ride_id,
	earnings, rating_average, rating_count,
	approved_at, created_at
`

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (id, user_id, name, phone, license_number, vehicle_plate,
			approval, availability, active_ride_id, earnings, rating_average, rating_count,
			approved_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.UserID,
		driver.Name,
		driver.Phone,
		driver.LicenseNumber,
		driver.VehiclePlate,
		driver.Approval,
		driver.Availability,
		nullString(driver.ActiveRideID),
		driver.Earnings,
		driver.Rating.Average,
		driver.Rating.Count,
		nullTime(driver.ApprovedAt),
		driver.CreatedAt,
	)
	return err
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, id))
}

// GetByUserID retrieves the driver record belonging to a user.
func (r *DriverRepository) GetByUserID(ctx context.Context, userID string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE user_id = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, userID))
}

// GetAll retrieves all drivers.
func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers ORDER BY created_at`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

// UpdateApproval updates the approval status of a driver.
func (r *DriverRepository) UpdateApproval(ctx context.Context, id string, approval domain.DriverApproval) error {
	query := `
		UPDATE drivers
		SET approval = $1,
			approved_at = CASE WHEN $1 = 'approved' THEN NOW() ELSE approved_at END
		WHERE id = $2
	`

	result, err := r.q.ExecContext(ctx, query, approval, id)
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

// Bind moves the driver online->busy and sets the active ride. The WHERE
// clause makes the bind a compare-and-swap: a driver already busy or holding
// a ride cannot be double-booked.
func (r *DriverRepository) Bind(ctx context.Context, driverID, rideID string) error {
	query := `
		UPDATE drivers
		SET availability = $1, active_ride_id = $2
		WHERE id = $3 AND availability = $4 AND active_ride_id IS NULL
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.DriverBusy, rideID, driverID, domain.DriverOnline,
	)
	if err != nil {
		return err
	}

	return staleIfNoRows(result)
}

// Release moves the driver busy->online and clears the active ride. The
// WHERE clause pins the release to the ride the driver actually holds, so
// a release issued against the wrong ride cannot free a busy driver.
// Idempotent: matching zero rows means the driver was already released.
func (r *DriverRepository) Release(ctx context.Context, driverID, rideID string) error {
	query := `
		UPDATE drivers
		SET availability = $1, active_ride_id = NULL
		WHERE id = $2 AND availability = $3 AND active_ride_id = $4
	`

	_, err := r.q.ExecContext(ctx, query, domain.DriverOnline, driverID, domain.DriverBusy, rideID)
	return err
}

// SetAvailability flips the driver between online and offline, guarded on
// the current availability.
func (r *DriverRepository) SetAvailability(ctx context.Context, driverID string, from, to domain.DriverAvailability) error {
	query := `UPDATE drivers SET availability = $1 WHERE id = $2 AND availability = $3`

	result, err := r.q.ExecContext(ctx, query, to, driverID, from)
	if err != nil {
		return err
	}

	return staleIfNoRows(result)
}

// AddEarnings credits amount to the driver's earnings accumulator.
func (r *DriverRepository) AddEarnings(ctx context.Context, driverID string, amount float64) error {
	query := `UPDATE drivers SET earnings = earnings + $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, amount, driverID)
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

// UpdateRating persists the driver's rating aggregate.
func (r *DriverRepository) UpdateRating(ctx context.Context, driverID string, rating domain.DriverRating) error {
	query := `UPDATE drivers SET rating_average = $1, rating_count = $2 WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, rating.Average, rating.Count, driverID)
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

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var driver domain.Driver
	var activeRideID sql.NullString
	var approvedAt sql.NullTime

	err := row.Scan(
		&driver.ID,
		&driver.UserID,
		&driver.Name,
		&driver.Phone,
		&driver.LicenseNumber,
		&driver.VehiclePlate,
		&driver.Approval,
		&driver.Availability,
		&activeRideID,
		&driver.Earnings,
		&driver.Rating.Average,
		&driver.Rating.Count,
		&approvedAt,
		&driver.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	driver.ActiveRideID = activeRideID.String
	driver.ApprovedAt = approvedAt.Time

	return &driver, nil
}
