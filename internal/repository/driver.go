package repository

import (
	"context"

	"ridehail/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByUserID retrieves the driver record belonging to a user.
	GetByUserID(ctx context.Context, userID string) (*domain.Driver, error)

	// GetAll retrieves all drivers.
	GetAll(ctx context.Context) ([]*domain.Driver, error)

	// UpdateApproval updates the approval status of a driver.
	UpdateApproval(ctx context.Context, id string, approval domain.DriverApproval) error

	// Bind atomically moves the driver online->busy and sets the active
	// ride. Returns ErrStaleState unless the driver is online with no
	// active ride.
	Bind(ctx context.Context, driverID, rideID string) error

	// Release moves the driver busy->online and clears the active ride,
	// guarded on the driver actually holding rideID. Idempotent: releasing
	// an already-released driver, or naming a ride the driver does not
	// hold, is not an error and changes nothing.
	Release(ctx context.Context, driverID, rideID string) error

	// SetAvailability flips the driver between online and offline, guarded
	// on the current availability. Returns ErrStaleState on a lost race.
	SetAvailability(ctx context.Context, driverID string, from, to domain.DriverAvailability) error

	// AddEarnings credits amount to the driver's earnings accumulator.
	AddEarnings(ctx context.Context, driverID string, amount float64) error

	// UpdateRating persists the driver's rating aggregate.
	UpdateRating(ctx context.Context, driverID string, rating domain.DriverRating) error
}
