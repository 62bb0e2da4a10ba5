package repository

import (
	"context"
	"time"

	"ridehail/internal/domain"
)

// RideRepository defines the persistence operations for rides.
//
// All status-changing writes are conditional updates keyed on the current
// status, so a lost race surfaces as ErrStaleState instead of silently
// overwriting a concurrent transition.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetActiveByRiderID returns the rider's non-terminal ride, or nil if
	// the rider has no ride in progress.
	GetActiveByRiderID(ctx context.Context, riderID string) (*domain.Ride, error)

	// ListByRiderID returns the rider's rides, newest first.
	ListByRiderID(ctx context.Context, riderID string, limit int) ([]*domain.Ride, error)

	// ListByDriverID returns the driver's rides, newest first.
	ListByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Ride, error)

	// Assign atomically binds a driver to a requested ride: sets the driver,
	// moves status requested->accepted, stamps acceptance and stores the PIN.
	// Returns ErrStaleState when the ride is no longer in requested.
	Assign(ctx context.Context, rideID, driverID, pin string, at time.Time) error

	// Unassign atomically returns an accepted ride to the dispatch pool:
	// clears the driver, PIN and acceptance stamp. Only succeeds while the
	// ride is accepted and bound to driverID; otherwise ErrStaleState.
	Unassign(ctx context.Context, rideID, driverID string) error

	// UpdateIfStatus persists the ride's mutable fields, guarded on the row
	// still holding expected. Returns ErrStaleState on a lost race.
	UpdateIfStatus(ctx context.Context, ride *domain.Ride, expected domain.RideStatus) error

	// UpdateRating persists rating fields only.
	UpdateRating(ctx context.Context, ride *domain.Ride) error
}
