package redis

import (
	"context"

	"ridehail/internal/domain"
)

// LocationStoreInterface defines the driver geo index operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error
	FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]DriverLocation, error)
	RemoveLocation(ctx context.Context, driverID string) error
}

// CacheStoreInterface defines ride and driver snapshot caching operations.
type CacheStoreInterface interface {
	GetRide(ctx context.Context, rideID string) (*domain.Ride, error)
	SetRide(ctx context.Context, ride *domain.Ride) error
	InvalidateRide(ctx context.Context, rideID string) error
	GetDriver(ctx context.Context, driverID string) (*domain.Driver, error)
	SetDriver(ctx context.Context, driver *domain.Driver) error
	InvalidateDriver(ctx context.Context, driverID string) error
}

var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ CacheStoreInterface    = (*CacheStore)(nil)
)
