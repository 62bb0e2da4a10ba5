package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"ridehail/internal/domain"
)

// Cache TTLs. Ride status changes quickly around dispatch, driver state
// around availability flips, so both stay short.
const (
	RideCacheTTL   = 10 * time.Second
	DriverCacheTTL = 30 * time.Second
)

const (
	rideCachePrefix   = "cache:ride:"
	driverCachePrefix = "cache:driver:"
)

// CacheStore caches ride and driver snapshots in Redis. Entries are
// invalidated on every mutation, so a hit is at worst one TTL stale.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// GetRide retrieves a cached ride, or nil on a miss.
func (s *CacheStore) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	data, err := s.client.Get(ctx, rideCachePrefix+rideID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var ride domain.Ride
	if err := json.Unmarshal(data, &ride); err != nil {
		return nil, err
	}
	return &ride, nil
}

// SetRide stores a ride snapshot.
func (s *CacheStore) SetRide(ctx context.Context, ride *domain.Ride) error {
	data, err := json.Marshal(ride)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, rideCachePrefix+ride.ID, data, RideCacheTTL).Err()
}

// InvalidateRide removes a ride from cache.
func (s *CacheStore) InvalidateRide(ctx context.Context, rideID string) error {
	return s.client.Del(ctx, rideCachePrefix+rideID).Err()
}

// GetDriver retrieves a cached driver, or nil on a miss.
func (s *CacheStore) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	data, err := s.client.Get(ctx, driverCachePrefix+driverID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var driver domain.Driver
	if err := json.Unmarshal(data, &driver); err != nil {
		return nil, err
	}
	return &driver, nil
}

// SetDriver stores a driver snapshot.
func (s *CacheStore) SetDriver(ctx context.Context, driver *domain.Driver) error {
	data, err := json.Marshal(driver)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, driverCachePrefix+driver.ID, data, DriverCacheTTL).Err()
}

// InvalidateDriver removes a driver from cache.
func (s *CacheStore) InvalidateDriver(ctx context.Context, driverID string) error {
	return s.client.Del(ctx, driverCachePrefix+driverID).Err()
}
