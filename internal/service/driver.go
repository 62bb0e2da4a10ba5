package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/geo"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// DriverService owns driver applications, approval, availability and
// location. Availability and the active-ride binding are only ever mutated
// here and by the dispatch/settlement transactions via bindDriver and
// releaseDriver.
type DriverService struct {
	driverRepo    repository.DriverRepository
	locationStore redis.LocationStoreInterface
	cacheStore    redis.CacheStoreInterface
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	driverRepo repository.DriverRepository,
	locationStore redis.LocationStoreInterface,
	cacheStore redis.CacheStoreInterface,
) *DriverService {
	return &DriverService{
		driverRepo:    driverRepo,
		locationStore: locationStore,
		cacheStore:    cacheStore,
	}
}

// ApplyRequest contains the parameters for a driver application.
type ApplyRequest struct {
	UserID        string
	Name          string
	Phone         string
	LicenseNumber string
	VehiclePlate  string
}

// Apply registers a new driver in pending approval state.
func (s *DriverService) Apply(ctx context.Context, req ApplyRequest) (*domain.Driver, error) {
	if req.UserID == "" {
		return nil, ErrInvalidDriverID
	}

	existing, err := s.driverRepo.GetByUserID(ctx, req.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDriverAlreadyRegistered
	}

	driver := &domain.Driver{
		ID:            uuid.New().String(),
		UserID:        req.UserID,
		Name:          req.Name,
		Phone:         req.Phone,
		LicenseNumber: req.LicenseNumber,
		VehiclePlate:  req.VehiclePlate,
		Approval:      domain.DriverApprovalPending,
		Availability:  domain.DriverOffline,
		CreatedAt:     time.Now(),
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}

	return driver, nil
}

// SetApproval moves a driver to the given approval status.
func (s *DriverService) SetApproval(ctx context.Context, driverID string, approval domain.DriverApproval) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	if err := s.driverRepo.UpdateApproval(ctx, driverID, approval); err != nil {
		return nil, err
	}

	s.invalidateDriver(ctx, driverID)

	return s.driverRepo.GetByID(ctx, driverID)
}

// SetAvailability flips the driver between online and offline. Only approved
// drivers may come online, and a busy driver must finish the active ride
// first.
func (s *DriverService) SetAvailability(ctx context.Context, driverID string, target domain.DriverAvailability) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if target != domain.DriverOnline && target != domain.DriverOffline {
		return nil, ErrDriverBusy
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	if driver.Approval != domain.DriverApprovalApproved {
		return nil, ErrDriverNotApproved
	}
	if driver.Availability == domain.DriverBusy {
		return nil, ErrDriverBusy
	}
	if driver.Availability == target {
		return driver, nil
	}

	if err := s.driverRepo.SetAvailability(ctx, driverID, driver.Availability, target); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, ErrDriverBusy
		}
		return nil, err
	}
	driver.Availability = target

	if target == domain.DriverOffline && s.locationStore != nil {
		_ = s.locationStore.RemoveLocation(ctx, driverID)
	}
	s.invalidateDriver(ctx, driverID)

	return driver, nil
}

// UpdateLocation stores the driver's position in the geo index.
func (s *DriverService) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if !geo.ValidLatitude(lat) || !geo.ValidLongitude(lng) {
		return ErrInvalidPickupLocation
	}

	return s.locationStore.UpdateLocation(ctx, driverID, lat, lng)
}

// GetDriver retrieves a driver, serving from cache when possible.
func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetDriver(ctx, driverID); err == nil && cached != nil {
			return cached, nil
		}
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetDriver(ctx, driver)
	}

	return driver, nil
}

// GetDriverByUserID retrieves the driver profile belonging to a user account.
func (s *DriverService) GetDriverByUserID(ctx context.Context, userID string) (*domain.Driver, error) {
	if userID == "" {
		return nil, ErrInvalidDriverID
	}
	driver, err := s.driverRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, repository.ErrNotFound
	}
	return driver, nil
}

func (s *DriverService) invalidateDriver(ctx context.Context, driverID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateDriver(ctx, driverID)
}

// bindDriver marks the driver busy on the given ride inside tx. It maps the
// repository's compare-and-swap failure to the dispatch error the caller
// reports to the losing driver.
func bindDriver(ctx context.Context, tx repository.Tx, driverID, rideID string) error {
	if err := tx.Drivers().Bind(ctx, driverID, rideID); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return ErrDriverNotOnline
		}
		return err
	}
	return nil
}

// releaseDriver returns the driver to the dispatch pool inside tx. The
// release only takes effect if the driver holds rideID. Safe to call when
// no driver is bound.
func releaseDriver(ctx context.Context, tx repository.Tx, driverID, rideID string) error {
	if driverID == "" {
		return nil
	}
	return tx.Drivers().Release(ctx, driverID, rideID)
}
