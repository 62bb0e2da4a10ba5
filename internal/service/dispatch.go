package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// DispatchService binds drivers to requested rides and unbinds them again
// before pickup. Both sides of the binding are conditional updates executed
// in one transaction, so two drivers racing for the same ride can never both
// win and a driver can never hold two rides.
type DispatchService struct {
	txm                 repository.TxManager
	rideRepo            repository.RideRepository
	driverRepo          repository.DriverRepository
	cacheStore          redis.CacheStoreInterface
	notificationService *NotificationService
}

// NewDispatchService creates a new DispatchService.
func NewDispatchService(
	txm repository.TxManager,
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	cacheStore redis.CacheStoreInterface,
	notificationService *NotificationService,
) *DispatchService {
	return &DispatchService{
		txm:                 txm,
		rideRepo:            rideRepo,
		driverRepo:          driverRepo,
		cacheStore:          cacheStore,
		notificationService: notificationService,
	}
}

// AcceptRide binds the driver to a requested ride. The ride side is an
// update keyed on status=requested and the driver side on
// availability=online with no active ride; losing either race rolls the
// whole transaction back.
func (s *DispatchService) AcceptRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !driver.CanAccept() {
		switch {
		case driver.Approval != domain.DriverApprovalApproved:
			return nil, ErrDriverNotApproved
		case driver.Availability == domain.DriverBusy || driver.ActiveRideID != "":
			return nil, ErrDriverBusy
		default:
			return nil, ErrDriverNotOnline
		}
	}

	pin, err := generatePIN()
	if err != nil {
		return nil, err
	}
	acceptedAt := time.Now()

	err = s.txm.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.Rides().Assign(ctx, rideID, driverID, pin, acceptedAt); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return ErrRideNoLongerAvailable
			}
			return err
		}
		return bindDriver(ctx, tx, driverID, rideID)
	})
	if err != nil {
		// Distinguish a missing ride from a lost race.
		if errors.Is(err, ErrRideNoLongerAvailable) {
			if _, getErr := s.rideRepo.GetByID(ctx, rideID); errors.Is(getErr, repository.ErrNotFound) {
				return nil, repository.ErrNotFound
			}
		}
		return nil, err
	}

	s.invalidate(ctx, rideID, driverID)

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyDriverAssigned(ctx, ride, driver)
	}

	return ride, nil
}

// RejectRide lets the bound driver back out before pickup. The ride returns
// to the dispatch pool and the driver goes back online. If the rider
// cancelled concurrently the reject is a no-op and the ride's current state
// is returned.
func (s *DispatchService) RejectRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverID {
		return nil, ErrNotAssignedDriver
	}
	if ride.Status.IsTerminal() {
		// Rider cancelled (or the ride otherwise ended) first; nothing to
		// undo beyond making sure the driver is free.
		_ = s.txm.WithinTx(ctx, func(tx repository.Tx) error {
			return releaseDriver(ctx, tx, driverID, rideID)
		})
		return ride, nil
	}
	if ride.Status != domain.RideStatusAccepted {
		return nil, ErrInvalidTransition
	}

	err = s.txm.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.Rides().Unassign(ctx, rideID, driverID); err != nil {
			return err
		}
		return releaseDriver(ctx, tx, driverID, rideID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			// Lost to a concurrent cancel; report the ride as it now is.
			return s.rideRepo.GetByID(ctx, rideID)
		}
		return nil, err
	}

	s.invalidate(ctx, rideID, driverID)

	return s.rideRepo.GetByID(ctx, rideID)
}

func (s *DispatchService) invalidate(ctx context.Context, rideID, driverID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateRide(ctx, rideID)
	_ = s.cacheStore.InvalidateDriver(ctx, driverID)
}

// generatePIN returns a 4-digit pickup PIN. A policy point rather than a
// security measure: the rider reads it to the driver at pickup.
func generatePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
