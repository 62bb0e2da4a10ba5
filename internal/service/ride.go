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

// nominalSpeedKmh is the speed assumed when estimating trip duration at
// request time.
const nominalSpeedKmh = 30.0

// notifyRadiusKm bounds the driver notification fan-out on a new request.
const notifyRadiusKm = 5.0

// RideService owns the ride lifecycle: request, status advancement with its
// timestamp bookkeeping, PIN verification, cancellation and rating. Every
// status change goes through the transition graph in domain.RideStatus.
type RideService struct {
	txm                 repository.TxManager
	rideRepo            repository.RideRepository
	driverRepo          repository.DriverRepository
	fareCalc            *FareCalculator
	locationStore       redis.LocationStoreInterface
	cacheStore          redis.CacheStoreInterface
	notificationService *NotificationService
}

// NewRideService creates a new RideService.
func NewRideService(
	txm repository.TxManager,
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	fareCalc *FareCalculator,
	locationStore redis.LocationStoreInterface,
	cacheStore redis.CacheStoreInterface,
	notificationService *NotificationService,
) *RideService {
	return &RideService{
		txm:                 txm,
		rideRepo:            rideRepo,
		driverRepo:          driverRepo,
		fareCalc:            fareCalc,
		locationStore:       locationStore,
		cacheStore:          cacheStore,
		notificationService: notificationService,
	}
}

// RequestRideParams contains the parameters for requesting a ride.
type RequestRideParams struct {
	RiderID       string
	Pickup        domain.Location
	Destination   domain.Location
	PaymentMethod domain.PaymentMethod
	Notes         string
}

// RequestRide creates a new ride in requested state. A rider may only have
// one ride in progress at a time.
func (s *RideService) RequestRide(ctx context.Context, params RequestRideParams) (*domain.Ride, error) {
	if params.RiderID == "" {
		return nil, ErrInvalidRiderID
	}
	if !geo.ValidLatitude(params.Pickup.Lat) || !geo.ValidLongitude(params.Pickup.Lng) {
		return nil, ErrInvalidPickupLocation
	}
	if !geo.ValidLatitude(params.Destination.Lat) || !geo.ValidLongitude(params.Destination.Lng) {
		return nil, ErrInvalidDestinationLocation
	}

	active, err := s.rideRepo.GetActiveByRiderID(ctx, params.RiderID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrActiveRideExists
	}

	method := params.PaymentMethod
	if method == "" {
		method = domain.PaymentMethodCash
	}

	estimatedKm := geo.DistanceKm(
		params.Pickup.Lat, params.Pickup.Lng,
		params.Destination.Lat, params.Destination.Lng,
	)
	estimatedMin := estimatedKm / nominalSpeedKmh * 60

	ride := &domain.Ride{
		ID:                   uuid.New().String(),
		RiderID:              params.RiderID,
		Pickup:               params.Pickup,
		Destination:          params.Destination,
		Status:               domain.RideStatusRequested,
		Fare:                 s.fareCalc.Compute(estimatedKm, estimatedMin),
		DistanceEstimatedKm:  estimatedKm,
		DurationEstimatedMin: estimatedMin,
		RequestedAt:          time.Now(),
		PaymentStatus:        domain.RidePaymentPending,
		PaymentMethod:        method,
		Notes:                params.Notes,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	s.notifyNearbyDrivers(ctx, ride)

	return ride, nil
}

// GetRide retrieves a ride, serving from cache when possible.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetRide(ctx, rideID); err == nil && cached != nil {
			return cached, nil
		}
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetRide(ctx, ride)
	}

	return ride, nil
}

// ListRides returns ride history for a rider or a driver.
func (s *RideService) ListRides(ctx context.Context, actorID, role string, limit int) ([]*domain.Ride, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if role == "driver" {
		return s.rideRepo.ListByDriverID(ctx, actorID, limit)
	}
	return s.rideRepo.ListByRiderID(ctx, actorID, limit)
}

// AdvanceStatus moves a ride to the next status in the graph on behalf of
// its bound driver. pin is required for the picked_up -> in_transit step and
// ignored elsewhere. Transitions from payment_pending onward belong to
// payment settlement and are rejected here.
func (s *RideService) AdvanceStatus(ctx context.Context, rideID, driverID, pin string) (*domain.Ride, error) {
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

	target := ride.Status.Next()
	if target == "" {
		return nil, ErrInvalidTransition
	}

	prev := ride.Status
	now := time.Now()

	switch target {
	case domain.RideStatusPickedUp:
		ride.Status = target
		ride.PickedUpAt = now

	case domain.RideStatusInTransit:
		if pin == "" || pin != ride.PIN {
			return nil, ErrPinMismatch
		}
		ride.Status = target
		ride.InTransitAt = now
		ride.PIN = "" // single use

	case domain.RideStatusPaymentPending:
		// Fare-due point: fix actual distance and duration, then price the
		// trip so settlement has a definite amount.
		ride.Status = target
		ride.DistanceActualKm = geo.DistanceKm(
			ride.Pickup.Lat, ride.Pickup.Lng,
			ride.Destination.Lat, ride.Destination.Lng,
		)
		ride.DurationActualMin = now.Sub(ride.PickedUpAt).Minutes()
		ride.Fare = s.fareCalc.Compute(ride.DistanceActualKm, ride.DurationActualMin)

	default:
		return nil, ErrPaymentDue
	}

	if err := s.rideRepo.UpdateIfStatus(ctx, ride, prev); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	s.invalidateRide(ctx, rideID)

	return ride, nil
}

// VerifyPinAndStartTransit checks the pickup PIN and moves the ride
// picked_up -> in_transit.
func (s *RideService) VerifyPinAndStartTransit(ctx context.Context, rideID, driverID, pin string) (*domain.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverID {
		return nil, ErrNotAssignedDriver
	}
	if ride.Status != domain.RideStatusPickedUp {
		return nil, ErrInvalidTransition
	}

	return s.AdvanceStatus(ctx, rideID, driverID, pin)
}

// CancelRide cancels the rider's own ride. Only legal while the ride is
// requested or accepted; a bound driver is released in the same transaction.
func (s *RideService) CancelRide(ctx context.Context, rideID, riderID, reason string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.RiderID != riderID {
		return nil, ErrNotRideOwner
	}
	if ride.Status != domain.RideStatusRequested && ride.Status != domain.RideStatusAccepted {
		return nil, ErrCancellationNotAllowed
	}

	prev := ride.Status
	boundDriver := ride.DriverID

	ride.Status = domain.RideStatusCancelled
	ride.CancelledAt = time.Now()
	ride.CancelledBy = domain.CancelledByRider
	ride.CancelReason = reason
	ride.PIN = ""

	err = s.txm.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.Rides().UpdateIfStatus(ctx, ride, prev); err != nil {
			return err
		}
		return releaseDriver(ctx, tx, boundDriver, rideID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, ErrCancellationNotAllowed
		}
		return nil, err
	}

	s.invalidateRide(ctx, rideID)
	if s.cacheStore != nil && boundDriver != "" {
		_ = s.cacheStore.InvalidateDriver(ctx, boundDriver)
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideCancelled(ctx, ride, string(domain.CancelledByRider), reason)
	}

	return ride, nil
}

// RateRideParams contains the parameters for rating a completed ride.
type RateRideParams struct {
	RideID   string
	ActorID  string
	Role     string // "rider" or "driver"
	Rating   int
	Feedback string
}

// RateRide records a 1-5 rating on a completed ride. A rider's rating also
// feeds the driver's aggregate.
func (s *RideService) RateRide(ctx context.Context, params RateRideParams) (*domain.Ride, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}

	ride, err := s.rideRepo.GetByID(ctx, params.RideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusCompleted {
		return nil, ErrRideNotCompleted
	}

	switch params.Role {
	case "driver":
		if ride.DriverID != params.ActorID {
			return nil, ErrNotAssignedDriver
		}
		ride.DriverRating = params.Rating
		ride.DriverFeedback = params.Feedback
	default:
		if ride.RiderID != params.ActorID {
			return nil, ErrNotRideOwner
		}
		ride.RiderRating = params.Rating
		ride.RiderFeedback = params.Feedback
	}

	if err := s.rideRepo.UpdateRating(ctx, ride); err != nil {
		return nil, err
	}

	// A rider's rating scores the driver.
	if params.Role != "driver" && ride.DriverID != "" {
		if driver, err := s.driverRepo.GetByID(ctx, ride.DriverID); err == nil {
			total := driver.Rating.Average*float64(driver.Rating.Count) + float64(params.Rating)
			driver.Rating.Count++
			driver.Rating.Average = total / float64(driver.Rating.Count)
			_ = s.driverRepo.UpdateRating(ctx, driver.ID, driver.Rating)
		}
	}

	s.invalidateRide(ctx, params.RideID)

	return ride, nil
}

func (s *RideService) notifyNearbyDrivers(ctx context.Context, ride *domain.Ride) {
	if s.locationStore == nil || s.notificationService == nil {
		return
	}

	nearby, err := s.locationStore.FindNearbyDrivers(ctx, ride.Pickup.Lat, ride.Pickup.Lng, notifyRadiusKm)
	if err != nil {
		return
	}

	ids := make([]string, 0, len(nearby))
	for _, loc := range nearby {
		ids = append(ids, loc.DriverID)
	}
	_ = s.notificationService.NotifyRideRequested(ctx, ride, ids)
}

func (s *RideService) invalidateRide(ctx context.Context, rideID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateRide(ctx, rideID)
}

// ValidatePaymentMethod validates a payment method string, defaulting to cash.
func ValidatePaymentMethod(method string) (domain.PaymentMethod, error) {
	switch domain.PaymentMethod(method) {
	case domain.PaymentMethodCash, domain.PaymentMethodCard,
		domain.PaymentMethodWallet, domain.PaymentMethodUPI:
		return domain.PaymentMethod(method), nil
	case "":
		return domain.PaymentMethodCash, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}
