package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// Gateway is the interface for an external payment gateway used by non-cash
// methods. The core only records the returned transaction reference.
type Gateway interface {
	Charge(ctx context.Context, rideID string, amount float64, method domain.PaymentMethod) (string, error)
}

// MockGateway is a stand-in gateway that approves every charge.
type MockGateway struct{}

// NewMockGateway creates a new MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Charge approves the charge and returns a synthetic transaction reference.
func (g *MockGateway) Charge(ctx context.Context, rideID string, amount float64, method domain.PaymentMethod) (string, error) {
	return fmt.Sprintf("txn-%s", uuid.New().String()), nil
}

// PaymentService settles rides that have reached payment_pending: it creates
// the payment record, walks the ride through payment_completed to completed,
// releases the driver and credits earnings, all in one transaction. A failed
// settlement leaves the ride retryable in payment_pending.
type PaymentService struct {
	txm                 repository.TxManager
	rideRepo            repository.RideRepository
	paymentRepo         repository.PaymentRepository
	gateway             Gateway
	cacheStore          redis.CacheStoreInterface
	notificationService *NotificationService
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	txm repository.TxManager,
	rideRepo repository.RideRepository,
	paymentRepo repository.PaymentRepository,
	gateway Gateway,
	cacheStore redis.CacheStoreInterface,
	notificationService *NotificationService,
) *PaymentService {
	return &PaymentService{
		txm:                 txm,
		rideRepo:            rideRepo,
		paymentRepo:         paymentRepo,
		gateway:             gateway,
		cacheStore:          cacheStore,
		notificationService: notificationService,
	}
}

// CompletePaymentParams contains the parameters for settling a ride.
type CompletePaymentParams struct {
	RideID  string
	ActorID string // rider or bound driver
	Method  domain.PaymentMethod
}

// CompletePaymentResult is the outcome of a settlement.
type CompletePaymentResult struct {
	Ride    *domain.Ride
	Payment *domain.Payment
}

// CompletePayment settles a payment_pending ride.
func (s *PaymentService) CompletePayment(ctx context.Context, params CompletePaymentParams) (*CompletePaymentResult, error) {
	if params.RideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, params.RideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusPaymentPending {
		return nil, ErrPaymentNotDue
	}
	if params.ActorID != ride.RiderID && params.ActorID != ride.DriverID {
		return nil, ErrNotRideOwner
	}

	method := params.Method
	if method == "" {
		method = ride.PaymentMethod
	}

	// Non-cash methods clear through the gateway before anything is
	// persisted; a decline leaves the ride untouched in payment_pending.
	var transactionRef string
	if method != domain.PaymentMethodCash {
		transactionRef, err = s.gateway.Charge(ctx, ride.ID, ride.Fare.Total, method)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
	}

	payment := &domain.Payment{
		ID:             uuid.New().String(),
		RideID:         ride.ID,
		DriverID:       ride.DriverID,
		Amount:         ride.Fare.Total,
		Method:         method,
		TransactionRef: transactionRef,
		Status:         domain.PaymentStatusPaid,
		CreatedAt:      time.Now(),
	}

	now := time.Now()
	driverID := ride.DriverID

	err = s.txm.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}

		ride.Status = domain.RideStatusPaymentCompleted
		ride.PaymentStatus = domain.RidePaymentCompleted
		ride.PaymentMethod = method
		ride.PaymentRef = transactionRef
		if err := tx.Rides().UpdateIfStatus(ctx, ride, domain.RideStatusPaymentPending); err != nil {
			return err
		}

		ride.Status = domain.RideStatusCompleted
		ride.CompletedAt = now
		if err := tx.Rides().UpdateIfStatus(ctx, ride, domain.RideStatusPaymentCompleted); err != nil {
			return err
		}

		if err := releaseDriver(ctx, tx, driverID, ride.ID); err != nil {
			return err
		}
		return tx.Drivers().AddEarnings(ctx, driverID, payment.Amount)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, ErrPaymentNotDue
		}
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateRide(ctx, ride.ID)
		_ = s.cacheStore.InvalidateDriver(ctx, driverID)
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyPaymentCompleted(ctx, ride, payment)
	}

	return &CompletePaymentResult{Ride: ride, Payment: payment}, nil
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}
	return s.paymentRepo.GetByID(ctx, paymentID)
}
