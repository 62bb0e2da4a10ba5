package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// Receipt summarizes a settled ride for the rider.
type Receipt struct {
	ID            string
	RideID        string
	RiderID       string
	DriverID      string
	Pickup        domain.Location
	Destination   domain.Location
	Fare          domain.Fare
	DistanceKm    float64
	DurationMin   float64
	PaymentMethod domain.PaymentMethod
	PaymentStatus domain.PaymentStatus
	PickedUpAt    time.Time
	CompletedAt   time.Time
	CreatedAt     time.Time
}

// ReceiptService builds receipts for completed rides.
type ReceiptService struct {
	rideRepo    repository.RideRepository
	paymentRepo repository.PaymentRepository
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(rideRepo repository.RideRepository, paymentRepo repository.PaymentRepository) *ReceiptService {
	return &ReceiptService{
		rideRepo:    rideRepo,
		paymentRepo: paymentRepo,
	}
}

// Generate builds a receipt for a completed ride.
func (s *ReceiptService) Generate(ctx context.Context, rideID string) (*Receipt, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusCompleted {
		return nil, ErrRideNotCompleted
	}

	status := domain.PaymentStatusUnpaid
	payment, err := s.paymentRepo.GetByRideID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if payment != nil {
		status = payment.Status
	}

	return &Receipt{
		ID:            uuid.New().String(),
		RideID:        ride.ID,
		RiderID:       ride.RiderID,
		DriverID:      ride.DriverID,
		Pickup:        ride.Pickup,
		Destination:   ride.Destination,
		Fare:          ride.Fare,
		DistanceKm:    ride.DistanceActualKm,
		DurationMin:   ride.DurationActualMin,
		PaymentMethod: ride.PaymentMethod,
		PaymentStatus: status,
		PickedUpAt:    ride.PickedUpAt,
		CompletedAt:   ride.CompletedAt,
		CreatedAt:     time.Now(),
	}, nil
}
