package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

type lifecycleFixture struct {
	rideRepo    *MockRideRepository
	driverRepo  *MockDriverRepository
	paymentRepo *MockPaymentRepository
	gateway     *MockGateway
	rides       *service.RideService
	dispatch    *service.DispatchService
	payments    *service.PaymentService
}

func newLifecycleFixture() *lifecycleFixture {
	rideRepo := NewMockRideRepository()
	driverRepo := NewMockDriverRepository()
	paymentRepo := NewMockPaymentRepository()
	txm := NewMockTxManager(rideRepo, driverRepo, paymentRepo)
	gateway := NewMockGateway()
	notifications := service.NewNotificationService()
	fareCalc := service.NewFareCalculator(service.DefaultFareConfig())

	return &lifecycleFixture{
		rideRepo:    rideRepo,
		driverRepo:  driverRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		rides:       service.NewRideService(txm, rideRepo, driverRepo, fareCalc, nil, nil, notifications),
		dispatch:    service.NewDispatchService(txm, rideRepo, driverRepo, nil, notifications),
		payments:    service.NewPaymentService(txm, rideRepo, paymentRepo, gateway, nil, notifications),
	}
}

func dhakaRequest(riderID string) service.RequestRideParams {
	return service.RequestRideParams{
		RiderID:     riderID,
		Pickup:      domain.Location{Address: "Dhanmondi", Lat: 23.75, Lng: 90.37},
		Destination: domain.Location{Address: "Gulshan", Lat: 23.79, Lng: 90.41},
	}
}

func TestRequestRide_CreatesRequestedRide(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	ride, err := f.rides.RequestRide(ctx, dhakaRequest("rider-1"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if ride.Status != domain.RideStatusRequested {
		t.Errorf("expected requested, got %s", ride.Status)
	}
	if ride.DriverID != "" {
		t.Errorf("new ride should have no driver, got %q", ride.DriverID)
	}
	if ride.DistanceEstimatedKm <= 0 {
		t.Error("expected a positive distance estimate")
	}
	if ride.Fare.Total <= ride.Fare.Base {
		t.Errorf("expected estimated fare above base, got %+v", ride.Fare)
	}
	if ride.PaymentMethod != domain.PaymentMethodCash {
		t.Errorf("expected default payment method CASH, got %s", ride.PaymentMethod)
	}
	if ride.RequestedAt.IsZero() {
		t.Error("expected RequestedAt to be stamped")
	}
}

func TestRequestRide_RejectsSecondActiveRide(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	if _, err := f.rides.RequestRide(ctx, dhakaRequest("rider-1")); err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	_, err := f.rides.RequestRide(ctx, dhakaRequest("rider-1"))
	if !errors.Is(err, service.ErrActiveRideExists) {
		t.Errorf("expected ErrActiveRideExists, got %v", err)
	}
}

func TestRequestRide_InvalidCoordinates(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	params := dhakaRequest("rider-1")
	params.Pickup.Lat = 123.0
	if _, err := f.rides.RequestRide(ctx, params); !errors.Is(err, service.ErrInvalidPickupLocation) {
		t.Errorf("expected ErrInvalidPickupLocation, got %v", err)
	}

	params = dhakaRequest("rider-1")
	params.Destination.Lng = -200.0
	if _, err := f.rides.RequestRide(ctx, params); !errors.Is(err, service.ErrInvalidDestinationLocation) {
		t.Errorf("expected ErrInvalidDestinationLocation, got %v", err)
	}
}

// Runs the whole happy path: request, accept, pickup, PIN-verified transit,
// fare-due, settlement.
func TestRideLifecycle_HappyPath(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	f.driverRepo.AddDriver(onlineDriver("driver-1"))

	ride, err := f.rides.RequestRide(ctx, dhakaRequest("rider-1"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	rideID := ride.ID

	ride, err = f.dispatch.AcceptRide(ctx, rideID, "driver-1")
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	pin := ride.PIN

	ride, err = f.rides.AdvanceStatus(ctx, rideID, "driver-1", "")
	if err != nil {
		t.Fatalf("pickup failed: %v", err)
	}
	if ride.Status != domain.RideStatusPickedUp {
		t.Fatalf("expected picked_up, got %s", ride.Status)
	}
	if ride.PickedUpAt.IsZero() {
		t.Error("expected PickedUpAt stamped")
	}

	ride, err = f.rides.VerifyPinAndStartTransit(ctx, rideID, "driver-1", pin)
	if err != nil {
		t.Fatalf("start transit failed: %v", err)
	}
	if ride.Status != domain.RideStatusInTransit {
		t.Fatalf("expected in_transit, got %s", ride.Status)
	}
	if ride.PIN != "" {
		t.Error("pin should be cleared after verification")
	}

	ride, err = f.rides.AdvanceStatus(ctx, rideID, "driver-1", "")
	if err != nil {
		t.Fatalf("arrive failed: %v", err)
	}
	if ride.Status != domain.RideStatusPaymentPending {
		t.Fatalf("expected payment_pending, got %s", ride.Status)
	}
	if ride.DistanceActualKm <= 0 {
		t.Error("expected actual distance fixed at fare-due point")
	}
	if ride.Fare.Total <= 0 {
		t.Error("expected fare priced at fare-due point")
	}
	fareDue := ride.Fare.Total

	result, err := f.payments.CompletePayment(ctx, service.CompletePaymentParams{
		RideID:  rideID,
		ActorID: "rider-1",
	})
	if err != nil {
		t.Fatalf("settlement failed: %v", err)
	}
	if result.Payment.Amount != fareDue {
		t.Errorf("payment amount %v != fare due %v", result.Payment.Amount, fareDue)
	}
	if result.Ride.Status != domain.RideStatusCompleted {
		t.Errorf("expected completed, got %s", result.Ride.Status)
	}
	if result.Ride.CompletedAt.IsZero() {
		t.Error("expected CompletedAt stamped")
	}

	// Timestamps must be ordered along the lifecycle.
	stored := f.rideRepo.GetRide(rideID)
	order := []time.Time{stored.RequestedAt, stored.AcceptedAt, stored.PickedUpAt, stored.InTransitAt, stored.CompletedAt}
	for i := 1; i < len(order); i++ {
		if order[i].Before(order[i-1]) {
			t.Errorf("timestamp %d precedes timestamp %d", i, i-1)
		}
	}

	driver := f.driverRepo.GetDriver("driver-1")
	if driver.Availability != domain.DriverOnline {
		t.Errorf("expected driver released after settlement, got %s", driver.Availability)
	}
	if driver.Earnings != fareDue {
		t.Errorf("expected earnings %v, got %v", fareDue, driver.Earnings)
	}
}

func TestAdvanceStatus_PinMismatch(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	f.driverRepo.AddDriver(onlineDriver("driver-1"))

	ride, _ := f.rides.RequestRide(ctx, dhakaRequest("rider-1"))
	if _, err := f.dispatch.AcceptRide(ctx, ride.ID, "driver-1"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.rides.AdvanceStatus(ctx, ride.ID, "driver-1", ""); err != nil {
		t.Fatalf("pickup failed: %v", err)
	}

	_, err := f.rides.VerifyPinAndStartTransit(ctx, ride.ID, "driver-1", "0000x")
	if !errors.Is(err, service.ErrPinMismatch) {
		t.Errorf("expected ErrPinMismatch, got %v", err)
	}
	if _, err := f.rides.VerifyPinAndStartTransit(ctx, ride.ID, "driver-1", ""); !errors.Is(err, service.ErrPinMismatch) {
		t.Errorf("expected ErrPinMismatch for empty pin, got %v", err)
	}

	// A failed attempt must not consume the PIN.
	if stored := f.rideRepo.GetRide(ride.ID); stored.PIN == "" {
		t.Error("pin should survive a failed verification")
	}
	if stored := f.rideRepo.GetRide(ride.ID); stored.Status != domain.RideStatusPickedUp {
		t.Errorf("ride should remain picked_up, got %s", stored.Status)
	}
}

func TestAdvanceStatus_WrongDriver(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	f.driverRepo.AddDriver(onlineDriver("driver-1"))

	ride, _ := f.rides.RequestRide(ctx, dhakaRequest("rider-1"))
	if _, err := f.dispatch.AcceptRide(ctx, ride.ID, "driver-1"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	_, err := f.rides.AdvanceStatus(ctx, ride.ID, "driver-2", "")
	if !errors.Is(err, service.ErrNotAssignedDriver) {
		t.Errorf("expected ErrNotAssignedDriver, got %v", err)
	}
}

func TestAdvanceStatus_SettlementOwnsPaymentTransitions(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	ride := requestedRide("ride-1", "rider-1")
	ride.Status = domain.RideStatusPaymentPending
	ride.DriverID = "driver-1"
	f.rideRepo.AddRide(ride)

	_, err := f.rides.AdvanceStatus(ctx, "ride-1", "driver-1", "")
	if !errors.Is(err, service.ErrPaymentDue) {
		t.Errorf("expected ErrPaymentDue, got %v", err)
	}
}

func TestAdvanceStatus_TerminalRide(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	ride := requestedRide("ride-1", "rider-1")
	ride.Status = domain.RideStatusCancelled
	ride.DriverID = "driver-1"
	f.rideRepo.AddRide(ride)

	_, err := f.rides.AdvanceStatus(ctx, "ride-1", "driver-1", "")
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancelRide_WhileRequested(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	ride, _ := f.rides.RequestRide(ctx, dhakaRequest("rider-1"))

	cancelled, err := f.rides.CancelRide(ctx, ride.ID, "rider-1", "changed my mind")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.RideStatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.CancelledBy != domain.CancelledByRider {
		t.Errorf("expected cancelled_by rider, got %s", cancelled.CancelledBy)
	}
	if cancelled.CancelledAt.IsZero() {
		t.Error("expected CancelledAt stamped")
	}
}

func TestCancelRide_WhileAccepted_ReleasesDriver(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	f.driverRepo.AddDriver(onlineDriver("driver-1"))

	ride, _ := f.rides.RequestRide(ctx, dhakaRequest("rider-1"))
	if _, err := f.dispatch.AcceptRide(ctx, ride.ID, "driver-1"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	cancelled, err := f.rides.CancelRide(ctx, ride.ID, "rider-1", "")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.RideStatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.PIN != "" {
		t.Error("expected pin cleared on cancel")
	}

	driver := f.driverRepo.GetDriver("driver-1")
	if driver.Availability != domain.DriverOnline {
		t.Errorf("expected driver released, got %s", driver.Availability)
	}
	if driver.ActiveRideID != "" {
		t.Errorf("expected active ride cleared, got %q", driver.ActiveRideID)
	}
}

func TestCancelRide_AfterPickup_Rejected(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	f.driverRepo.AddDriver(onlineDriver("driver-1"))

	ride, _ := f.rides.RequestRide(ctx, dhakaRequest("rider-1"))
	if _, err := f.dispatch.AcceptRide(ctx, ride.ID, "driver-1"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.rides.AdvanceStatus(ctx, ride.ID, "driver-1", ""); err != nil {
		t.Fatalf("pickup failed: %v", err)
	}

	_, err := f.rides.CancelRide(ctx, ride.ID, "rider-1", "too late")
	if !errors.Is(err, service.ErrCancellationNotAllowed) {
		t.Errorf("expected ErrCancellationNotAllowed, got %v", err)
	}

	if stored := f.rideRepo.GetRide(ride.ID); stored.Status != domain.RideStatusPickedUp {
		t.Errorf("ride should remain picked_up, got %s", stored.Status)
	}
}

func TestCancelRide_NotOwner(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	ride, _ := f.rides.RequestRide(ctx, dhakaRequest("rider-1"))

	_, err := f.rides.CancelRide(ctx, ride.ID, "rider-2", "")
	if !errors.Is(err, service.ErrNotRideOwner) {
		t.Errorf("expected ErrNotRideOwner, got %v", err)
	}
}

func TestRateRide_CompletedOnly(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	driver := onlineDriver("driver-1")
	f.driverRepo.AddDriver(driver)

	ride := requestedRide("ride-1", "rider-1")
	ride.Status = domain.RideStatusCompleted
	ride.DriverID = "driver-1"
	f.rideRepo.AddRide(ride)

	rated, err := f.rides.RateRide(ctx, service.RateRideParams{
		RideID:  "ride-1",
		ActorID: "rider-1",
		Role:    "rider",
		Rating:  5,
	})
	if err != nil {
		t.Fatalf("rate failed: %v", err)
	}
	if rated.RiderRating != 5 {
		t.Errorf("expected rider rating 5, got %d", rated.RiderRating)
	}

	// The rider's rating feeds the driver aggregate.
	if d := f.driverRepo.GetDriver("driver-1"); d.Rating.Count != 1 || d.Rating.Average != 5 {
		t.Errorf("expected driver aggregate {5,1}, got %+v", d.Rating)
	}
}

func TestRateRide_RejectsUnfinishedAndOutOfRange(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	ride := requestedRide("ride-1", "rider-1")
	ride.Status = domain.RideStatusInTransit
	ride.DriverID = "driver-1"
	f.rideRepo.AddRide(ride)

	if _, err := f.rides.RateRide(ctx, service.RateRideParams{RideID: "ride-1", ActorID: "rider-1", Rating: 4}); !errors.Is(err, service.ErrRideNotCompleted) {
		t.Errorf("expected ErrRideNotCompleted, got %v", err)
	}
	if _, err := f.rides.RateRide(ctx, service.RateRideParams{RideID: "ride-1", ActorID: "rider-1", Rating: 0}); !errors.Is(err, service.ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating, got %v", err)
	}
	if _, err := f.rides.RateRide(ctx, service.RateRideParams{RideID: "ride-1", ActorID: "rider-1", Rating: 6}); !errors.Is(err, service.ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating, got %v", err)
	}
}
