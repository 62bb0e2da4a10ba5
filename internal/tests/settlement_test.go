package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

type settlementFixture struct {
	rideRepo    *MockRideRepository
	driverRepo  *MockDriverRepository
	paymentRepo *MockPaymentRepository
	gateway     *MockGateway
	payments    *service.PaymentService
}

func newSettlementFixture() *settlementFixture {
	rideRepo := NewMockRideRepository()
	driverRepo := NewMockDriverRepository()
	paymentRepo := NewMockPaymentRepository()
	txm := NewMockTxManager(rideRepo, driverRepo, paymentRepo)
	gateway := NewMockGateway()

	return &settlementFixture{
		rideRepo:    rideRepo,
		driverRepo:  driverRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		payments:    service.NewPaymentService(txm, rideRepo, paymentRepo, gateway, nil, service.NewNotificationService()),
	}
}

// pendingRide seeds a payment_pending ride with a priced fare and its busy
// driver, the state the fare-due hook leaves behind.
func (f *settlementFixture) pendingRide(fareTotal float64, method domain.PaymentMethod) *domain.Ride {
	ride := &domain.Ride{
		ID:            "ride-1",
		RiderID:       "rider-1",
		DriverID:      "driver-1",
		Status:        domain.RideStatusPaymentPending,
		Fare:          domain.Fare{Base: 5.00, Total: fareTotal, Currency: "USD"},
		PaymentStatus: domain.RidePaymentPending,
		PaymentMethod: method,
		RequestedAt:   time.Now(),
		PickedUpAt:    time.Now(),
	}
	f.rideRepo.AddRide(ride)

	driver := onlineDriver("driver-1")
	driver.Availability = domain.DriverBusy
	driver.ActiveRideID = "ride-1"
	f.driverRepo.AddDriver(driver)

	return ride
}

func TestCompletePayment_Cash(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()
	f.pendingRide(23.75, domain.PaymentMethodCash)

	result, err := f.payments.CompletePayment(ctx, service.CompletePaymentParams{
		RideID:  "ride-1",
		ActorID: "rider-1",
	})
	if err != nil {
		t.Fatalf("settlement failed: %v", err)
	}

	if result.Payment.Amount != 23.75 {
		t.Errorf("expected amount 23.75, got %v", result.Payment.Amount)
	}
	if result.Payment.Status != domain.PaymentStatusPaid {
		t.Errorf("expected payment PAID, got %s", result.Payment.Status)
	}
	if result.Payment.TransactionRef != "" {
		t.Errorf("cash settlement should not carry a gateway ref, got %q", result.Payment.TransactionRef)
	}
	if f.gateway.ChargeCallCount != 0 {
		t.Error("cash settlement must not hit the gateway")
	}

	stored := f.rideRepo.GetRide("ride-1")
	if stored.Status != domain.RideStatusCompleted {
		t.Errorf("expected ride completed, got %s", stored.Status)
	}
	if stored.PaymentStatus != domain.RidePaymentCompleted {
		t.Errorf("expected ride payment status completed, got %s", stored.PaymentStatus)
	}

	driver := f.driverRepo.GetDriver("driver-1")
	if driver.Availability != domain.DriverOnline {
		t.Errorf("expected driver released, got %s", driver.Availability)
	}
	if driver.Earnings != 23.75 {
		t.Errorf("expected earnings 23.75, got %v", driver.Earnings)
	}
}

func TestCompletePayment_CardGoesThroughGateway(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()
	f.pendingRide(30.00, domain.PaymentMethodCard)

	result, err := f.payments.CompletePayment(ctx, service.CompletePaymentParams{
		RideID:  "ride-1",
		ActorID: "rider-1",
	})
	if err != nil {
		t.Fatalf("settlement failed: %v", err)
	}

	if f.gateway.ChargeCallCount != 1 {
		t.Errorf("expected one gateway charge, got %d", f.gateway.ChargeCallCount)
	}
	if result.Payment.TransactionRef == "" {
		t.Error("expected gateway transaction ref on the payment")
	}
	if stored := f.rideRepo.GetRide("ride-1"); stored.PaymentRef != result.Payment.TransactionRef {
		t.Error("ride should carry the gateway transaction ref")
	}
}

func TestCompletePayment_GatewayDecline_LeavesRideRetryable(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()
	f.pendingRide(30.00, domain.PaymentMethodCard)
	f.gateway.SetFailure(true, nil)

	_, err := f.payments.CompletePayment(ctx, service.CompletePaymentParams{
		RideID:  "ride-1",
		ActorID: "rider-1",
	})
	if !errors.Is(err, service.ErrPaymentFailed) {
		t.Fatalf("expected ErrPaymentFailed, got %v", err)
	}

	if stored := f.rideRepo.GetRide("ride-1"); stored.Status != domain.RideStatusPaymentPending {
		t.Errorf("ride should remain payment_pending, got %s", stored.Status)
	}
	if f.paymentRepo.CountPayments() != 0 {
		t.Error("no payment row should exist after a decline")
	}
	if d := f.driverRepo.GetDriver("driver-1"); d.Availability != domain.DriverBusy {
		t.Errorf("driver should stay bound after a decline, got %s", d.Availability)
	}

	// Retry after the decline clears succeeds.
	f.gateway.SetFailure(false, nil)
	result, err := f.payments.CompletePayment(ctx, service.CompletePaymentParams{
		RideID:  "ride-1",
		ActorID: "rider-1",
	})
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if result.Ride.Status != domain.RideStatusCompleted {
		t.Errorf("expected completed after retry, got %s", result.Ride.Status)
	}
}

func TestCompletePayment_InsertFailure_LeavesRideRetryable(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()
	f.pendingRide(30.00, domain.PaymentMethodCash)
	f.paymentRepo.CreateError = ErrMockTimeout

	_, err := f.payments.CompletePayment(ctx, service.CompletePaymentParams{
		RideID:  "ride-1",
		ActorID: "rider-1",
	})
	if !errors.Is(err, service.ErrPaymentFailed) {
		t.Fatalf("expected ErrPaymentFailed, got %v", err)
	}

	if stored := f.rideRepo.GetRide("ride-1"); stored.Status != domain.RideStatusPaymentPending {
		t.Errorf("ride should remain payment_pending, got %s", stored.Status)
	}
}

func TestCompletePayment_NotDue(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()

	ride := f.pendingRide(30.00, domain.PaymentMethodCash)
	ride.Status = domain.RideStatusInTransit
	f.rideRepo.AddRide(ride)

	_, err := f.payments.CompletePayment(ctx, service.CompletePaymentParams{
		RideID:  "ride-1",
		ActorID: "rider-1",
	})
	if !errors.Is(err, service.ErrPaymentNotDue) {
		t.Errorf("expected ErrPaymentNotDue, got %v", err)
	}
}

func TestCompletePayment_RejectsStranger(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()
	f.pendingRide(30.00, domain.PaymentMethodCash)

	_, err := f.payments.CompletePayment(ctx, service.CompletePaymentParams{
		RideID:  "ride-1",
		ActorID: "someone-else",
	})
	if !errors.Is(err, service.ErrNotRideOwner) {
		t.Errorf("expected ErrNotRideOwner, got %v", err)
	}
}

func TestCompletePayment_BoundDriverMaySettle(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()
	f.pendingRide(30.00, domain.PaymentMethodCash)

	result, err := f.payments.CompletePayment(ctx, service.CompletePaymentParams{
		RideID:  "ride-1",
		ActorID: "driver-1",
	})
	if err != nil {
		t.Fatalf("driver settlement failed: %v", err)
	}
	if result.Ride.Status != domain.RideStatusCompleted {
		t.Errorf("expected completed, got %s", result.Ride.Status)
	}
}

func TestCompletePayment_DoubleSettlement(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture()
	f.pendingRide(30.00, domain.PaymentMethodCash)

	if _, err := f.payments.CompletePayment(ctx, service.CompletePaymentParams{RideID: "ride-1", ActorID: "rider-1"}); err != nil {
		t.Fatalf("first settlement failed: %v", err)
	}

	_, err := f.payments.CompletePayment(ctx, service.CompletePaymentParams{RideID: "ride-1", ActorID: "rider-1"})
	if !errors.Is(err, service.ErrPaymentNotDue) {
		t.Errorf("expected ErrPaymentNotDue on double settlement, got %v", err)
	}
	if f.paymentRepo.CountPayments() != 1 {
		t.Errorf("expected a single payment row, got %d", f.paymentRepo.CountPayments())
	}
}
