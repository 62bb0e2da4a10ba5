package tests

import (
	"context"
	"errors"
	"testing"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

func newDriverFixture() (*service.DriverService, *MockDriverRepository, *MockLocationStore) {
	driverRepo := NewMockDriverRepository()
	locationStore := NewMockLocationStore()
	svc := service.NewDriverService(driverRepo, locationStore, nil)
	return svc, driverRepo, locationStore
}

func TestApply_CreatesPendingOfflineDriver(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newDriverFixture()

	driver, err := svc.Apply(ctx, service.ApplyRequest{
		UserID:        "user-1",
		Name:          "Rahim",
		LicenseNumber: "DL-1234",
		VehiclePlate:  "DHK-99-1234",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if driver.Approval != domain.DriverApprovalPending {
		t.Errorf("expected pending approval, got %s", driver.Approval)
	}
	if driver.Availability != domain.DriverOffline {
		t.Errorf("expected offline, got %s", driver.Availability)
	}
	if driver.ID == "" || driver.UserID != "user-1" {
		t.Errorf("unexpected identity fields: %+v", driver)
	}
}

func TestApply_RejectsSecondApplication(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newDriverFixture()

	if _, err := svc.Apply(ctx, service.ApplyRequest{UserID: "user-1", Name: "Rahim"}); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}

	_, err := svc.Apply(ctx, service.ApplyRequest{UserID: "user-1", Name: "Rahim"})
	if !errors.Is(err, service.ErrDriverAlreadyRegistered) {
		t.Errorf("expected ErrDriverAlreadyRegistered, got %v", err)
	}
}

func TestSetAvailability_RequiresApproval(t *testing.T) {
	ctx := context.Background()
	svc, driverRepo, _ := newDriverFixture()

	driver := onlineDriver("driver-1")
	driver.Approval = domain.DriverApprovalPending
	driver.Availability = domain.DriverOffline
	driverRepo.AddDriver(driver)

	_, err := svc.SetAvailability(ctx, "driver-1", domain.DriverOnline)
	if !errors.Is(err, service.ErrDriverNotApproved) {
		t.Errorf("expected ErrDriverNotApproved, got %v", err)
	}
}

func TestSetAvailability_ApprovedDriverGoesOnlineAndOffline(t *testing.T) {
	ctx := context.Background()
	svc, driverRepo, locationStore := newDriverFixture()

	driver := onlineDriver("driver-1")
	driver.Availability = domain.DriverOffline
	driverRepo.AddDriver(driver)

	got, err := svc.SetAvailability(ctx, "driver-1", domain.DriverOnline)
	if err != nil {
		t.Fatalf("go online failed: %v", err)
	}
	if got.Availability != domain.DriverOnline {
		t.Errorf("expected online, got %s", got.Availability)
	}

	// Position update while online, then going offline drops it from the
	// geo index.
	if err := svc.UpdateLocation(ctx, "driver-1", 23.75, 90.37); err != nil {
		t.Fatalf("update location failed: %v", err)
	}
	if !locationStore.HasLocation("driver-1") {
		t.Fatal("expected location in the geo index")
	}

	if _, err := svc.SetAvailability(ctx, "driver-1", domain.DriverOffline); err != nil {
		t.Fatalf("go offline failed: %v", err)
	}
	if locationStore.HasLocation("driver-1") {
		t.Error("expected location removed when going offline")
	}
}

func TestSetAvailability_BusyDriverMustFinishRide(t *testing.T) {
	ctx := context.Background()
	svc, driverRepo, _ := newDriverFixture()

	driver := onlineDriver("driver-1")
	driver.Availability = domain.DriverBusy
	driver.ActiveRideID = "ride-1"
	driverRepo.AddDriver(driver)

	_, err := svc.SetAvailability(ctx, "driver-1", domain.DriverOffline)
	if !errors.Is(err, service.ErrDriverBusy) {
		t.Errorf("expected ErrDriverBusy, got %v", err)
	}
}

func TestSetAvailability_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, driverRepo, _ := newDriverFixture()

	driverRepo.AddDriver(onlineDriver("driver-1"))

	got, err := svc.SetAvailability(ctx, "driver-1", domain.DriverOnline)
	if err != nil {
		t.Fatalf("setting the current availability should succeed: %v", err)
	}
	if got.Availability != domain.DriverOnline {
		t.Errorf("expected online, got %s", got.Availability)
	}
}

func TestSetApproval_ApprovingStampsTime(t *testing.T) {
	ctx := context.Background()
	svc, driverRepo, _ := newDriverFixture()

	driver := onlineDriver("driver-1")
	driver.Approval = domain.DriverApprovalPending
	driverRepo.AddDriver(driver)

	got, err := svc.SetApproval(ctx, "driver-1", domain.DriverApprovalApproved)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if got.Approval != domain.DriverApprovalApproved {
		t.Errorf("expected approved, got %s", got.Approval)
	}
	if got.ApprovedAt.IsZero() {
		t.Error("expected ApprovedAt stamped")
	}
}

func TestUpdateLocation_RejectsBadCoordinates(t *testing.T) {
	ctx := context.Background()
	svc, driverRepo, locationStore := newDriverFixture()
	driverRepo.AddDriver(onlineDriver("driver-1"))

	if err := svc.UpdateLocation(ctx, "driver-1", 91.0, 0.0); err == nil {
		t.Error("expected error for latitude out of range")
	}
	if err := svc.UpdateLocation(ctx, "driver-1", 0.0, 181.0); err == nil {
		t.Error("expected error for longitude out of range")
	}
	if locationStore.HasLocation("driver-1") {
		t.Error("invalid updates must not reach the geo index")
	}
}

func TestGetDriver_ServesCachedSnapshot(t *testing.T) {
	ctx := context.Background()
	driverRepo := NewMockDriverRepository()
	cache := NewMockCacheStore()
	svc := service.NewDriverService(driverRepo, NewMockLocationStore(), cache)

	driver := onlineDriver("driver-1")
	driver.Name = "Rahim"
	driverRepo.AddDriver(driver)

	// First read misses the cache and populates it.
	got, err := svc.GetDriver(ctx, "driver-1")
	if err != nil {
		t.Fatalf("get driver failed: %v", err)
	}
	if got.Name != "Rahim" {
		t.Errorf("expected Rahim, got %q", got.Name)
	}
	if !cache.HasDriver("driver-1") {
		t.Fatal("expected driver snapshot cached after a miss")
	}

	// A repository change invisible to the cache proves the second read is
	// served from the snapshot.
	stale := onlineDriver("driver-1")
	stale.Name = "Changed"
	driverRepo.AddDriver(stale)

	got, err = svc.GetDriver(ctx, "driver-1")
	if err != nil {
		t.Fatalf("cached get driver failed: %v", err)
	}
	if got.Name != "Rahim" {
		t.Errorf("expected the cached snapshot, got %q", got.Name)
	}
	if cache.SetDriverCallCount != 1 {
		t.Errorf("expected a single cache fill, got %d", cache.SetDriverCallCount)
	}
}

func TestGetDriver_MutationsInvalidateTheSnapshot(t *testing.T) {
	ctx := context.Background()
	driverRepo := NewMockDriverRepository()
	cache := NewMockCacheStore()
	svc := service.NewDriverService(driverRepo, NewMockLocationStore(), cache)

	driver := onlineDriver("driver-1")
	driver.Availability = domain.DriverOffline
	driverRepo.AddDriver(driver)

	if _, err := svc.GetDriver(ctx, "driver-1"); err != nil {
		t.Fatalf("get driver failed: %v", err)
	}

	if _, err := svc.SetAvailability(ctx, "driver-1", domain.DriverOnline); err != nil {
		t.Fatalf("go online failed: %v", err)
	}
	if cache.HasDriver("driver-1") {
		t.Fatal("expected the snapshot invalidated on availability change")
	}

	got, err := svc.GetDriver(ctx, "driver-1")
	if err != nil {
		t.Fatalf("get driver after invalidation failed: %v", err)
	}
	if got.Availability != domain.DriverOnline {
		t.Errorf("expected online after refetch, got %s", got.Availability)
	}
}

func TestRelease_Idempotent(t *testing.T) {
	ctx := context.Background()
	driverRepo := NewMockDriverRepository()

	driver := onlineDriver("driver-1")
	driver.Availability = domain.DriverBusy
	driver.ActiveRideID = "ride-1"
	driverRepo.AddDriver(driver)

	if err := driverRepo.Release(ctx, "driver-1", "ride-1"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := driverRepo.Release(ctx, "driver-1", "ride-1"); err != nil {
		t.Fatalf("second release should be a no-op, got %v", err)
	}

	got := driverRepo.GetDriver("driver-1")
	if got.Availability != domain.DriverOnline || got.ActiveRideID != "" {
		t.Errorf("expected online with no active ride, got %+v", got)
	}
}

func TestRelease_OnlyFreesTheHeldRide(t *testing.T) {
	ctx := context.Background()
	driverRepo := NewMockDriverRepository()

	driver := onlineDriver("driver-1")
	driver.Availability = domain.DriverBusy
	driver.ActiveRideID = "ride-current"
	driverRepo.AddDriver(driver)

	if err := driverRepo.Release(ctx, "driver-1", "ride-other"); err != nil {
		t.Fatalf("release against a ride the driver does not hold should be a no-op, got %v", err)
	}

	got := driverRepo.GetDriver("driver-1")
	if got.Availability != domain.DriverBusy || got.ActiveRideID != "ride-current" {
		t.Errorf("expected driver still busy on ride-current, got %+v", got)
	}
}
