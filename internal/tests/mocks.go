package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. The
// conditional writes (Assign, Unassign, UpdateIfStatus) check and mutate
// under one lock, mirroring the atomicity of the SQL conditional updates.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount int32
	AssignCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) GetActiveByRiderID(ctx context.Context, riderID string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rides {
		if r.RiderID == riderID && !r.Status.IsTerminal() {
			copy := *r
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockRideRepository) ListByRiderID(ctx context.Context, riderID string, limit int) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Ride
	for _, r := range m.rides {
		if r.RiderID == riderID && len(result) < limit {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRideRepository) ListByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Ride
	for _, r := range m.rides {
		if r.DriverID == driverID && len(result) < limit {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRideRepository) Assign(ctx context.Context, rideID, driverID, pin string, at time.Time) error {
	atomic.AddInt32(&m.AssignCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrStaleState
	}
	if ride.Status != domain.RideStatusRequested || ride.DriverID != "" {
		return repository.ErrStaleState
	}
	ride.Status = domain.RideStatusAccepted
	ride.DriverID = driverID
	ride.PIN = pin
	ride.AcceptedAt = at
	return nil
}

func (m *MockRideRepository) Unassign(ctx context.Context, rideID, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrStaleState
	}
	if ride.Status != domain.RideStatusAccepted || ride.DriverID != driverID {
		return repository.ErrStaleState
	}
	ride.Status = domain.RideStatusRequested
	ride.DriverID = ""
	ride.PIN = ""
	ride.AcceptedAt = time.Time{}
	return nil
}

func (m *MockRideRepository) UpdateIfStatus(ctx context.Context, ride *domain.Ride, expected domain.RideStatus) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rides[ride.ID]
	if !ok {
		return repository.ErrStaleState
	}
	if stored.Status != expected {
		return repository.ErrStaleState
	}
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) UpdateRating(ctx context.Context, ride *domain.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rides[ride.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.RiderRating = ride.RiderRating
	stored.DriverRating = ride.DriverRating
	stored.RiderFeedback = ride.RiderFeedback
	stored.DriverFeedback = ride.DriverFeedback
	return nil
}

// GetRide returns the stored ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	BindCallCount    int32
	ReleaseCallCount int32

	// Error injection
	CreateError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *driver
	m.drivers[driver.ID] = &copy
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetByUserID(ctx context.Context, userID string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.UserID == userID {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		copy := *d
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockDriverRepository) UpdateApproval(ctx context.Context, id string, approval domain.DriverApproval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Approval = approval
	if approval == domain.DriverApprovalApproved {
		driver.ApprovedAt = time.Now()
	}
	return nil
}

func (m *MockDriverRepository) Bind(ctx context.Context, driverID, rideID string) error {
	atomic.AddInt32(&m.BindCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[driverID]
	if !ok {
		return repository.ErrStaleState
	}
	if driver.Availability != domain.DriverOnline || driver.ActiveRideID != "" {
		return repository.ErrStaleState
	}
	driver.Availability = domain.DriverBusy
	driver.ActiveRideID = rideID
	return nil
}

func (m *MockDriverRepository) Release(ctx context.Context, driverID, rideID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[driverID]
	if !ok {
		return nil
	}
	if driver.Availability != domain.DriverBusy || driver.ActiveRideID != rideID {
		return nil
	}
	driver.Availability = domain.DriverOnline
	driver.ActiveRideID = ""
	return nil
}

func (m *MockDriverRepository) SetAvailability(ctx context.Context, driverID string, from, to domain.DriverAvailability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[driverID]
	if !ok {
		return repository.ErrNotFound
	}
	if driver.Availability != from {
		return repository.ErrStaleState
	}
	driver.Availability = to
	return nil
}

func (m *MockDriverRepository) AddEarnings(ctx context.Context, driverID string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[driverID]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Earnings += amount
	return nil
}

func (m *MockDriverRepository) UpdateRating(ctx context.Context, driverID string, rating domain.DriverRating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[driverID]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Rating = rating
	return nil
}

// GetDriver returns the stored driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	// Counters
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// One settlement per ride.
	for _, p := range m.payments {
		if p.RideID == payment.RideID {
			return ErrMockDBConstraint
		}
	}
	copy := *payment
	m.payments[payment.ID] = &copy
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) GetByRideID(ctx context.Context, rideID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.RideID == rideID {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	payment.Status = status
	return nil
}

// CountPayments returns the number of payments.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

// ──────────────────────────────────────────────
// MOCK TX MANAGER
// ──────────────────────────────────────────────

// MockTxManager runs the transactional function directly against the mock
// repositories. It does not roll back map mutations, so services are expected
// to order their writes with the failable step first; the settlement and
// dispatch flows do.
type MockTxManager struct {
	RideRepo    *MockRideRepository
	DriverRepo  *MockDriverRepository
	PaymentRepo *MockPaymentRepository

	// Counters
	WithinTxCallCount int32

	// Error injection: returned before fn runs.
	BeginError error
}

// NewMockTxManager creates a transaction manager over the given mocks.
func NewMockTxManager(rides *MockRideRepository, drivers *MockDriverRepository, payments *MockPaymentRepository) *MockTxManager {
	return &MockTxManager{
		RideRepo:    rides,
		DriverRepo:  drivers,
		PaymentRepo: payments,
	}
}

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	atomic.AddInt32(&m.WithinTxCallCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}
	return fn(&mockTx{m: m})
}

type mockTx struct {
	m *MockTxManager
}

func (t *mockTx) Rides() repository.RideRepository       { return t.m.RideRepo }
func (t *mockTx) Drivers() repository.DriverRepository   { return t.m.DriverRepo }
func (t *mockTx) Payments() repository.PaymentRepository { return t.m.PaymentRepo }

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of the driver geo index.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations []redis.DriverLocation

	// Counters
	UpdateLocationCallCount int32

	// Error injection
	UpdateLocationError    error
	FindNearbyDriversError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make([]redis.DriverLocation, 0),
	}
}

// SetLocations sets all locations (for test setup).
func (m *MockLocationStore) SetLocations(locations []redis.DriverLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = locations
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.DriverID == driverID {
			m.locations[i].Lat = lat
			m.locations[i].Lng = lng
			return nil
		}
	}
	m.locations = append(m.locations, redis.DriverLocation{
		DriverID: driverID,
		Lat:      lat,
		Lng:      lng,
	})
	return nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	if m.FindNearbyDriversError != nil {
		return nil, m.FindNearbyDriversError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	// The mock skips real geo filtering and returns everything.
	result := make([]redis.DriverLocation, len(m.locations))
	copy(result, m.locations)
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.DriverID == driverID {
			m.locations = append(m.locations[:i], m.locations[i+1:]...)
			return nil
		}
	}
	return nil
}

// HasLocation checks if a driver location exists.
func (m *MockLocationStore) HasLocation(driverID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.DriverID == driverID {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is an in-memory stand-in for the Redis snapshot cache.
type MockCacheStore struct {
	mu      sync.RWMutex
	rides   map[string]*domain.Ride
	drivers map[string]*domain.Driver

	// Counters for verification
	SetRideCallCount   int32
	SetDriverCallCount int32
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		rides:   make(map[string]*domain.Ride),
		drivers: make(map[string]*domain.Driver),
	}
}

func (m *MockCacheStore) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return nil, nil
	}
	copied := *ride
	return &copied, nil
}

func (m *MockCacheStore) SetRide(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.SetRideCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *ride
	m.rides[ride.ID] = &copied
	return nil
}

func (m *MockCacheStore) InvalidateRide(ctx context.Context, rideID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rides, rideID)
	return nil
}

func (m *MockCacheStore) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[driverID]
	if !ok {
		return nil, nil
	}
	copied := *driver
	return &copied, nil
}

func (m *MockCacheStore) SetDriver(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.SetDriverCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *driver
	m.drivers[driver.ID] = &copied
	return nil
}

func (m *MockCacheStore) InvalidateDriver(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drivers, driverID)
	return nil
}

// HasDriver checks if a driver snapshot is cached.
func (m *MockCacheStore) HasDriver(driverID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.drivers[driverID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK PAYMENT GATEWAY
// ──────────────────────────────────────────────

// MockGateway is a controllable payment gateway.
type MockGateway struct {
	mu sync.Mutex

	// Control behavior
	ShouldFail bool
	FailError  error

	// Counters
	ChargeCallCount int32
}

// NewMockGateway creates a new mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) Charge(ctx context.Context, rideID string, amount float64, method domain.PaymentMethod) (string, error) {
	n := atomic.AddInt32(&m.ChargeCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		if m.FailError != nil {
			return "", m.FailError
		}
		return "", errors.New("mock gateway: declined")
	}
	return fmt.Sprintf("txn-test-%d", n), nil
}

// SetFailure configures the gateway to decline charges.
func (m *MockGateway) SetFailure(shouldFail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldFail = shouldFail
	m.FailError = err
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)
