package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusRequested        RideStatus = "requested"
	RideStatusAccepted         RideStatus = "accepted"
	RideStatusPickedUp         RideStatus = "picked_up"
	RideStatusInTransit        RideStatus = "in_transit"
	RideStatusPaymentPending   RideStatus = "payment_pending"
	RideStatusPaymentCompleted RideStatus = "payment_completed"
	RideStatusCompleted        RideStatus = "completed"
	RideStatusCancelled        RideStatus = "cancelled"
	RideStatusNoDriverFound    RideStatus = "no_driver_found"
	RideStatusFailed           RideStatus = "failed"
)

// CanTransitionTo reports whether the status graph permits moving from s to
// target. The graph is forward-only; terminal statuses have no successors.
func (s RideStatus) CanTransitionTo(target RideStatus) bool {
	switch s {
	case RideStatusRequested:
		return target == RideStatusAccepted ||
			target == RideStatusCancelled ||
			target == RideStatusNoDriverFound
	case RideStatusAccepted:
		return target == RideStatusPickedUp || target == RideStatusCancelled
	case RideStatusPickedUp:
		return target == RideStatusInTransit
	case RideStatusInTransit:
		return target == RideStatusPaymentPending
	case RideStatusPaymentPending:
		return target == RideStatusPaymentCompleted
	case RideStatusPaymentCompleted:
		return target == RideStatusCompleted
	case RideStatusCompleted, RideStatusCancelled, RideStatusNoDriverFound, RideStatusFailed:
		return false
	default:
		return false
	}
}

// Next returns the single forward successor of s, or "" when the next step is
// ambiguous (requested) or s is terminal. Accept and cancel are explicit side
// transitions and never come through Next.
func (s RideStatus) Next() RideStatus {
	switch s {
	case RideStatusAccepted:
		return RideStatusPickedUp
	case RideStatusPickedUp:
		return RideStatusInTransit
	case RideStatusInTransit:
		return RideStatusPaymentPending
	case RideStatusPaymentPending:
		return RideStatusPaymentCompleted
	case RideStatusPaymentCompleted:
		return RideStatusCompleted
	default:
		return ""
	}
}

// IsTerminal reports whether no further transition exists from s.
func (s RideStatus) IsTerminal() bool {
	switch s {
	case RideStatusCompleted, RideStatusCancelled, RideStatusNoDriverFound, RideStatusFailed:
		return true
	default:
		return false
	}
}

// DriverBound reports whether a ride in status s must have a driver attached.
func (s RideStatus) DriverBound() bool {
	switch s {
	case RideStatusAccepted, RideStatusPickedUp, RideStatusInTransit,
		RideStatusPaymentPending, RideStatusPaymentCompleted, RideStatusCompleted:
		return true
	default:
		return false
	}
}

// PaymentMethod represents the payment method for a ride.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodWallet PaymentMethod = "WALLET"
	PaymentMethodUPI    PaymentMethod = "UPI"
)

// RidePaymentStatus tracks payment progress on the ride itself.
type RidePaymentStatus string

const (
	RidePaymentPending   RidePaymentStatus = "pending"
	RidePaymentCompleted RidePaymentStatus = "completed"
	RidePaymentFailed    RidePaymentStatus = "failed"
	RidePaymentRefunded  RidePaymentStatus = "refunded"
)

// CancelActor identifies who cancelled a ride.
type CancelActor string

const (
	CancelledByRider  CancelActor = "rider"
	CancelledByDriver CancelActor = "driver"
	CancelledByAdmin  CancelActor = "admin"
)

// Location is an address with its coordinates.
type Location struct {
	Address string
	Lat     float64
	Lng     float64
}

// Fare is the monetary breakdown of a ride charge.
type Fare struct {
	Base     float64
	Distance float64
	Time     float64
	Total    float64
	Currency string
}

// Ride represents one rider's origin-to-destination trip and its status
// history. Rides are never deleted; they end in a terminal status.
type Ride struct {
	ID          string
	RiderID     string
	DriverID    string // empty until a driver is bound
	Pickup      Location
	Destination Location
	Status      RideStatus
	Fare        Fare

	DistanceEstimatedKm  float64
	DistanceActualKm     float64
	DurationEstimatedMin float64
	DurationActualMin    float64

	RequestedAt time.Time
	AcceptedAt  time.Time
	PickedUpAt  time.Time
	InTransitAt time.Time
	CompletedAt time.Time
	CancelledAt time.Time

	CancelledBy  CancelActor
	CancelReason string

	RiderRating    int
	DriverRating   int
	RiderFeedback  string
	DriverFeedback string

	PaymentStatus RidePaymentStatus
	PaymentMethod PaymentMethod
	PaymentRef    string

	PIN   string // 4 digits, set at acceptance, cleared once verified
	Notes string
}
