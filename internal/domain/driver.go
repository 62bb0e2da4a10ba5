package domain

import "time"

// DriverApproval represents a driver's application/approval status.
type DriverApproval string

const (
	DriverApprovalPending   DriverApproval = "pending"
	DriverApprovalApproved  DriverApproval = "approved"
	DriverApprovalSuspended DriverApproval = "suspended"
	DriverApprovalRejected  DriverApproval = "rejected"
)

// DriverAvailability represents a driver's dispatch availability.
type DriverAvailability string

const (
	DriverOnline  DriverAvailability = "online"
	DriverOffline DriverAvailability = "offline"
	DriverBusy    DriverAvailability = "busy"
)

// DriverRating is the aggregate rating for a driver.
type DriverRating struct {
	Average float64
	Count   int
}

// Driver represents a driver in the system.
//
// Invariant: Availability == busy iff ActiveRideID is non-empty. Only the
// dispatch and settlement paths mutate Availability/ActiveRideID.
type Driver struct {
	ID            string
	UserID        string
	Name          string
	Phone         string
	LicenseNumber string
	VehiclePlate  string
	Approval      DriverApproval
	Availability  DriverAvailability
	ActiveRideID  string // empty when not on a ride
	Earnings      float64
	Rating        DriverRating
	ApprovedAt    time.Time
	CreatedAt     time.Time
}

// CanAccept reports whether the driver is eligible to accept a new ride.
func (d *Driver) CanAccept() bool {
	return d.Approval == DriverApprovalApproved &&
		d.Availability == DriverOnline &&
		d.ActiveRideID == ""
}
