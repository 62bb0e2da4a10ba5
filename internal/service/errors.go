package service

import "errors"

var (
	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = errors.New("invalid rider id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidPaymentID is returned when payment ID is empty.
	ErrInvalidPaymentID = errors.New("invalid payment id")

	// ErrInvalidPickupLocation is returned when pickup coordinates are invalid.
	ErrInvalidPickupLocation = errors.New("invalid pickup location")

	// ErrInvalidDestinationLocation is returned when destination coordinates are invalid.
	ErrInvalidDestinationLocation = errors.New("invalid destination location")

	// ErrInvalidPaymentMethod is returned when payment method is invalid.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidRating is returned when a rating is outside 1-5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrActiveRideExists is returned when the rider already has a ride in progress.
	ErrActiveRideExists = errors.New("rider already has a ride in progress")

	// ErrInvalidTransition is returned when the requested status is not the
	// graph successor of the ride's current status.
	ErrInvalidTransition = errors.New("invalid ride status transition")

	// ErrCancellationNotAllowed is returned when a ride past acceptance is cancelled.
	ErrCancellationNotAllowed = errors.New("ride can no longer be cancelled")

	// ErrRideNoLongerAvailable is returned when a driver loses the accept race.
	ErrRideNoLongerAvailable = errors.New("ride is no longer available")

	// ErrPinMismatch is returned when the supplied pickup PIN does not match.
	ErrPinMismatch = errors.New("pickup pin does not match")

	// ErrDriverNotApproved is returned when an unapproved driver changes availability.
	ErrDriverNotApproved = errors.New("driver is not approved")

	// ErrDriverNotOnline is returned when an offline driver tries to accept a ride.
	ErrDriverNotOnline = errors.New("driver is not online")

	// ErrDriverBusy is returned when an operation requires a driver who is
	// not on an active ride.
	ErrDriverBusy = errors.New("driver has an active ride")

	// ErrNotRideOwner is returned when an actor operates on someone else's ride.
	ErrNotRideOwner = errors.New("ride belongs to another rider")

	// ErrNotAssignedDriver is returned when a driver operates on a ride bound
	// to another driver.
	ErrNotAssignedDriver = errors.New("ride is assigned to another driver")

	// ErrDriverAlreadyRegistered is returned when a user applies twice.
	ErrDriverAlreadyRegistered = errors.New("user already has a driver profile")

	// ErrPaymentNotDue is returned when settling a ride that has not reached
	// the fare-due point.
	ErrPaymentNotDue = errors.New("ride payment is not due")

	// ErrPaymentDue is returned when a driver tries to advance a ride whose
	// next transition belongs to payment settlement.
	ErrPaymentDue = errors.New("payment settlement required to advance")

	// ErrPaymentFailed is returned when the payment gateway declines or the
	// settlement transaction aborts. The ride stays retryable.
	ErrPaymentFailed = errors.New("payment failed")

	// ErrRideNotCompleted is returned when rating a ride that has not completed.
	ErrRideNotCompleted = errors.New("ride is not completed")
)
