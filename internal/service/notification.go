package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"ridehail/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRideRequested    NotificationType = "RIDE_REQUESTED"
	NotificationDriverAssigned   NotificationType = "DRIVER_ASSIGNED"
	NotificationRideCancelled    NotificationType = "RIDE_CANCELLED"
	NotificationPaymentCompleted NotificationType = "PAYMENT_COMPLETED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService surfaces ride and payment state changes as observable
// side effects. Actual delivery (push, SMS, websocket) lives outside this
// service; here they are logged.
type NotificationService struct{}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyRideRequested notifies nearby drivers about a new ride request.
func (s *NotificationService) NotifyRideRequested(ctx context.Context, ride *domain.Ride, nearbyDriverIDs []string) error {
	for _, driverID := range nearbyDriverIDs {
		s.send(ctx, Notification{
			Type:        NotificationRideRequested,
			RecipientID: driverID,
			Title:       "New Ride Request",
			Message:     fmt.Sprintf("New ride request near you. Pickup at (%.4f, %.4f)", ride.Pickup.Lat, ride.Pickup.Lng),
			Data: map[string]interface{}{
				"ride_id":    ride.ID,
				"pickup_lat": ride.Pickup.Lat,
				"pickup_lng": ride.Pickup.Lng,
			},
			CreatedAt: time.Now(),
		})
	}
	return nil
}

// NotifyDriverAssigned notifies the rider that a driver accepted the ride.
func (s *NotificationService) NotifyDriverAssigned(ctx context.Context, ride *domain.Ride, driver *domain.Driver) error {
	s.send(ctx, Notification{
		Type:        NotificationDriverAssigned,
		RecipientID: ride.RiderID,
		Title:       "Driver Assigned",
		Message:     fmt.Sprintf("Driver %s has accepted your ride", driver.Name),
		Data: map[string]interface{}{
			"ride_id":   ride.ID,
			"driver_id": driver.ID,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// NotifyRideCancelled notifies the other party about a cancellation.
func (s *NotificationService) NotifyRideCancelled(ctx context.Context, ride *domain.Ride, cancelledBy, reason string) error {
	var recipientID, message string
	if cancelledBy == string(domain.CancelledByRider) {
		recipientID = ride.DriverID
		message = "The rider has cancelled the ride"
	} else {
		recipientID = ride.RiderID
		message = "The driver has cancelled the ride"
	}

	if recipientID == "" {
		return nil // no one to notify
	}

	s.send(ctx, Notification{
		Type:        NotificationRideCancelled,
		RecipientID: recipientID,
		Title:       "Ride Cancelled",
		Message:     message,
		Data: map[string]interface{}{
			"ride_id":      ride.ID,
			"cancelled_by": cancelledBy,
			"reason":       reason,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// NotifyPaymentCompleted notifies the rider that settlement succeeded.
func (s *NotificationService) NotifyPaymentCompleted(ctx context.Context, ride *domain.Ride, payment *domain.Payment) error {
	s.send(ctx, Notification{
		Type:        NotificationPaymentCompleted,
		RecipientID: ride.RiderID,
		Title:       "Payment Completed",
		Message:     fmt.Sprintf("Payment of %.2f %s was recorded", payment.Amount, ride.Fare.Currency),
		Data: map[string]interface{}{
			"ride_id":    ride.ID,
			"payment_id": payment.ID,
			"amount":     payment.Amount,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *NotificationService) send(ctx context.Context, n Notification) {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		n.Type, n.RecipientID, n.Title, n.Message)
}
