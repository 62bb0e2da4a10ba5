package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/service"
)

// RideHandler handles HTTP requests for the ride lifecycle.
type RideHandler struct {
	rideService     *service.RideService
	dispatchService *service.DispatchService
	driverService   *service.DriverService
	receiptService  *service.ReceiptService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(
	rideService *service.RideService,
	dispatchService *service.DispatchService,
	driverService *service.DriverService,
	receiptService *service.ReceiptService,
) *RideHandler {
	return &RideHandler{
		rideService:     rideService,
		dispatchService: dispatchService,
		driverService:   driverService,
		receiptService:  receiptService,
	}
}

// callerDriverID resolves the authenticated user to their driver profile.
// Driver-side ride actions are keyed by driver ID, not user ID.
func (h *RideHandler) callerDriverID(c *gin.Context) (string, error) {
	driver, err := h.driverService.GetDriverByUserID(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		return "", err
	}
	return driver.ID, nil
}

// LocationPayload is a location in request and response bodies.
type LocationPayload struct {
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// FarePayload is the fare breakdown in response bodies.
type FarePayload struct {
	Base     float64 `json:"base"`
	Distance float64 `json:"distance"`
	Time     float64 `json:"time"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// RequestRideRequest is the HTTP request body for requesting a ride.
type RequestRideRequest struct {
	Pickup        LocationPayload `json:"pickup"`
	Destination   LocationPayload `json:"destination"`
	PaymentMethod string          `json:"payment_method,omitempty"` // CASH, CARD, WALLET, UPI
	Notes         string          `json:"notes,omitempty"`
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	Reason string `json:"reason,omitempty"`
}

// StartTransitRequest is the HTTP request body for the PIN-verified start.
type StartTransitRequest struct {
	PIN string `json:"pin"`
}

// AdvanceRideRequest is the HTTP request body for advancing ride status.
type AdvanceRideRequest struct {
	PIN string `json:"pin,omitempty"`
}

// RateRideRequest is the HTTP request body for rating a completed ride.
type RateRideRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID                   string          `json:"id"`
	RiderID              string          `json:"rider_id"`
	DriverID             string          `json:"driver_id,omitempty"`
	Status               string          `json:"status"`
	Pickup               LocationPayload `json:"pickup"`
	Destination          LocationPayload `json:"destination"`
	Fare                 FarePayload     `json:"fare"`
	DistanceEstimatedKm  float64         `json:"distance_estimated_km"`
	DistanceActualKm     float64         `json:"distance_actual_km,omitempty"`
	DurationEstimatedMin float64         `json:"duration_estimated_min"`
	DurationActualMin    float64         `json:"duration_actual_min,omitempty"`
	PaymentStatus        string          `json:"payment_status"`
	PaymentMethod        string          `json:"payment_method"`
	RequestedAt          string          `json:"requested_at"`
	AcceptedAt           string          `json:"accepted_at,omitempty"`
	PickedUpAt           string          `json:"picked_up_at,omitempty"`
	InTransitAt          string          `json:"in_transit_at,omitempty"`
	CompletedAt          string          `json:"completed_at,omitempty"`
	CancelledAt          string          `json:"cancelled_at,omitempty"`
	CancelledBy          string          `json:"cancelled_by,omitempty"`
	CancelReason         string          `json:"cancel_reason,omitempty"`
	RiderRating          int             `json:"rider_rating,omitempty"`
	DriverRating         int             `json:"driver_rating,omitempty"`
	PIN                  string          `json:"pin,omitempty"`
	Notes                string          `json:"notes,omitempty"`
}

// toRideResponse maps a ride for the given viewer. The pickup PIN is only
// revealed to the rider, who reads it to the driver at pickup.
func toRideResponse(ride *domain.Ride, viewerID string) RideResponse {
	resp := RideResponse{
		ID:       ride.ID,
		RiderID:  ride.RiderID,
		DriverID: ride.DriverID,
		Status:   string(ride.Status),
		Pickup: LocationPayload{
			Address: ride.Pickup.Address,
			Lat:     ride.Pickup.Lat,
			Lng:     ride.Pickup.Lng,
		},
		Destination: LocationPayload{
			Address: ride.Destination.Address,
			Lat:     ride.Destination.Lat,
			Lng:     ride.Destination.Lng,
		},
		Fare: FarePayload{
			Base:     ride.Fare.Base,
			Distance: ride.Fare.Distance,
			Time:     ride.Fare.Time,
			Total:    ride.Fare.Total,
			Currency: ride.Fare.Currency,
		},
		DistanceEstimatedKm:  ride.DistanceEstimatedKm,
		DistanceActualKm:     ride.DistanceActualKm,
		DurationEstimatedMin: ride.DurationEstimatedMin,
		DurationActualMin:    ride.DurationActualMin,
		PaymentStatus:        string(ride.PaymentStatus),
		PaymentMethod:        string(ride.PaymentMethod),
		RequestedAt:          formatTime(ride.RequestedAt),
		AcceptedAt:           formatTime(ride.AcceptedAt),
		PickedUpAt:           formatTime(ride.PickedUpAt),
		InTransitAt:          formatTime(ride.InTransitAt),
		CompletedAt:          formatTime(ride.CompletedAt),
		CancelledAt:          formatTime(ride.CancelledAt),
		CancelledBy:          string(ride.CancelledBy),
		CancelReason:         ride.CancelReason,
		RiderRating:          ride.RiderRating,
		DriverRating:         ride.DriverRating,
		Notes:                ride.Notes,
	}

	if viewerID == ride.RiderID {
		resp.PIN = ride.PIN
	}

	return resp
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// RequestRide handles POST /v1/rides
func (h *RideHandler) RequestRide(c *gin.Context) {
	var req RequestRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	paymentMethod, err := service.ValidatePaymentMethod(req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}

	riderID := c.GetString(middleware.ContextUserID)

	ride, err := h.rideService.RequestRide(c.Request.Context(), service.RequestRideParams{
		RiderID: riderID,
		Pickup: domain.Location{
			Address: req.Pickup.Address,
			Lat:     req.Pickup.Lat,
			Lng:     req.Pickup.Lng,
		},
		Destination: domain.Location{
			Address: req.Destination.Address,
			Lat:     req.Destination.Lat,
			Lng:     req.Destination.Lng,
		},
		PaymentMethod: paymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride, riderID))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride, c.GetString(middleware.ContextUserID)))
}

// ListRides handles GET /v1/rides
func (h *RideHandler) ListRides(c *gin.Context) {
	actorID := c.GetString(middleware.ContextUserID)
	role := c.GetString(middleware.ContextUserRole)
	if role == "driver" {
		driverID, err := h.callerDriverID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		actorID = driverID
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	rides, err := h.rideService.ListRides(c.Request.Context(), actorID, role, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		response = append(response, toRideResponse(ride, actorID))
	}

	respondJSON(c, http.StatusOK, response)
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	riderID := c.GetString(middleware.ContextUserID)

	ride, err := h.rideService.CancelRide(c.Request.Context(), c.Param("id"), riderID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride, riderID))
}

// AcceptRide handles POST /v1/rides/:id/accept
func (h *RideHandler) AcceptRide(c *gin.Context) {
	driverID, err := h.callerDriverID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ride, err := h.dispatchService.AcceptRide(c.Request.Context(), c.Param("id"), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride, driverID))
}

// RejectRide handles POST /v1/rides/:id/reject
func (h *RideHandler) RejectRide(c *gin.Context) {
	driverID, err := h.callerDriverID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ride, err := h.dispatchService.RejectRide(c.Request.Context(), c.Param("id"), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride, driverID))
}

// StartTransit handles POST /v1/rides/:id/start
func (h *RideHandler) StartTransit(c *gin.Context) {
	var req StartTransitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driverID, err := h.callerDriverID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ride, err := h.rideService.VerifyPinAndStartTransit(c.Request.Context(), c.Param("id"), driverID, req.PIN)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride, driverID))
}

// AdvanceRide handles POST /v1/rides/:id/advance
func (h *RideHandler) AdvanceRide(c *gin.Context) {
	var req AdvanceRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driverID, err := h.callerDriverID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ride, err := h.rideService.AdvanceStatus(c.Request.Context(), c.Param("id"), driverID, req.PIN)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride, driverID))
}

// RateRide handles POST /v1/rides/:id/rate
func (h *RideHandler) RateRide(c *gin.Context) {
	var req RateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	actorID := c.GetString(middleware.ContextUserID)
	role := c.GetString(middleware.ContextUserRole)
	if role == "driver" {
		driverID, err := h.callerDriverID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		actorID = driverID
	}

	ride, err := h.rideService.RateRide(c.Request.Context(), service.RateRideParams{
		RideID:   c.Param("id"),
		ActorID:  actorID,
		Role:     role,
		Rating:   req.Rating,
		Feedback: req.Feedback,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride, actorID))
}

// ReceiptResponse is the HTTP representation of a receipt.
type ReceiptResponse struct {
	ID            string          `json:"id"`
	RideID        string          `json:"ride_id"`
	RiderID       string          `json:"rider_id"`
	DriverID      string          `json:"driver_id"`
	Pickup        LocationPayload `json:"pickup"`
	Destination   LocationPayload `json:"destination"`
	Fare          FarePayload     `json:"fare"`
	DistanceKm    float64         `json:"distance_km"`
	DurationMin   float64         `json:"duration_min"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	PickedUpAt    string          `json:"picked_up_at,omitempty"`
	CompletedAt   string          `json:"completed_at,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

// GetReceipt handles GET /v1/rides/:id/receipt
func (h *RideHandler) GetReceipt(c *gin.Context) {
	actorID := c.GetString(middleware.ContextUserID)
	if c.GetString(middleware.ContextUserRole) == "driver" {
		driverID, err := h.callerDriverID(c)
		if err != nil {
			respondError(c, err)
			return
		}
		actorID = driverID
	}

	receipt, err := h.receiptService.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if actorID != receipt.RiderID && actorID != receipt.DriverID {
		respondError(c, service.ErrNotRideOwner)
		return
	}

	respondJSON(c, http.StatusOK, ReceiptResponse{
		ID:       receipt.ID,
		RideID:   receipt.RideID,
		RiderID:  receipt.RiderID,
		DriverID: receipt.DriverID,
		Pickup: LocationPayload{
			Address: receipt.Pickup.Address,
			Lat:     receipt.Pickup.Lat,
			Lng:     receipt.Pickup.Lng,
		},
		Destination: LocationPayload{
			Address: receipt.Destination.Address,
			Lat:     receipt.Destination.Lat,
			Lng:     receipt.Destination.Lng,
		},
		Fare: FarePayload{
			Base:     receipt.Fare.Base,
			Distance: receipt.Fare.Distance,
			Time:     receipt.Fare.Time,
			Total:    receipt.Fare.Total,
			Currency: receipt.Fare.Currency,
		},
		DistanceKm:    receipt.DistanceKm,
		DurationMin:   receipt.DurationMin,
		PaymentMethod: string(receipt.PaymentMethod),
		PaymentStatus: string(receipt.PaymentStatus),
		PickedUpAt:    formatTime(receipt.PickedUpAt),
		CompletedAt:   formatTime(receipt.CompletedAt),
		CreatedAt:     formatTime(receipt.CreatedAt),
	})
}
