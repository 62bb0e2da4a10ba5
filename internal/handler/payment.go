package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
	driverService  *service.DriverService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService, driverService *service.DriverService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		driverService:  driverService,
	}
}

// CompletePaymentRequest is the HTTP request body for settling a ride. An
// empty method falls back to the method chosen at request time.
type CompletePaymentRequest struct {
	Method string `json:"method,omitempty"` // CASH, CARD, WALLET, UPI
}

// PaymentResponse is the HTTP representation of a payment.
type PaymentResponse struct {
	ID             string  `json:"id"`
	RideID         string  `json:"ride_id"`
	DriverID       string  `json:"driver_id"`
	Amount         float64 `json:"amount"`
	Method         string  `json:"method"`
	TransactionRef string  `json:"transaction_ref,omitempty"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
}

func toPaymentResponse(payment *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:             payment.ID,
		RideID:         payment.RideID,
		DriverID:       payment.DriverID,
		Amount:         payment.Amount,
		Method:         string(payment.Method),
		TransactionRef: payment.TransactionRef,
		Status:         string(payment.Status),
		CreatedAt:      formatTime(payment.CreatedAt),
	}
}

// CompletePaymentResponse is the HTTP response for a settlement.
type CompletePaymentResponse struct {
	Ride    RideResponse    `json:"ride"`
	Payment PaymentResponse `json:"payment"`
}

// CompletePayment handles POST /v1/rides/:id/pay
func (h *PaymentHandler) CompletePayment(c *gin.Context) {
	var req CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	var method domain.PaymentMethod
	if req.Method != "" {
		m, err := service.ValidatePaymentMethod(req.Method)
		if err != nil {
			respondError(c, err)
			return
		}
		method = m
	}

	actorID := c.GetString(middleware.ContextUserID)
	if c.GetString(middleware.ContextUserRole) == "driver" {
		driver, err := h.driverService.GetDriverByUserID(c.Request.Context(), actorID)
		if err != nil {
			respondError(c, err)
			return
		}
		actorID = driver.ID
	}

	result, err := h.paymentService.CompletePayment(c.Request.Context(), service.CompletePaymentParams{
		RideID:  c.Param("id"),
		ActorID: actorID,
		Method:  method,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CompletePaymentResponse{
		Ride:    toRideResponse(result.Ride, actorID),
		Payment: toPaymentResponse(result.Payment),
	})
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}
