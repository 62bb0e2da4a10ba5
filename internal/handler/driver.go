package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// ApplyRequest is the HTTP request body for a driver application.
type ApplyRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	LicenseNumber string `json:"license_number"`
	VehiclePlate  string `json:"vehicle_plate"`
}

// SetApprovalRequest is the HTTP request body for the approval decision.
type SetApprovalRequest struct {
	Approval string `json:"approval"` // pending, approved, suspended, rejected
}

// SetAvailabilityRequest is the HTTP request body for going online/offline.
type SetAvailabilityRequest struct {
	Availability string `json:"availability"` // online, offline
}

// UpdateLocationRequest is the HTTP request body for a position update.
type UpdateLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DriverResponse is the HTTP representation of a driver.
type DriverResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	Name          string  `json:"name"`
	Phone         string  `json:"phone,omitempty"`
	LicenseNumber string  `json:"license_number,omitempty"`
	VehiclePlate  string  `json:"vehicle_plate,omitempty"`
	Approval      string  `json:"approval"`
	Availability  string  `json:"availability"`
	ActiveRideID  string  `json:"active_ride_id,omitempty"`
	Earnings      float64 `json:"earnings"`
	RatingAverage float64 `json:"rating_average"`
	RatingCount   int     `json:"rating_count"`
	ApprovedAt    string  `json:"approved_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func toDriverResponse(driver *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:            driver.ID,
		UserID:        driver.UserID,
		Name:          driver.Name,
		Phone:         driver.Phone,
		LicenseNumber: driver.LicenseNumber,
		VehiclePlate:  driver.VehiclePlate,
		Approval:      string(driver.Approval),
		Availability:  string(driver.Availability),
		ActiveRideID:  driver.ActiveRideID,
		Earnings:      driver.Earnings,
		RatingAverage: driver.Rating.Average,
		RatingCount:   driver.Rating.Count,
		ApprovedAt:    formatTime(driver.ApprovedAt),
		CreatedAt:     formatTime(driver.CreatedAt),
	}
}

// Apply handles POST /v1/drivers/apply
func (h *DriverHandler) Apply(c *gin.Context) {
	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.Apply(c.Request.Context(), service.ApplyRequest{
		UserID:        c.GetString(middleware.ContextUserID),
		Name:          req.Name,
		Phone:         req.Phone,
		LicenseNumber: req.LicenseNumber,
		VehiclePlate:  req.VehiclePlate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverResponse(driver))
}

// SetApproval handles POST /v1/drivers/:id/approval
func (h *DriverHandler) SetApproval(c *gin.Context) {
	var req SetApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	approval := domain.DriverApproval(req.Approval)
	switch approval {
	case domain.DriverApprovalPending, domain.DriverApprovalApproved,
		domain.DriverApprovalSuspended, domain.DriverApprovalRejected:
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid approval status"})
		return
	}

	driver, err := h.driverService.SetApproval(c.Request.Context(), c.Param("id"), approval)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// SetAvailability handles POST /v1/drivers/availability
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	availability := domain.DriverAvailability(req.Availability)
	if availability != domain.DriverOnline && availability != domain.DriverOffline {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "availability must be online or offline"})
		return
	}

	caller, err := h.driverService.GetDriverByUserID(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	driver, err := h.driverService.SetAvailability(c.Request.Context(), caller.ID, availability)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// UpdateLocation handles POST /v1/drivers/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	caller, err := h.driverService.GetDriverByUserID(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.driverService.UpdateLocation(c.Request.Context(), caller.ID, req.Lat, req.Lng); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// GetDriver handles GET /v1/drivers/:id
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driver, err := h.driverService.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}
