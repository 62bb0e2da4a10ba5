package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/repository"
	"ridehail/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRiderID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidPaymentID),
		errors.Is(err, service.ErrInvalidPickupLocation),
		errors.Is(err, service.ErrInvalidDestinationLocation),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidRating):
		return http.StatusBadRequest

	// Ownership errors
	case errors.Is(err, service.ErrNotRideOwner),
		errors.Is(err, service.ErrNotAssignedDriver):
		return http.StatusForbidden

	// Conflicts: the request was well-formed but lost to the current state
	// of the world (usually a race or an illegal transition)
	case errors.Is(err, service.ErrRideNoLongerAvailable),
		errors.Is(err, service.ErrDriverBusy),
		errors.Is(err, service.ErrActiveRideExists),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrCancellationNotAllowed),
		errors.Is(err, service.ErrDriverAlreadyRegistered),
		errors.Is(err, service.ErrPaymentDue),
		errors.Is(err, service.ErrRideNotCompleted):
		return http.StatusConflict

	// Preconditions the caller can fix before retrying
	case errors.Is(err, service.ErrDriverNotApproved),
		errors.Is(err, service.ErrDriverNotOnline),
		errors.Is(err, service.ErrPinMismatch),
		errors.Is(err, service.ErrPaymentNotDue):
		return http.StatusPreconditionFailed

	// Gateway/settlement failures
	case errors.Is(err, service.ErrPaymentFailed):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
