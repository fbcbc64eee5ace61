package workflow

import (
	"errors"
	"net/http"

	"roomrenting/internal/api"
	"roomrenting/internal/pricing"
	"roomrenting/internal/session"
)

var (
	ErrValidation         = errors.New("invalid booking input")
	ErrInvalidDateRange   = pricing.ErrInvalidDateRange
	ErrUnauthenticated    = errors.New("no authenticated customer")
	ErrBookingFailed      = errors.New("booking failed")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrInFlight           = errors.New("a request for this attempt is already in flight")
	ErrCancelled          = errors.New("booking attempt cancelled")
	ErrInvalidTransition  = errors.New("invalid workflow transition")
	ErrCompensationFailed = errors.New("cancelling the unpaid booking failed")
	ErrCompensated        = errors.New("unpaid booking cancelled")
)

// Message renders err as a line suitable for showing to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrCompensationFailed):
		return "Payment failed and the booking could not be cancelled automatically. Please contact an administrator."
	case errors.Is(err, ErrInvalidDateRange):
		return "Check-out date must be after the check-in date."
	case errors.Is(err, pricing.ErrInvalidDate):
		return "Dates must be entered as YYYY-MM-DD."
	case errors.Is(err, ErrValidation):
		return "Please select both check-in and check-out dates."
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, session.ErrNoSession):
		return "Please log in before booking a room."
	case errors.Is(err, ErrInFlight):
		return "Your previous request is still being processed."
	case errors.Is(err, ErrCancelled):
		return "Booking cancelled."
	case errors.Is(err, ErrBookingFailed):
		if api.IsStatus(err, http.StatusConflict) {
			return "This room is not available for the selected dates."
		}
		if api.IsStatus(err, http.StatusUnauthorized) {
			return "Your session has expired. Please log in again."
		}
		return "Booking failed. Please try again later."
	case errors.Is(err, ErrCompensated):
		return "Payment failed. The booking has been cancelled, so nothing is reserved."
	case errors.Is(err, ErrPaymentFailed):
		return "Payment failed. Your booking was created but is not paid."
	case errors.Is(err, ErrInvalidTransition):
		return "This booking attempt cannot perform that step now."
	case errors.Is(err, session.ErrForbidden), api.IsStatus(err, http.StatusForbidden):
		return "You do not have permission to do that."
	case api.IsStatus(err, http.StatusUnauthorized):
		return "Invalid credentials or expired session. Please log in again."
	}

	return "Something went wrong while processing your request. Please try again later."
}
