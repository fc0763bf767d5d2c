package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/resortbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// writeError maps service errors onto the response envelope. Unknown errors
// are attached to the context for the request logger and hidden from clients.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrValidation):
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, booking.ErrUnknownNotification):
		fail(c, http.StatusBadRequest, "UNKNOWN_NOTIFICATION", err.Error())
	case errors.Is(err, booking.ErrBookingNotFound):
		fail(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, booking.ErrNoLongerAvailable):
		fail(c, http.StatusConflict, "NO_LONGER_AVAILABLE", booking.NoticeNoLongerAvailable)
	case errors.Is(err, booking.ErrRoomBusy):
		fail(c, http.StatusConflict, "ROOM_BUSY", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		fail(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, booking.ErrBookingCompleted):
		fail(c, http.StatusConflict, "BOOKING_COMPLETED", err.Error())
	case errors.Is(err, booking.ErrUpload):
		fail(c, http.StatusBadGateway, "UPLOAD_FAILED", err.Error())
	case errors.Is(err, booking.ErrCheckoutUnavailable):
		fail(c, http.StatusServiceUnavailable, "CHECKOUT_UNAVAILABLE", err.Error())
	case errors.Is(err, booking.ErrNotificationsDisabled):
		fail(c, http.StatusServiceUnavailable, "NOTIFICATIONS_DISABLED", err.Error())
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}
