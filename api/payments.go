package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/resortbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

// Order statuses reported by the payment collaborator that count as paid.
var confirmingStatuses = map[string]struct{}{
	"processing": {},
	"completed":  {},
}

type PaymentHandler struct {
	service booking.BookingUseCase
}

type paymentCompleteRequest struct {
	BookingID int64  `json:"booking_id" binding:"required,min=1"`
	OrderRef  string `json:"order_ref"`
}

type orderStatusRequest struct {
	BookingID int64  `json:"booking_id" binding:"required,min=1"`
	OrderRef  string `json:"order_ref"`
	Status    string `json:"status" binding:"required"`
}

type hardCheckRequest struct {
	SessionID string `json:"session_id"`
	BookingID int64  `json:"booking_id"`
}

func NewPaymentHandler(service booking.BookingUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Register expects a group already restricted to the payment collaborator.
func (h *PaymentHandler) Register(payments *gin.RouterGroup) {
	payments.POST("/complete", h.complete)
	payments.POST("/order-status", h.orderStatus)
	payments.POST("/hard-check", h.hardCheck)
}

func (h *PaymentHandler) complete(c *gin.Context) {
	var req paymentCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "booking_id is required")
		return
	}
	b, err := h.service.ConfirmBooking(c.Request.Context(), req.BookingID, req.OrderRef)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, b)
}

func (h *PaymentHandler) orderStatus(c *gin.Context) {
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "booking_id and status are required")
		return
	}
	if _, ok := confirmingStatuses[strings.ToLower(req.Status)]; !ok {
		success(c, http.StatusOK, gin.H{"booking_id": req.BookingID, "confirmed": false})
		return
	}
	b, err := h.service.ConfirmBooking(c.Request.Context(), req.BookingID, req.OrderRef)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"booking_id": b.ID, "confirmed": true, "booking": b})
}

// hardCheck runs right before payment is taken. A 409 means the checkout
// must be abandoned and the guest shown the notice.
func (h *PaymentHandler) hardCheck(c *gin.Context) {
	var req hardCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "malformed hard check request")
		return
	}

	var err error
	switch {
	case req.SessionID != "":
		err = h.service.HardCheckSession(c.Request.Context(), req.SessionID)
	case req.BookingID > 0:
		err = h.service.HardCheck(c.Request.Context(), req.BookingID)
	default:
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "session_id or booking_id is required")
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"available": true})
}
