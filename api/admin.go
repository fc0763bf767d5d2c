package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/Domenick1991/resortbooking/internal/domain"
	"github.com/Domenick1991/resortbooking/internal/registry"
	"github.com/Domenick1991/resortbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

const maxSettingsBody = 1 << 20

type AdminHandler struct {
	registry registry.RegistryUseCase
	bookings booking.BookingUseCase
}

type registryResponse struct {
	Rooms  []domain.Room    `json:"rooms"`
	Groups []domain.Group   `json:"groups"`
	Status *registry.Status `json:"status"`
}

type retryNotificationRequest struct {
	Kind string `json:"kind" binding:"required"`
}

func NewAdminHandler(registry registry.RegistryUseCase, bookings booking.BookingUseCase) *AdminHandler {
	return &AdminHandler{registry: registry, bookings: bookings}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.GET("/registry", h.getRegistry)
	router.PUT("/rooms", h.saveRooms)
	router.PUT("/groups", h.saveGroups)
	router.POST("/registry/restore", h.restore)
	router.POST("/registry/recover", h.recoverRegistry)

	router.GET("/bookings/:id", h.getBooking)
	router.POST("/bookings/:id/cancel", h.cancelBooking)
	router.POST("/bookings/:id/notifications/retry", h.retryNotification)
}

func (h *AdminHandler) getRegistry(c *gin.Context) {
	ctx := c.Request.Context()
	rooms, err := h.registry.Rooms(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	groups, err := h.registry.Groups(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	status, err := h.registry.Status(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, registryResponse{Rooms: rooms, Groups: groups, Status: status})
}

func (h *AdminHandler) saveRooms(c *gin.Context) {
	payload, ok := readPayload(c)
	if !ok {
		return
	}
	rooms, err := h.registry.SaveRooms(c.Request.Context(), registry.SaveInput{Submitted: true, Payload: payload})
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, rooms)
}

func (h *AdminHandler) saveGroups(c *gin.Context) {
	payload, ok := readPayload(c)
	if !ok {
		return
	}
	groups, err := h.registry.SaveGroups(c.Request.Context(), registry.SaveInput{Submitted: true, Payload: payload})
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, groups)
}

func (h *AdminHandler) restore(c *gin.Context) {
	restored, err := h.registry.RestoreBackup(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if !restored {
		fail(c, http.StatusNotFound, "NO_BACKUP", "no registry backup available")
		return
	}
	success(c, http.StatusOK, gin.H{"restored": true})
}

func (h *AdminHandler) recoverRegistry(c *gin.Context) {
	report, err := h.registry.RecoverFromBookings(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, report)
}

func (h *AdminHandler) getBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	view, err := h.bookings.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, view)
}

func (h *AdminHandler) cancelBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.bookings.CancelBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, b)
}

func (h *AdminHandler) retryNotification(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req retryNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "kind is required")
		return
	}
	if err := h.bookings.RetryNotification(c.Request.Context(), id, domain.NotificationKind(req.Kind)); err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusAccepted, gin.H{"booking_id": id, "kind": req.Kind})
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "INVALID_ID", "invalid booking id")
		return 0, false
	}
	return id, true
}

func readPayload(c *gin.Context) ([]byte, bool) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSettingsBody))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "unreadable request body")
		return nil, false
	}
	return payload, true
}
