package api

import (
	"net/http"

	"github.com/Domenick1991/resortbooking/internal/domain"
	"github.com/Domenick1991/resortbooking/internal/service/availability"
	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	service availability.AvailabilityUseCase
}

type availabilityQuery struct {
	CheckIn  string `form:"check_in" binding:"required"`
	CheckOut string `form:"check_out" binding:"required"`
	Group    string `form:"group"`
	Room     string `form:"room"`
}

func NewAvailabilityHandler(service availability.AvailabilityUseCase) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

func (h *AvailabilityHandler) Register(router *gin.RouterGroup) {
	router.GET("/availability", h.list)
}

func (h *AvailabilityHandler) list(c *gin.Context) {
	var q availabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "check_in and check_out are required")
		return
	}
	checkIn, err := domain.ParseDate(q.CheckIn)
	if err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "check_in must be a date in YYYY-MM-DD format")
		return
	}
	checkOut, err := domain.ParseDate(q.CheckOut)
	if err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "check_out must be a date in YYYY-MM-DD format")
		return
	}

	rooms, err := h.service.GetAvailable(c.Request.Context(), availability.Query{
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Group:    q.Group,
		Room:     q.Room,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, rooms)
}
