package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/resortbooking/internal/domain"
	"github.com/Domenick1991/resortbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

const documentField = "id_document"

type BookingHandler struct {
	service booking.BookingUseCase
}

// createBookingRequest accepts both JSON bodies and multipart forms. Field
// checks are left to the service so both encodings report them the same way.
type createBookingRequest struct {
	RoomID      string `json:"room_id" form:"room_id"`
	CheckIn     string `json:"check_in" form:"check_in"`
	CheckOut    string `json:"check_out" form:"check_out"`
	Guests      int    `json:"guests" form:"guests"`
	PaymentMode string `json:"payment_mode" form:"payment_mode"`
	Name        string `json:"name" form:"name"`
	Email       string `json:"email" form:"email"`
	Phone       string `json:"phone" form:"phone"`
	SessionID   string `json:"session_id" form:"session_id"`
}

type createBookingResponse struct {
	BookingID   int64           `json:"booking_id"`
	SessionID   string          `json:"session_id"`
	RedirectURL string          `json:"redirect_url"`
	Booking     *domain.Booking `json:"booking"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "malformed booking request")
		return
	}

	input := booking.CreateBookingInput{
		RoomID:      strings.TrimSpace(req.RoomID),
		CheckIn:     strings.TrimSpace(req.CheckIn),
		CheckOut:    strings.TrimSpace(req.CheckOut),
		Guests:      req.Guests,
		PaymentMode: domain.PaymentMode(req.PaymentMode),
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		SessionID:   req.SessionID,
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile(documentField)
		if err == nil {
			file, err := header.Open()
			if err != nil {
				fail(c, http.StatusBadRequest, "INVALID_REQUEST", "unreadable identity document")
				return
			}
			defer file.Close()
			input.Document = &booking.Document{Filename: header.Filename, Content: file}
		}
	}

	result, err := h.service.CreateBooking(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, http.StatusCreated, createBookingResponse{
		BookingID:   result.Booking.ID,
		SessionID:   result.SessionID,
		RedirectURL: result.RedirectURL,
		Booking:     result.Booking,
	})
}
