package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/Domenick1991/resortbooking/internal/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Availability *AvailabilityHandler
	Bookings     *BookingHandler
	Payments     *PaymentHandler
	Admin        *AdminHandler
}

func NewRouter(allowedOrigins []string, logger *logrus.Logger, authSvc *auth.Service, h Handlers) *gin.Engine {
	r := gin.New()

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
		corsConfig.AllowCredentials = true
	}
	r.Use(cors.New(corsConfig))
	r.Use(RequestID())
	r.Use(RequestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	h.Availability.Register(v1)
	h.Bookings.Register(v1)

	payments := v1.Group("/payments", authSvc.PaymentOnly())
	h.Payments.Register(payments)

	admin := v1.Group("/admin", authSvc.AdminOnly())
	h.Admin.Register(admin)

	return r
}
