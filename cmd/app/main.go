package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/resortbooking/api"
	"github.com/Domenick1991/resortbooking/config"
	"github.com/Domenick1991/resortbooking/internal/auth"
	"github.com/Domenick1991/resortbooking/internal/bootstrap"
	"github.com/Domenick1991/resortbooking/internal/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logg := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.NewContainer(ctx, cfg, logg)
	if err != nil {
		logg.WithError(err).Fatal("init dependencies")
	}
	defer container.Close()

	if empty, err := container.Registry.Empty(ctx); err != nil {
		logg.WithError(err).Warn("registry check failed")
	} else if empty {
		logg.Warn("room registry is empty; restore a backup or recover from bookings")
	}

	if cfg.Auth.JWTSecret == "" {
		logg.Fatal("auth.jwt_secret is required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(cfg.HTTP.AllowedOrigins, logg, auth.New(cfg.Auth.JWTSecret, 12*time.Hour), api.Handlers{
		Availability: api.NewAvailabilityHandler(container.Availability),
		Bookings:     api.NewBookingHandler(container.Booking),
		Payments:     api.NewPaymentHandler(container.Booking),
		Admin:        api.NewAdminHandler(container.Registry, container.Booking),
	})

	if err := bootstrap.Run(ctx, cfg.HTTP.Address, router, logg); err != nil {
		logg.WithError(err).Fatal("server error")
	}
}
