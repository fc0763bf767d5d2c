package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/resortbooking/config"
	"github.com/Domenick1991/resortbooking/internal/bootstrap"
	"github.com/Domenick1991/resortbooking/internal/kafka"
	"github.com/Domenick1991/resortbooking/internal/logger"
	"github.com/Domenick1991/resortbooking/internal/notify"
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

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logg)
	defer consumer.Close()

	handler := notify.NewHandler(notify.NewLogSender(logg), container.Cache, container.Bookings, logg)
	go func() {
		if err := consumer.Consume(ctx, handler.Handle); err != nil {
			// exit so the supervisor restarts us and the group redelivers
			logg.WithError(err).Error("notifications consumer stopped")
			stop()
		}
	}()

	go container.Scheduler.Run(ctx, time.Duration(cfg.Worker.SchedulerPollSeconds)*time.Second, func(ctx context.Context, id int64) error {
		expired, err := container.Booking.ExpireBooking(ctx, id)
		if err == nil && expired {
			logg.WithField("booking_id", id).Info("hold expired")
		}
		return err
	})

	sweep := time.NewTicker(time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute)
	defer sweep.Stop()

	logg.Info("worker started")
	for {
		select {
		case <-sweep.C:
			expired, err := container.Booking.ExpirePendingBookings(ctx)
			if err != nil {
				logg.WithError(err).Error("expire bookings sweep failed")
				continue
			}
			if len(expired) > 0 {
				logg.WithField("count", len(expired)).Info("expired stale holds")
			}
		case <-ctx.Done():
			logg.Info("worker shutting down")
			return
		}
	}
}
