package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/resortbooking/config"
	"github.com/Domenick1991/resortbooking/internal/cache"
	"github.com/Domenick1991/resortbooking/internal/cart"
	"github.com/Domenick1991/resortbooking/internal/kafka"
	"github.com/Domenick1991/resortbooking/internal/registry"
	"github.com/Domenick1991/resortbooking/internal/repository"
	"github.com/Domenick1991/resortbooking/internal/scheduler"
	"github.com/Domenick1991/resortbooking/internal/service/availability"
	"github.com/Domenick1991/resortbooking/internal/service/booking"
	"github.com/Domenick1991/resortbooking/internal/upload"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Container holds the collaborators shared by the api and worker binaries.
type Container struct {
	Bookings     repository.BookingRepository
	Settings     repository.SettingsStore
	Redis        *redis.Client
	Cache        *cache.RedisCache
	Scheduler    *scheduler.RedisScheduler
	Producer     *kafka.Producer
	Registry     *registry.Registry
	Availability *availability.Engine
	Booking      *booking.BookingService

	closers []func()
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func NewContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{}

	if err := c.openStores(ctx, cfg.Database, logger); err != nil {
		c.Close()
		return nil, err
	}

	c.Redis = cache.NewClient(cfg.Redis)
	c.closers = append(c.closers, func() { _ = c.Redis.Close() })
	c.Cache = cache.NewRedisCache(c.Redis, time.Duration(cfg.Booking.RegistryCacheTTL)*time.Second)
	c.Scheduler = scheduler.NewRedisScheduler(c.Redis, logger)

	c.Producer = kafka.NewProducer(cfg.Kafka.Brokers, logger)
	c.closers = append(c.closers, func() { _ = c.Producer.Close() })

	c.Registry = registry.NewRegistry(c.Settings, c.Bookings, logger, registry.WithCache(c.Cache))
	c.Availability = availability.NewEngine(c.Registry, c.Bookings, logger)

	opts := []booking.BookingServiceOption{
		booking.WithScheduler(c.Scheduler),
		booking.WithNotifier(kafka.NewNotifier(c.Producer, cfg.Kafka.NotificationsTopic)),
		booking.WithRoomLock(c.Cache, time.Duration(cfg.Booking.RoomLockSeconds)*time.Second),
		booking.WithEvents(c.Producer, cfg.Kafka.BookingEventsTopic),
		booking.WithHoldTTL(time.Duration(cfg.Booking.HoldTTLMinutes) * time.Minute),
		booking.WithFullPaymentDiscount(cfg.Booking.FullPaymentDiscount),
	}
	if cfg.Cloudinary.Enabled() {
		uploader, err := upload.NewCloudinaryUploader(cfg.Cloudinary, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init cloudinary: %w", err)
		}
		opts = append(opts, booking.WithUploader(uploader))
	} else {
		logger.Warn("cloudinary not configured, identity documents are not stored")
	}

	checkout := cart.NewRedisCart(c.Redis, cfg.Cart.CheckoutURL, time.Duration(cfg.Cart.SessionTTLMinutes)*time.Minute)
	c.Booking = booking.NewBookingService(c.Bookings, c.Availability, checkout, logger, opts...)

	return c, nil
}

func (c *Container) openStores(ctx context.Context, cfg config.DatabaseConfig, logger *logrus.Logger) error {
	if cfg.UsesGorm() {
		db, err := repository.OpenGorm(cfg.GormDSN)
		if err != nil {
			return fmt.Errorf("open gorm database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			c.closers = append(c.closers, func() { _ = sqlDB.Close() })
		}
		c.Bookings = repository.NewGormBookingRepository(db)
		c.Settings = repository.NewGormSettingsStore(db)
		logger.WithField("dsn", cfg.GormDSN).Info("using gorm storage")
		return nil
	}

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	c.closers = append(c.closers, pool.Close)
	c.Bookings = repository.NewBookingRepository(pool)
	c.Settings = repository.NewSettingsStore(pool)
	return nil
}
