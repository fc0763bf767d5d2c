package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Booking    BookingConfig    `yaml:"booking"`
	Worker     WorkerConfig     `yaml:"worker"`
	Cart       CartConfig       `yaml:"cart"`
	Auth       AuthConfig       `yaml:"auth"`
	Cloudinary CloudinaryConfig `yaml:"cloudinary"`
	Log        LogConfig        `yaml:"log"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	GormDSN  string `yaml:"gorm_dsn"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// UsesGorm selects the gorm-backed stores (sqlite file or postgres URL)
// instead of the pgx pool.
func (d DatabaseConfig) UsesGorm() bool {
	return d.Driver == "gorm"
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	HoldTTLMinutes      int     `yaml:"hold_ttl_minutes"`
	FullPaymentDiscount float64 `yaml:"full_payment_discount"`
	RoomLockSeconds     int     `yaml:"room_lock_seconds"`
	RegistryCacheTTL    int     `yaml:"registry_cache_ttl_seconds"`
}

type WorkerConfig struct {
	ExpirationSweepMinutes int `yaml:"expiration_sweep_minutes"`
	SchedulerPollSeconds   int `yaml:"scheduler_poll_seconds"`
}

type CartConfig struct {
	CheckoutURL       string `yaml:"checkout_url"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Folder    string `yaml:"folder"`
}

func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig reads the YAML file at path. ${VAR} references are expanded from
// the environment, which is first populated from a .env file when present.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "pgx"
	}
	if c.Database.GormDSN == "" {
		c.Database.GormDSN = "resortbooking.db"
	}
	if c.Booking.HoldTTLMinutes <= 0 {
		c.Booking.HoldTTLMinutes = 10
	}
	if c.Booking.FullPaymentDiscount <= 0 {
		c.Booking.FullPaymentDiscount = 0.05
	}
	if c.Booking.RoomLockSeconds <= 0 {
		c.Booking.RoomLockSeconds = 5
	}
	if c.Booking.RegistryCacheTTL <= 0 {
		c.Booking.RegistryCacheTTL = 60
	}
	if c.Worker.ExpirationSweepMinutes <= 0 {
		c.Worker.ExpirationSweepMinutes = 1
	}
	if c.Worker.SchedulerPollSeconds <= 0 {
		c.Worker.SchedulerPollSeconds = 5
	}
	if c.Cart.SessionTTLMinutes <= 0 {
		c.Cart.SessionTTLMinutes = 30
	}
	if c.Cart.CheckoutURL == "" {
		c.Cart.CheckoutURL = "/checkout"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
