package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env       string          `yaml:"env"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Provider  ProviderConfig  `yaml:"provider"`
	Booking   BookingConfig   `yaml:"booking"`
	Security  SecurityConfig  `yaml:"security"`
	Recaptcha RecaptchaConfig `yaml:"recaptcha"`
	Worker    WorkerConfig    `yaml:"worker"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// Enabled reports whether a lead database is configured. The service runs
// without one: leads are then only published to Kafka.
func (d DatabaseConfig) Enabled() bool { return d.Host != "" }

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled reports whether redis should back the booking token store.
// Without redis the in-process store is used.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	LeadTopic          string   `yaml:"lead_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// ProviderConfig holds credentials and endpoints for the external scheduler.
type ProviderConfig struct {
	BaseURL      string `yaml:"base_url"`
	Token        string `yaml:"token"`
	EventTypeURI string `yaml:"event_type_uri"`
	TimeoutSec   int    `yaml:"timeout_seconds"`
}

type BookingConfig struct {
	TokenTTLMinutes       int    `yaml:"token_ttl_minutes"`
	WindowDays            int    `yaml:"window_days"`
	FetchBufferSec        int    `yaml:"fetch_buffer_seconds"`
	BookingBufferSec      int    `yaml:"booking_buffer_seconds"`
	DisqualifyRedirectURL string `yaml:"disqualify_redirect_url"`
}

type SecurityConfig struct {
	CSRFHashKey    string `yaml:"csrf_hash_key"`
	CSRFBlockKey   string `yaml:"csrf_block_key"`
	CSRFTTLMinutes int    `yaml:"csrf_ttl_minutes"`
	SecureCookies  bool   `yaml:"secure_cookies"`
}

type RecaptchaConfig struct {
	Secret   string  `yaml:"secret"`
	MinScore float64 `yaml:"min_score"`
}

func (r RecaptchaConfig) Enabled() bool { return r.Secret != "" }

type WorkerConfig struct {
	OperatorEmail string `yaml:"operator_email"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Booking.TokenTTLMinutes <= 0 {
		c.Booking.TokenTTLMinutes = 5
	}
	if c.Booking.WindowDays <= 0 {
		c.Booking.WindowDays = 7
	}
	if c.Booking.FetchBufferSec <= 0 {
		c.Booking.FetchBufferSec = 60
	}
	if c.Booking.BookingBufferSec <= 0 {
		c.Booking.BookingBufferSec = 30
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://api.calendly.com"
	}
	if c.Provider.TimeoutSec <= 0 {
		c.Provider.TimeoutSec = 10
	}
	if c.Security.CSRFTTLMinutes <= 0 {
		c.Security.CSRFTTLMinutes = 60
	}
	if c.Recaptcha.MinScore <= 0 {
		c.Recaptcha.MinScore = 0.5
	}
}
