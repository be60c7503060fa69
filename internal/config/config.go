package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	EmailProviderResend = "resend"
	EmailProviderRelay  = "relay"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cloudinary CloudinaryConfig
	Reel       ReelConfig
	Email      EmailConfig
	SMS        SMSConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port               string
	Environment        string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	BasePublicURL      string
	CORSAllowedOrigins string
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	Migrations bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// ReelConfig bounds reel generation and slug assignment
type ReelConfig struct {
	NetworkTimeout  time.Duration
	SlugMaxAttempts int
}

type EmailConfig struct {
	Enabled    bool
	Provider   string
	APIKey     string
	FromEmail  string
	FromName   string
	ServiceURL string
	Timeout    time.Duration
}

type SMSConfig struct {
	Enabled    bool
	AccountSID string
	AuthToken  string
	FromNumber string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("SERVER_PORT", "3000"),
			Environment:        getEnv("ENVIRONMENT", "development"),
			ReadTimeout:        getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:       getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			BasePublicURL:      strings.TrimRight(getEnv("BASE_PUBLIC_URL", "http://localhost:3000"), "/"),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("STORAGE_DRIVER", StorageDriverPostgres),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "photobooth"),
			Password:   getEnv("DB_PASSWORD", "photobooth"),
			DBName:     getEnv("DB_NAME", "photobooth"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			Migrations: getBoolEnv("DB_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			CacheTTL: getDurationEnv("REEL_CACHE_TTL", time.Hour),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			Folder:    getEnv("CLOUDINARY_FOLDER", "photobooth"),
		},
		Reel: ReelConfig{
			NetworkTimeout:  getDurationEnv("REEL_NETWORK_TIMEOUT", 15*time.Second),
			SlugMaxAttempts: getIntEnv("SLUG_MAX_ATTEMPTS", 5),
		},
		Email: EmailConfig{
			Enabled:    getBoolEnv("EMAIL_ENABLED", false),
			Provider:   getEnv("EMAIL_PROVIDER", EmailProviderResend),
			APIKey:     getEnv("RESEND_API_KEY", ""),
			FromEmail:  getEnv("EMAIL_FROM", ""),
			FromName:   getEnv("EMAIL_FROM_NAME", "PhotoBooth"),
			ServiceURL: getEnv("EMAIL_SERVICE_URL", ""),
			Timeout:    getDurationEnv("EMAIL_TIMEOUT", 10*time.Second),
		},
		SMS: SMSConfig{
			Enabled:    getBoolEnv("SMS_ENABLED", false),
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects combinations the service cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case StorageDriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required for the postgres storage driver")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Database.Driver)
	}

	if c.Cloudinary.CloudName == "" {
		return fmt.Errorf("CLOUDINARY_CLOUD_NAME is required")
	}
	if c.Reel.SlugMaxAttempts < 1 {
		return fmt.Errorf("SLUG_MAX_ATTEMPTS must be at least 1")
	}
	if c.Reel.NetworkTimeout <= 0 {
		return fmt.Errorf("REEL_NETWORK_TIMEOUT must be positive")
	}

	if c.Email.Enabled {
		switch c.Email.Provider {
		case EmailProviderResend, EmailProviderRelay:
		default:
			return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.Email.Provider)
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
