package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

const defaultSigningKey = "your-secret-key"

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port        string
	Env         string
	APIVersion  string
	FrontendURL string
	BodyLimit   string

	// TrustedProxies lists the CIDRs or IPs allowed to set X-Forwarded-For.
	// When empty the client IP is the socket peer address.
	TrustedProxies []string
}

// TrustedProxyRanges parses TrustedProxies; a bare IP is a single-host range.
func (s ServerConfig) TrustedProxyRanges() ([]*net.IPNet, error) {
	ranges := make([]*net.IPNet, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", raw)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			ranges = append(ranges, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
		}
		ranges = append(ranges, ipNet)
	}
	return ranges, nil
}

// IsDevelopment reports whether internal error details may be sent to clients.
func (s ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// CardConfig controls how business cards are issued.
type CardConfig struct {
	PublicURL        string
	ValidityMonths   int
	BackfillInterval time.Duration
}

// MediaConfig selects and configures the media host used for logos and QR images.
type MediaConfig struct {
	Driver          string
	LocalDir        string
	LocalBaseURL    string
	FirebaseBucket  string
	CredentialsFile string
	CredentialsJSON string // base64 encoded service account
}

// UploadConfig bounds multipart logo uploads.
type UploadConfig struct {
	MaxBytes int64
}

// RateLimitConfig configures the per-IP limiter on public card scans.
type RateLimitConfig struct {
	ScanRPS   float64
	ScanBurst int
}

// SeedConfig holds the default accounts created by the seed command.
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	AgentEmail    string
	AgentPassword string
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Card        CardConfig
	Media       MediaConfig
	Upload      UploadConfig
	RateLimit   RateLimitConfig
	Seed        SeedConfig
}

// Load loads configuration from the environment, reading a .env file first when present.
func Load(serviceName string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "visitcard"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port:        getEnv("PORT", "5000"),
			Env:         getEnv("APP_ENV", "development"),
			APIVersion:  getEnv("API_VERSION", "v1"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
			BodyLimit:   getEnv("BODY_LIMIT", "10M"),

			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SECRET", defaultSigningKey),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 7*24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", serviceName),
		},
		Card: CardConfig{
			PublicURL:        getEnv("CARD_PUBLIC_URL", "http://localhost:5173/card"),
			ValidityMonths:   getEnvAsInt("CARD_VALIDITY_MONTHS", 12),
			BackfillInterval: getEnvAsDuration("CARD_BACKFILL_INTERVAL", 0),
		},
		Media: MediaConfig{
			Driver:          getEnv("MEDIA_DRIVER", "local"),
			LocalDir:        getEnv("MEDIA_LOCAL_DIR", "uploads"),
			LocalBaseURL:    getEnv("MEDIA_LOCAL_BASE_URL", "http://localhost:5000/uploads"),
			FirebaseBucket:  getEnv("FIREBASE_STORAGE_BUCKET", ""),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			CredentialsJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		},
		Upload: UploadConfig{
			MaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
		},
		RateLimit: RateLimitConfig{
			ScanRPS:   getEnvAsFloat("SCAN_RATE_LIMIT_RPS", 5),
			ScanBurst: getEnvAsInt("SCAN_RATE_LIMIT_BURST", 30),
		},
		Seed: SeedConfig{
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@smartcard.sn"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "Admin@123"),
			AgentEmail:    getEnv("AGENT_EMAIL", "agent@smartcard.sn"),
			AgentPassword: getEnv("AGENT_PASSWORD", "Agent@123456"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings that cannot produce a working service.
func (c *Config) Validate() error {
	if c.Server.Env == "production" && c.JWT.SigningKey == defaultSigningKey {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.JWT.ExpirationHours <= 0 {
		return errors.New("JWT_EXPIRATION_HOURS must be positive")
	}
	if _, err := c.Server.TrustedProxyRanges(); err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	if c.Card.ValidityMonths <= 0 {
		return errors.New("CARD_VALIDITY_MONTHS must be positive")
	}
	switch c.Media.Driver {
	case "local":
	case "firebase":
		if c.Media.FirebaseBucket == "" {
			return errors.New("FIREBASE_STORAGE_BUCKET is required for the firebase media driver")
		}
	default:
		return fmt.Errorf("unknown MEDIA_DRIVER %q", c.Media.Driver)
	}
	return nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_user", c.DB.User),
		zap.String("db_name", c.DB.DBName),
		zap.String("db_password", maskSecret(c.DB.Password)),
		zap.String("server_port", c.Server.Port),
		zap.String("media_driver", c.Media.Driver),
		zap.String("card_public_url", c.Card.PublicURL),
	}
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "***MASKED***"
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty items.
func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
