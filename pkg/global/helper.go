package global

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration read once at startup.
type Config struct {
	AppName  string
	Env      string
	Port     string
	LogLevel string

	StorageDriver  string
	MongoURI       string
	MongoDatabase  string
	SQLitePath     string
	RedisAddress   string
	RedisPassword  string
	RedisDB        int
	CatalogTTL     time.Duration
	JWTSecret      string
	JWTExpire      time.Duration
	OTPExpire      time.Duration
	OTPLength      int
	OTPMaxAttempts int
	Currency       string
	KafkaBrokers   []string
	KafkaTopic     string
	CORSOrigins    []string
}

const defaultJWTSecret = "change-me"

func LoadConfig() Config {
	return Config{
		AppName:        GetEnvOrDefault("APP_NAME", "MithraPay backend"),
		Env:            GetEnvOrDefault("ENV", "development"),
		Port:           GetEnvOrDefault("PORT", "8000"),
		LogLevel:       GetEnvOrDefault("LOG_LEVEL", "info"),
		StorageDriver:  GetEnvOrDefault("STORAGE_DRIVER", "mongo"),
		MongoURI:       os.Getenv("MONGODB_URI"),
		MongoDatabase:  GetEnvOrDefault("MONGODB_DATABASE", "mithrapay"),
		SQLitePath:     GetEnvOrDefault("SQLITE_PATH", "mithrapay.db"),
		RedisAddress:   GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:  GetEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:        GetEnvIntOrDefault("REDIS_DB", 0),
		CatalogTTL:     time.Duration(GetEnvIntOrDefault("CATALOG_CACHE_TTL_SECONDS", 300)) * time.Second,
		JWTSecret:      GetEnvOrDefault("JWT_SECRET", defaultJWTSecret),
		JWTExpire:      time.Duration(GetEnvIntOrDefault("JWT_EXPIRE_MINUTES", 60)) * time.Minute,
		OTPExpire:      time.Duration(GetEnvIntOrDefault("OTP_EXPIRE_SECONDS", 120)) * time.Second,
		OTPLength:      GetEnvIntOrDefault("OTP_LENGTH", 6),
		OTPMaxAttempts: GetEnvIntOrDefault("OTP_MAX_ATTEMPTS", 5),
		Currency:       GetEnvOrDefault("CURRENCY", "IRR"),
		KafkaBrokers:   GetEnvList("KAFKA_BROKERS"),
		KafkaTopic:     GetEnvOrDefault("KAFKA_ORDER_TOPIC", "orders"),
		CORSOrigins:    GetEnvList("CORS_ORIGINS"),
	}
}

// Validate rejects configurations the process cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case "mongo":
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is not set"))
		}
	case "sqlite":
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is not set"))
		}
	default:
		errs = append(errs, errors.New("STORAGE_DRIVER must be mongo or sqlite"))
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.OTPLength < 4 || c.OTPLength > 10 {
		errs = append(errs, errors.New("OTP_LENGTH must be between 4 and 10"))
	}
	return errors.Join(errs...)
}

func (c Config) IsProduction() bool { return c.Env == "production" }

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// GetEnvList splits a comma separated variable, dropping blanks.
func GetEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func GetDefaultTimer() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
