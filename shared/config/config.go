package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// AppConfig holds the HR service configuration
type AppConfig struct {
	Port          string
	JWTSecret     string
	JWTIssuer     string
	TokenTTL      time.Duration
	BcryptCost    int
	AutoMigrate   bool
	AllowedOrigin []string

	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	PrincipalCacheTTL time.Duration

	KafkaBroker     string
	KafkaAuditTopic string

	LogLevel  string
	LogFormat string
}

// GetAppConfig returns the service configuration from environment variables
func GetAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:              getEnv("HR_SERVICE_PORT", "8004"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTIssuer:         getEnv("JWT_ISSUER", "hr-service"),
		TokenTTL:          getEnvDuration("TOKEN_TTL", 8*time.Hour),
		BcryptCost:        getEnvInt("BCRYPT_COST", 10),
		AutoMigrate:       getEnvBool("DB_AUTO_MIGRATE", true),
		AllowedOrigin:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RedisHost:         getEnv("REDIS_HOST", ""),
		RedisPort:         getEnv("REDIS_PORT", "6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		PrincipalCacheTTL: getEnvDuration("PRINCIPAL_CACHE_TTL", 5*time.Minute),
		KafkaBroker:       getEnv("KAFKA_BROKER", ""),
		KafkaAuditTopic:   getEnv("KAFKA_AUDIT_TOPIC", "audit-logs"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot start without
func (c *AppConfig) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	return nil
}

// RedisEnabled reports whether a Redis host was configured
func (c *AppConfig) RedisEnabled() bool {
	return c.RedisHost != ""
}

// RedisAddr returns host:port for the Redis client
func (c *AppConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// KafkaEnabled reports whether a Kafka broker was configured
func (c *AppConfig) KafkaEnabled() bool {
	return c.KafkaBroker != ""
}

// ConfigureLogging applies the log level and format to the global logrus logger
func ConfigureLogging(cfg *AppConfig) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func getEnvInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logrus.Warnf("Invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		logrus.Warnf("Invalid %s=%q, using %t", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		logrus.Warnf("Invalid %s=%q, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
