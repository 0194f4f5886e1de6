package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration, loaded from environment
// variables (a local .env file is picked up automatically).
type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Worker   WorkerConfig
	Mpesa    MpesaConfig
	SMTP     SMTPConfig
}

// HTTPConfig contains API server settings.
type HTTPConfig struct {
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

// RedisConfig contains the broker / result backend connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// WorkerConfig contains task execution settings. The defaults mirror the
// production deployment: 30 minute task time limit, results kept for an
// hour, four concurrent executor slots.
type WorkerConfig struct {
	Concurrency   int
	TaskTimeLimit time.Duration
	ResultExpires time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
}

// MpesaConfig contains Daraja API credentials.
type MpesaConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
}

// SMTPConfig contains outbound mail settings. When Host is empty the
// application falls back to a log-only mailer.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	AdminEmails []string
}

// Load reads configuration from the environment. Database credentials are
// required; everything else has a development default.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{
			Port:           getEnvInt("PORT", 8080),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Database: os.Getenv("DB_DATABASE"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Worker: WorkerConfig{
			Concurrency:   getEnvInt("WORKER_CONCURRENCY", 4),
			TaskTimeLimit: getEnvDuration("TASK_TIME_LIMIT", 30*time.Minute),
			ResultExpires: getEnvDuration("RESULT_EXPIRES", time.Hour),
			MaxRetries:    getEnvInt("TASK_MAX_RETRIES", 3),
			RetryDelay:    getEnvDuration("TASK_RETRY_DELAY", time.Minute),
		},
		Mpesa: MpesaConfig{
			BaseURL:        getEnv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
			ConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
			ConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
			ShortCode:      os.Getenv("MPESA_SHORTCODE"),
			Passkey:        os.Getenv("MPESA_PASSKEY"),
			CallbackURL:    os.Getenv("MPESA_CALLBACK_URL"),
		},
		SMTP: SMTPConfig{
			Host:        os.Getenv("SMTP_HOST"),
			Port:        getEnvInt("SMTP_PORT", 587),
			Username:    os.Getenv("SMTP_USERNAME"),
			Password:    os.Getenv("SMTP_PASSWORD"),
			FromAddress: getEnv("SMTP_FROM", "noreply@soundwaveaudio.co.ke"),
			AdminEmails: splitList(os.Getenv("ADMIN_EMAILS")),
		},
	}

	for name, val := range map[string]string{
		"DB_HOST":     cfg.Database.Host,
		"DB_USERNAME": cfg.Database.User,
		"DB_PASSWORD": cfg.Database.Password,
		"DB_DATABASE": cfg.Database.Database,
	} {
		if val == "" {
			return nil, fmt.Errorf("%s environment variable is required", name)
		}
	}

	return cfg, nil
}

// DSN builds the postgres:// connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Database)
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
