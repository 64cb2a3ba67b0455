package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort              string // Application port
	DBUser               string // Database user
	DBPassword           string // Database password
	DBHost               string // Database host
	DBPort               string // Database port
	DBName               string // Database name
	JWTSecret            string // Secret for signing access tokens
	TokenTTLHours        int    // Access token lifetime in hours
	ConfirmationSecret   string // Secret for signing confirmation codes
	ConfirmationTTLHours int    // Confirmation code lifetime in hours
	SMTPHost             string // SMTP server host
	SMTPPort             int    // SMTP server port
	SMTPUser             string // SMTP username
	SMTPPassword         string // SMTP password
	EmailFrom            string // Sender address for outgoing mail
	RedisAddr            string // Redis server address
	RedisPass            string // Redis password
	RedisDB              int    // Redis database number
	IsProd               bool   // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:              getEnv("APP_PORT", "8080"),
		DBUser:               os.Getenv("DB_USER"),
		DBPassword:           os.Getenv("DB_PASSWORD"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "3306"),
		DBName:               getEnv("DB_NAME", "reviewhub"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		TokenTTLHours:        getEnvInt("TOKEN_TTL_HOURS", 24),
		ConfirmationSecret:   getEnv("CONFIRMATION_SECRET", os.Getenv("JWT_SECRET")),
		ConfirmationTTLHours: getEnvInt("CONFIRMATION_TTL_HOURS", 72),
		SMTPHost:             getEnv("SMTP_HOST", "localhost"),
		SMTPPort:             getEnvInt("SMTP_PORT", 25),
		SMTPUser:             os.Getenv("SMTP_USER"),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
		EmailFrom:            getEnv("EMAIL_FROM", "noreply@reviewhub.local"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPass:            os.Getenv("REDIS_PASS"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		IsProd:               os.Getenv("IS_PROD") == "true",
	}
}

// getEnv returns the value of an environment variable or a fallback
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of an environment variable or a fallback
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
