package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL string
	MongoURI    string
	MongoDB     string

	Port          string
	SessionSecret string

	RegistrationEnabled bool
	MinPasswordLength   int

	// LoginRedirectURL is where a successful login lands unless the request
	// carries a same-origin redirect_to override.
	LoginRedirectURL  string
	LogoutRedirectURL string

	MaxUploadBytes int64
}

// Load reads the .env file (if present) and returns a populated Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "afcglide_media"),

		Port:          getEnv("PORT", "8083"),
		SessionSecret: getEnv("SESSION_SECRET", ""),

		RegistrationEnabled: getEnvBool("REGISTRATION_ENABLED", true),
		MinPasswordLength:   getEnvInt("MIN_PASSWORD_LENGTH", 8),

		LoginRedirectURL:  getEnv("LOGIN_REDIRECT_URL", "/submit-listing/"),
		LogoutRedirectURL: getEnv("LOGOUT_REDIRECT_URL", "/agent-login/"),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 5)) * 1024 * 1024,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
