package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// devJWTSecret keeps local setups working when JWT_SECRET is unset. Known
// gap: production deployments must set JWT_SECRET, the startup log warns
// loudly when the fallback is in use.
const devJWTSecret = "dev-secret-change-me"

type Config struct {
	MongoURI    string
	DBName      string
	JWTSecret   string
	TokenTTL    time.Duration
	Environment string
	Port        string
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}

	secret := getEnvOrDefault("JWT_SECRET", "")
	if secret == "" {
		log.Println("[CONFIG] [WARN] JWT_SECRET not set, using development fallback")
		secret = devJWTSecret
	}

	return Config{
		MongoURI:    getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnvOrDefault("DB_NAME", "shopdb"),
		JWTSecret:   secret,
		TokenTTL:    getDurationEnv("TOKEN_TTL_DAYS", 7, 24*time.Hour),
		Environment: getEnvOrDefault("APP_ENV", "development"),
		Port:        getEnvOrDefault("PORT", "8080"),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
