package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration parameters
type Config struct {
	Port            string
	MongoURI        string
	RasaURL         string
	FrontendURL     string
	LogFile         string
	RasaTimeout     time.Duration
	MongoRetryDelay time.Duration
}

// Load loads configuration from environment variables and .env file
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	return &Config{
		Port:            getEnv("PORT", "3000"),
		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017/chatbot"),
		RasaURL:         strings.TrimRight(getEnv("RASA_URL", "http://localhost:5005"), "/"),
		FrontendURL:     getEnv("FRONTEND_URL", "*"),
		LogFile:         getEnv("LOG_FILE", "chatbot.log"),
		RasaTimeout:     time.Duration(getEnvInt("RASA_TIMEOUT_MS", 3000)) * time.Millisecond,
		MongoRetryDelay: time.Duration(getEnvInt("MONGO_RETRY_DELAY_MS", 5000)) * time.Millisecond,
	}
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

// getEnvInt gets environment variable as integer with fallback
func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
		log.Printf("Warning: invalid integer value for %s: %s, using default: %d", key, value, fallback)
	}
	return fallback
}
